package indexchain

import (
	"fmt"
	"iter"
	"slices"
)

// Unset is the start/last index of a level that holds no value.
const Unset = -1

// LevelID addresses a level inside an Arena.
type LevelID int32

const noLevel LevelID = -1

type level struct {
	depth     int // remaining levels including this one; 1 is innermost
	parent    LevelID
	parentIdx int
	start     int
	last      int
	count     int // indices holding a value or a non-empty child
	children  map[int]LevelID
	values    map[int]any
}

// Arena owns every level of every variable created from it. It is not safe
// for concurrent use; each parse or write invocation creates its own.
type Arena struct {
	levels []level
	free   []LevelID
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

func (a *Arena) alloc(depth int, parent LevelID, parentIdx int) LevelID {
	lv := level{depth: depth, parent: parent, parentIdx: parentIdx, start: Unset, last: Unset}
	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		a.levels[id] = lv
		return id
	}
	a.levels = append(a.levels, lv)
	return LevelID(len(a.levels) - 1)
}

// release returns id and all levels below it to the free list.
func (a *Arena) release(id LevelID) {
	lv := &a.levels[id]
	for _, child := range lv.children {
		a.release(child)
	}
	a.levels[id] = level{}
	a.free = append(a.free, id)
}

// Live returns the number of levels currently in use.
func (a *Arena) Live() int {
	return len(a.levels) - len(a.free)
}

// markWritten records that idx newly holds data in level id. A level that
// goes from empty to non-empty makes its own index count in the parent.
func (a *Arena) markWritten(id LevelID, idx int) {
	for id != noLevel {
		lv := &a.levels[id]
		if lv.start == Unset || idx < lv.start {
			lv.start = idx
		}
		if idx > lv.last {
			lv.last = idx
		}
		lv.count++
		if lv.count > 1 {
			return
		}
		idx, id = lv.parentIdx, lv.parent
	}
}

func (lv *level) hasData(idx int, a *Arena) bool {
	if lv.depth == 1 {
		_, ok := lv.values[idx]
		return ok
	}
	child, ok := lv.children[idx]
	return ok && a.levels[child].count > 0
}

// Handle is a cursor on one level of a variable's chain.
type Handle struct {
	arena *Arena
	id    LevelID
}

func (h Handle) lv() *level {
	return &h.arena.levels[h.id]
}

// Depth returns the number of levels from this one down to the values.
func (h Handle) Depth() int {
	return h.lv().depth
}

// Prepare returns the handle of the level below idx, creating it on first
// descent. Existing levels are never replaced.
func (h Handle) Prepare(idx int) (Handle, error) {
	if idx < 0 {
		return Handle{}, fmt.Errorf("indexchain: negative index %d", idx)
	}
	lv := h.lv()
	if lv.depth == 1 {
		return Handle{}, fmt.Errorf("indexchain: cannot descend below the innermost level (index %d)", idx)
	}
	if child, ok := lv.children[idx]; ok {
		return Handle{arena: h.arena, id: child}, nil
	}
	// alloc may grow the levels slice, so lv must not be used afterwards.
	depth := lv.depth - 1
	child := h.arena.alloc(depth, h.id, idx)
	lv = h.lv()
	if lv.children == nil {
		lv.children = make(map[int]LevelID)
	}
	lv.children[idx] = child
	return Handle{arena: h.arena, id: child}, nil
}

// Child returns the level below idx without creating it.
func (h Handle) Child(idx int) (Handle, bool) {
	child, ok := h.lv().children[idx]
	if !ok {
		return Handle{}, false
	}
	return Handle{arena: h.arena, id: child}, true
}

// Set stores v at idx. Only the innermost level accepts values.
func (h Handle) Set(idx int, v any) error {
	if idx < 0 {
		return fmt.Errorf("indexchain: negative index %d", idx)
	}
	lv := h.lv()
	if lv.depth != 1 {
		return fmt.Errorf("indexchain: set at index %d on a non-innermost level", idx)
	}
	if lv.values == nil {
		lv.values = make(map[int]any)
	}
	_, existed := lv.values[idx]
	lv.values[idx] = v
	if !existed {
		h.arena.markWritten(h.id, idx)
	}
	return nil
}

// Get returns the value stored at idx on the innermost level.
func (h Handle) Get(idx int) (any, bool) {
	v, ok := h.lv().values[idx]
	return v, ok
}

// StartIndex returns the smallest index holding data, or Unset.
func (h Handle) StartIndex() int {
	return h.lv().start
}

// LastIndex returns the largest index holding data, or Unset.
func (h Handle) LastIndex() int {
	return h.lv().last
}

// Contains reports whether idx holds a value or a non-empty level.
func (h Handle) Contains(idx int) bool {
	return h.lv().hasData(idx, h.arena)
}

// Len returns the number of indices holding data.
func (h Handle) Len() int {
	return h.lv().count
}

// Indices yields every index holding data in ascending order. Gaps between
// StartIndex and LastIndex are skipped.
func (h Handle) Indices() iter.Seq[int] {
	return func(yield func(int) bool) {
		lv := h.lv()
		var keys []int
		if lv.depth == 1 {
			keys = make([]int, 0, len(lv.values))
			for k := range lv.values {
				keys = append(keys, k)
			}
		} else {
			keys = make([]int, 0, len(lv.children))
			for k, child := range lv.children {
				if h.arena.levels[child].count > 0 {
					keys = append(keys, k)
				}
			}
		}
		slices.Sort(keys)
		for _, k := range keys {
			if !yield(k) {
				return
			}
		}
	}
}
