package compiler

import (
	"github.com/vk/endfgo/internal/engine"
)

// hoister moves the descent into the outer levels of loop-nested indexed
// variables in front of the outermost loop that leaves those levels
// unchanged. Each hoisted level gets a register that the slot, or the
// next level, descends from.
type hoister struct {
	numPtrs  int
	assigned map[*lloop]map[int]bool
}

func (h *hoister) walk(nodes []lnode) {
	for _, n := range nodes {
		switch x := n.(type) {
		case *lrecord:
			for i, s := range x.slots {
				if ref, ok := s.Expr.(*engine.Ref); ok && len(ref.Indices) > 1 {
					x.ptrs[i] = h.hoist(x, ref)
				}
			}
		case *lloop:
			h.walk(x.body)
		case *lif:
			h.walk(x.then)
			h.walk(x.els)
		case *lsection:
			h.walk(x.body)
		}
	}
}

// hoist places prepares for as many leading levels of ref as possible and
// returns the register of the deepest one, or 0.
func (h *hoister) hoist(rec *lrecord, ref *engine.Ref) int {
	deps := map[int]bool{}
	var limit *lloop
	ptr := 0
	for lvl := 0; lvl < len(ref.Indices)-1; lvl++ {
		refIDs(ref.Indices[lvl], deps)
		dest := h.destination(rec.parent, deps, limit)
		if dest == nil {
			break
		}
		h.numPtrs++
		dest.prepares = append(dest.prepares, engine.Instr{
			Op:    engine.OpPrepare,
			Ptr:   h.numPtrs,
			Var:   ref.ID,
			Base:  ptr,
			Index: ref.Indices[lvl],
		})
		ptr, limit = h.numPtrs, dest
	}
	return ptr
}

// destination walks up from n and returns the outermost loop the prepare
// can be placed in front of. It never passes a section, a loop whose
// counter is in deps, a loop assigning any variable in deps, or limit
// itself.
func (h *hoister) destination(n lnode, deps map[int]bool, limit *lloop) *lloop {
	var dest *lloop
	for n != nil {
		switch x := n.(type) {
		case *lif:
			n = x.parent
			continue
		case *lloop:
			if deps[x.counter] || intersects(h.assignedIn(x), deps) {
				return dest
			}
			dest = x
			if x == limit {
				return dest
			}
			n = x.parent
			continue
		}
		return dest
	}
	return dest
}

func (h *hoister) assignedIn(l *lloop) map[int]bool {
	if set, ok := h.assigned[l]; ok {
		return set
	}
	set := map[int]bool{}
	assignedNodes(l.body, set)
	if h.assigned == nil {
		h.assigned = map[*lloop]map[int]bool{}
	}
	h.assigned[l] = set
	return set
}

func assignedNodes(nodes []lnode, set map[int]bool) {
	for _, n := range nodes {
		switch x := n.(type) {
		case *lrecord:
			for _, s := range x.slots {
				targets(s.Expr, set)
			}
			assignedItems(x.items, set)
			if x.tab != nil {
				set[x.tab.NBT.ID], set[x.tab.INT.ID] = true, true
				if x.tab.X != nil {
					set[x.tab.X.ID], set[x.tab.Y.ID] = true, true
				}
			}
		case *lloop:
			assignedNodes(x.body, set)
		case *lif:
			assignedNodes(x.then, set)
			assignedNodes(x.els, set)
		case *lsection:
			assignedNodes(x.body, set)
		}
	}
}

func assignedItems(items []litem, set map[int]bool) {
	for _, it := range items {
		switch x := it.(type) {
		case *litemValue:
			targets(x.expr, set)
		case *litemLoop:
			assignedItems(x.body, set)
		}
	}
}

// targets collects the variables a slot expression may assign: the
// variable itself, or any variable of an expression that can be solved.
func targets(e engine.Expr, set map[int]bool) {
	switch x := e.(type) {
	case *engine.Ref:
		set[x.ID] = true
	case *engine.Binary:
		targets(x.L, set)
		targets(x.R, set)
	case *engine.Unary:
		targets(x.X, set)
	}
}

// refIDs collects every reference in e, including those in indices.
func refIDs(e engine.Expr, set map[int]bool) {
	switch x := e.(type) {
	case *engine.Ref:
		set[x.ID] = true
		for _, idx := range x.Indices {
			refIDs(idx, set)
		}
	case *engine.Binary:
		refIDs(x.L, set)
		refIDs(x.R, set)
	case *engine.Unary:
		refIDs(x.X, set)
	}
}

func intersects(a, b map[int]bool) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if b[k] {
			return true
		}
	}
	return false
}
