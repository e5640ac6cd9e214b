package indexchain

import (
	"fmt"
)

// Var is one recipe variable. Its identity is its name plus its arity, and
// the arity never changes after construction.
type Var struct {
	name  string
	arity int
	arena *Arena

	// arity 0
	value any
	read  bool

	// arity > 0
	root LevelID
}

// NewVar creates a variable whose levels, if any, live in a.
func (a *Arena) NewVar(name string, arity int) *Var {
	v := &Var{name: name, arity: arity, arena: a, root: noLevel}
	if arity > 0 {
		v.root = a.alloc(arity, noLevel, 0)
	}
	return v
}

// Name returns the variable name.
func (v *Var) Name() string { return v.name }

// Arity returns the number of index dimensions.
func (v *Var) Arity() int { return v.arity }

// Root returns the outermost level of an indexed variable.
func (v *Var) Root() Handle {
	if v.arity == 0 {
		panic(fmt.Sprintf("indexchain: %s is a scalar and has no levels", v.name))
	}
	return Handle{arena: v.arena, id: v.root}
}

// DidRead reports whether the variable holds a value. Scalars answer from
// their read flag, indexed variables from whether anything was stored.
func (v *Var) DidRead() bool {
	if v.arity == 0 {
		return v.read
	}
	return v.Root().LastIndex() != Unset
}

// Assign stores the value of a scalar and marks it read. A scalar can be
// assigned once per section invocation.
func (v *Var) Assign(value any) error {
	if v.arity != 0 {
		return fmt.Errorf("indexchain: %s has %d indices, cannot assign without them", v.name, v.arity)
	}
	if v.read {
		return fmt.Errorf("indexchain: %s was already read", v.name)
	}
	v.value, v.read = value, true
	return nil
}

// Value returns a scalar's value.
func (v *Var) Value() (any, bool) {
	return v.value, v.read
}

// Set stores value under the full index list, descending as needed.
func (v *Var) Set(value any, indices ...int) error {
	if len(indices) == 0 {
		return v.Assign(value)
	}
	if len(indices) != v.arity {
		return fmt.Errorf("indexchain: %s has %d indices, got %d", v.name, v.arity, len(indices))
	}
	h := v.Root()
	for _, idx := range indices[:len(indices)-1] {
		var err error
		if h, err = h.Prepare(idx); err != nil {
			return fmt.Errorf("indexchain: %s: %w", v.name, err)
		}
	}
	if err := h.Set(indices[len(indices)-1], value); err != nil {
		return fmt.Errorf("indexchain: %s: %w", v.name, err)
	}
	return nil
}

// Get returns the value under the full index list.
func (v *Var) Get(indices ...int) (any, bool) {
	if len(indices) == 0 {
		return v.Value()
	}
	if len(indices) != v.arity {
		return nil, false
	}
	h := v.Root()
	for _, idx := range indices[:len(indices)-1] {
		var ok bool
		if h, ok = h.Child(idx); !ok {
			return nil, false
		}
	}
	return h.Get(indices[len(indices)-1])
}

// Contains reports whether a value is stored under the full index list.
func (v *Var) Contains(indices ...int) bool {
	_, ok := v.Get(indices...)
	return ok
}

// Reset forgets every value, returning the variable to its unread state.
// Indexed variables hand their levels back to the arena.
func (v *Var) Reset() {
	if v.arity == 0 {
		v.value, v.read = nil, false
		return
	}
	v.arena.release(v.root)
	v.root = v.arena.alloc(v.arity, noLevel, 0)
}
