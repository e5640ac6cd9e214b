package resultmap

import (
	"errors"
	"fmt"

	"github.com/vk/endfgo/internal/indexchain"
)

// Context is the parent/current stack used while a section routine runs.
// Each invocation owns its own Context; nothing about it is global.
type Context struct {
	stack   []*Map
	current *Map
}

// NewContext starts a stack whose current mapping is root.
func NewContext(root *Map) *Context {
	return &Context{current: root}
}

// Current returns the mapping that values are extracted into.
func (c *Context) Current() *Map {
	return c.current
}

// Depth returns the number of open sections.
func (c *Context) Depth() int {
	return len(c.stack)
}

// Open descends into name and then into each index, creating mappings that
// do not exist yet, and makes the innermost one current.
func (c *Context) Open(name string, indices ...int) (*Map, error) {
	m, err := c.current.Ensure(name)
	if err != nil {
		return nil, err
	}
	for _, idx := range indices {
		if m, err = m.Ensure(idx); err != nil {
			return nil, fmt.Errorf("resultmap: section %s: %w", name, err)
		}
	}
	c.stack = append(c.stack, c.current)
	c.current = m
	return m, nil
}

// Enter descends like Open but never modifies the tree. A missing section
// is entered as an empty detached mapping, so a writer finds no values in
// it.
func (c *Context) Enter(name string, indices ...int) *Map {
	m, ok := c.current.Sub(name)
	for _, idx := range indices {
		if !ok {
			break
		}
		m, ok = m.Sub(idx)
	}
	if !ok {
		m = New()
	}
	c.stack = append(c.stack, c.current)
	c.current = m
	return m
}

// Close makes the parent of the current mapping current again.
func (c *Context) Close() error {
	n := len(c.stack)
	if n == 0 {
		return errors.New("resultmap: close without a matching open")
	}
	c.current = c.stack[n-1]
	c.stack = c.stack[:n-1]
	return nil
}

// Extract mirrors the variable into dst if it was read. Indexed variables
// become nested mappings with ascending int keys; levels without values
// are omitted.
func Extract(dst *Map, v *indexchain.Var) {
	if !v.DidRead() {
		return
	}
	if v.Arity() == 0 {
		val, _ := v.Value()
		dst.Set(v.Name(), val)
		return
	}
	dst.Set(v.Name(), extractLevel(v.Root()))
}

func extractLevel(h indexchain.Handle) *Map {
	m := New()
	for idx := range h.Indices() {
		if h.Depth() == 1 {
			val, _ := h.Get(idx)
			m.Set(idx, val)
			continue
		}
		child, _ := h.Child(idx)
		m.Set(idx, extractLevel(child))
	}
	return m
}

// Load fills v from the entry src holds under its name. A missing entry
// leaves v unread.
func Load(src *Map, v *indexchain.Var) error {
	val, ok := src.Get(v.Name())
	if !ok {
		return nil
	}
	if v.Arity() == 0 {
		if _, isMap := val.(*Map); isMap {
			return fmt.Errorf("resultmap: %s is a scalar but holds a mapping", v.Name())
		}
		return v.Assign(val)
	}
	sub, ok := val.(*Map)
	if !ok {
		return fmt.Errorf("resultmap: %s has %d indices but holds a %T", v.Name(), v.Arity(), val)
	}
	return loadLevel(sub, v, make([]int, 0, v.Arity()))
}

func loadLevel(m *Map, v *indexchain.Var, prefix []int) error {
	for k, val := range m.All() {
		idx, ok := k.(int)
		if !ok {
			return fmt.Errorf("resultmap: %s%v: index %q is not an integer", v.Name(), prefix, k)
		}
		indices := append(prefix, idx)
		if len(indices) == v.Arity() {
			if err := v.Set(val, indices...); err != nil {
				return err
			}
			continue
		}
		sub, ok := val.(*Map)
		if !ok {
			return fmt.Errorf("resultmap: %s%v: expected a mapping, found %T", v.Name(), indices, val)
		}
		if err := loadLevel(sub, v, indices); err != nil {
			return err
		}
	}
	return nil
}
