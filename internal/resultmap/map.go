// Package resultmap holds the hierarchical values produced by a section
// reader and consumed by a section writer.
//
// A Map is ordered and keyed by either a string (section or variable name)
// or an int (an index). Terminal values are int, float64, string or a slice
// of those. Maps serialize to JSON and YAML in insertion order; integer keys
// come back as ints when a document is read again.
package resultmap

import (
	"fmt"
	"iter"
	"math"
	"slices"
	"strconv"
)

// Map is an ordered mapping from string or int keys to values.
type Map struct {
	keys []any
	vals map[any]any
}

// New returns an empty Map.
func New() *Map {
	return &Map{vals: make(map[any]any)}
}

func checkKey(k any) {
	switch k.(type) {
	case string, int:
	default:
		panic(fmt.Sprintf("resultmap: key must be string or int, got %T", k))
	}
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Get returns the value stored under k.
func (m *Map) Get(k any) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.vals[k]
	return v, ok
}

// Has reports whether k is present.
func (m *Map) Has(k any) bool {
	_, ok := m.Get(k)
	return ok
}

// Set stores v under k. A new key is appended; an existing key keeps its
// position.
func (m *Map) Set(k, v any) {
	checkKey(k)
	if _, ok := m.vals[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.vals[k] = v
}

// Delete removes k and reports whether it was present.
func (m *Map) Delete(k any) bool {
	if _, ok := m.vals[k]; !ok {
		return false
	}
	delete(m.vals, k)
	m.keys = slices.DeleteFunc(m.keys, func(e any) bool { return e == k })
	return true
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []any {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// All yields the entries in insertion order.
func (m *Map) All() iter.Seq2[any, any] {
	return func(yield func(any, any) bool) {
		if m == nil {
			return
		}
		for _, k := range m.keys {
			if !yield(k, m.vals[k]) {
				return
			}
		}
	}
}

// Sub returns the nested Map stored under k.
func (m *Map) Sub(k any) (*Map, bool) {
	v, ok := m.Get(k)
	if !ok {
		return nil, false
	}
	sub, ok := v.(*Map)
	return sub, ok
}

// Ensure returns the nested Map under k, creating it when k is absent. It
// fails when k holds a terminal value.
func (m *Map) Ensure(k any) (*Map, error) {
	v, ok := m.Get(k)
	if !ok {
		sub := New()
		m.Set(k, sub)
		return sub, nil
	}
	sub, ok := v.(*Map)
	if !ok {
		return nil, fmt.Errorf("resultmap: key %v holds a %T, not a mapping", k, v)
	}
	return sub, nil
}

// Equal reports whether both maps hold the same keys and values. Key order
// is ignored; numbers compare by value, so 1 and 1.0 are equal.
func (m *Map) Equal(other *Map) bool {
	if m.Len() != other.Len() {
		return false
	}
	for k, v := range m.All() {
		ov, ok := other.Get(k)
		if !ok || !valueEqual(v, ov) {
			return false
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	switch av := a.(type) {
	case *Map:
		bv, ok := b.(*Map)
		return ok && av.Equal(bv)
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	}
	if as, ok := asSlice(a); ok {
		bs, ok := asSlice(b)
		return ok && slices.EqualFunc(as, bs, valueEqual)
	}
	af, ok1 := number(a)
	bf, ok2 := number(b)
	return ok1 && ok2 && (af == bf || math.IsNaN(af) && math.IsNaN(bf))
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []float64:
		out := make([]any, len(s))
		for i, f := range s {
			out[i] = f
		}
		return out, true
	case []int:
		out := make([]any, len(s))
		for i, n := range s {
			out[i] = n
		}
		return out, true
	default:
		return nil, false
	}
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func keyString(k any) string {
	switch kv := k.(type) {
	case int:
		return strconv.Itoa(kv)
	default:
		return kv.(string)
	}
}
