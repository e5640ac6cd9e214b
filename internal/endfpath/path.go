// internal/endfpath/path.go
package endfpath

import (
	"fmt"
	"slices"
	"strings"

	"github.com/vk/endfgo/internal/resultmap"
)

// String serializes the Path with every segment slash-separated.
func (p *Path) String() string {
	if p == nil {
		return ""
	}
	var sb strings.Builder
	for i, s := range p.Segments {
		if i > 0 {
			sb.WriteByte('/')
		}
		sb.WriteString(s.String())
	}
	return sb.String()
}

// Equal checks two paths segment by segment.
func (p *Path) Equal(other *Path) bool {
	if p == nil || other == nil {
		return p == other
	}
	return slices.Equal(p.Segments, other.Segments)
}

// Join returns a new path with more segments appended.
func (p *Path) Join(segs ...Segment) *Path {
	out := &Path{Segments: make([]Segment, 0, len(p.Segments)+len(segs))}
	out.Segments = append(out.Segments, p.Segments...)
	out.Segments = append(out.Segments, segs...)
	return out
}

func (p *Path) parent(m *resultmap.Map) (*resultmap.Map, error) {
	cur := m
	for i, s := range p.Segments[:len(p.Segments)-1] {
		next, ok := cur.Sub(s.Key())
		if !ok {
			return nil, fmt.Errorf("endfpath: %s: no mapping at %s", p, (&Path{Segments: p.Segments[:i+1]}))
		}
		cur = next
	}
	return cur, nil
}

// Get returns the value at the path.
func (p *Path) Get(m *resultmap.Map) (any, error) {
	parent, err := p.parent(m)
	if err != nil {
		return nil, err
	}
	v, ok := parent.Get(p.last().Key())
	if !ok {
		return nil, fmt.Errorf("endfpath: %s does not exist", p)
	}
	return v, nil
}

// Set stores value at the path, creating intermediate mappings.
func (p *Path) Set(m *resultmap.Map, value any) error {
	cur := m
	for _, s := range p.Segments[:len(p.Segments)-1] {
		next, err := cur.Ensure(s.Key())
		if err != nil {
			return fmt.Errorf("endfpath: %s: %w", p, err)
		}
		cur = next
	}
	cur.Set(p.last().Key(), value)
	return nil
}

// Exists reports whether the path addresses a value.
func (p *Path) Exists(m *resultmap.Map) bool {
	_, err := p.Get(m)
	return err == nil
}

// Remove deletes the value at the path.
func (p *Path) Remove(m *resultmap.Map) error {
	parent, err := p.parent(m)
	if err != nil {
		return err
	}
	if !parent.Delete(p.last().Key()) {
		return fmt.Errorf("endfpath: %s does not exist", p)
	}
	return nil
}

func (p *Path) last() Segment {
	return p.Segments[len(p.Segments)-1]
}

// Locate returns the path of every entry named name. The search does not
// descend into a mapping that holds name itself.
func Locate(m *resultmap.Map, name string) []*Path {
	var found []*Path
	var walk func(cur *resultmap.Map, prefix []Segment)
	walk = func(cur *resultmap.Map, prefix []Segment) {
		if cur.Has(name) {
			found = append(found, &Path{Segments: append(slices.Clone(prefix), Name(name))})
			return
		}
		for k, v := range cur.All() {
			sub, ok := v.(*resultmap.Map)
			if !ok {
				continue
			}
			walk(sub, append(prefix, keySegment(k)))
		}
	}
	walk(m, nil)
	return found
}

func keySegment(k any) Segment {
	if idx, ok := k.(int); ok {
		return Index(idx)
	}
	return Name(k.(string))
}
