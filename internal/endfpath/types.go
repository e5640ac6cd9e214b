// internal/endfpath/types.go
package endfpath

import "strconv"

// Segment is one step of a path: either a name or an integer index.
type Segment struct {
	Name  string
	Index int // -1 when the segment is a name.
}

// Name creates a named segment.
func Name(name string) Segment {
	return Segment{Name: name, Index: -1}
}

// Index creates an index segment.
func Index(idx int) Segment {
	return Segment{Index: idx}
}

// IsIndex reports whether the segment is an integer index.
func (s Segment) IsIndex() bool {
	return s.Index != -1
}

// Key returns the segment as a result mapping key.
func (s Segment) Key() any {
	if s.IsIndex() {
		return s.Index
	}
	return s.Name
}

func (s Segment) String() string {
	if s.IsIndex() {
		return strconv.Itoa(s.Index)
	}
	return s.Name
}

// Path is a parsed address into a result mapping.
type Path struct {
	Segments []Segment
}
