// Package recipe is the syntax tree of a section recipe: the declarative
// description of one ENDF-6 section's records, loops, conditionals and
// sub-sections. Loaders produce it; the compiler and the interpreter
// consume it.
package recipe

import "fmt"

// Node is one statement of a recipe body.
type Node interface {
	node()
}

// RecordKind is the ENDF-6 record type of a line or line group.
type RecordKind int

const (
	TEXT RecordKind = iota
	CONT
	HEAD
	DIR
	LIST
	TAB1
	TAB2
)

var recordNames = [...]string{"TEXT", "CONT", "HEAD", "DIR", "LIST", "TAB1", "TAB2"}

func (k RecordKind) String() string {
	if k >= 0 && int(k) < len(recordNames) {
		return recordNames[k]
	}
	return fmt.Sprintf("RecordKind(%d)", int(k))
}

// Record reads or writes one record. Ctl holds the MAT, MF and MT slots;
// Fields holds the six numeric slots, where nil is a blank column. A TEXT
// record uses Fields[0] for its 66-column text.
//
// For TAB1 and TAB2, Fields[4] (and Fields[5] for TAB1) are derived from
// the body and must be nil. For LIST, Fields[4] is the item count.
type Record struct {
	Kind   RecordKind
	Ctl    [3]Expr
	Fields [6]Expr

	Items []ListItem // LIST body

	// TAB body. X and Y are only used by TAB1. When Table is set the body
	// is stored in a sub-mapping of that name, indexed by TableIndices.
	X, Y         string
	Table        string
	TableIndices []Expr

	Pos string // source position for diagnostics
}

// Send is the SEND record closing a section.
type Send struct {
	Pos string
}

// Loop repeats Body with Counter running from From to To inclusive.
type Loop struct {
	Counter  string
	From, To Expr
	Body     []Node
	Pos      string
}

// If runs Then when Cond is true and Else otherwise.
type If struct {
	Cond Expr
	Then []Node
	Else []Node
	Pos  string
}

// Section stores the variables first assigned in Body in a sub-mapping
// named Name, descended further by Indices.
type Section struct {
	Name    string
	Indices []Expr
	Body    []Node
	Pos     string
}

func (*Record) node()  {}
func (*Send) node()    {}
func (*Loop) node()    {}
func (*If) node()      {}
func (*Section) node() {}

// ListItem is one element of a LIST body.
type ListItem interface {
	listItem()
}

// ListValue consumes a single list value.
type ListValue struct {
	Expr Expr
}

// ListLoop repeats Body with Counter running from From to To inclusive.
type ListLoop struct {
	Counter  string
	From, To Expr
	Body     []ListItem
}

func (*ListValue) listItem() {}
func (*ListLoop) listItem()  {}

// Recipe describes every section with file number MF and, when MTs is not
// empty, one of the listed reaction numbers.
type Recipe struct {
	Name string
	MF   int
	MTs  []int
	Body []Node
	Pos  string
}

// Matches reports whether the recipe applies to section (mf, mt).
func (r *Recipe) Matches(mf, mt int) bool {
	if r.MF != mf {
		return false
	}
	if len(r.MTs) == 0 {
		return true
	}
	for _, m := range r.MTs {
		if m == mt {
			return true
		}
	}
	return false
}

// TapeID reports whether the recipe describes the MF0/MT0 tape
// identification record.
func (r *Recipe) TapeID() bool {
	return r.MF == 0 && len(r.MTs) == 1 && r.MTs[0] == 0
}
