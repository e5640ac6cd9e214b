// Package tape handles whole ENDF tapes: a tape identification record
// followed by sections, each closed by SEND, files closed by FEND, the
// material closed by MEND and the tape closed by TEND.
//
// Split groups raw lines into sections. Parse runs the registered codec of
// every section on an executor and assembles a mapping keyed MF, then MT.
// Sections without a recipe are kept as their raw lines, so Write can
// regenerate the full tape from a mapping.
package tape

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/vk/endfgo/internal/endfline"
	"github.com/vk/endfgo/internal/resultmap"
)

// Key identifies a section.
type Key struct {
	MAT, MF, MT int
}

func (k Key) String() string {
	return fmt.Sprintf("MAT%d/MF%d/MT%d", k.MAT, k.MF, k.MT)
}

// Section is the raw lines of one section, SEND record included.
type Section struct {
	Key   Key
	Lines []string
}

// Tape is a split tape. TPID is empty when the tape has no identification
// record.
type Tape struct {
	TPID     []string
	Sections []Section
}

// SectionID addresses a section inside a tape mapping.
type SectionID struct {
	MF, MT int
}

// ReadLines reads every line of r.
func ReadLines(r io.Reader) ([]string, error) {
	in := endfline.NewReader(r)
	var lines []string
	for {
		line, err := in.Next()
		if errors.Is(err, endfline.ErrUnexpectedEOF) {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
}

// ParsedSections lists the sections of m that hold a parsed mapping.
func ParsedSections(m *resultmap.Map) []SectionID {
	return sections(m, true)
}

// UnparsedSections lists the sections of m that hold raw lines.
func UnparsedSections(m *resultmap.Map) []SectionID {
	return sections(m, false)
}

func sections(m *resultmap.Map, parsed bool) []SectionID {
	var out []SectionID
	for _, mf := range intKeys(m) {
		mfMap, ok := m.Sub(mf)
		if !ok {
			continue
		}
		for _, mt := range intKeys(mfMap) {
			v, _ := mfMap.Get(mt)
			if _, isMap := v.(*resultmap.Map); isMap == parsed {
				out = append(out, SectionID{MF: mf, MT: mt})
			}
		}
	}
	return out
}

// intKeys returns the integer keys of m in ascending order.
func intKeys(m *resultmap.Map) []int {
	var keys []int
	for _, k := range m.Keys() {
		if n, ok := k.(int); ok {
			keys = append(keys, n)
		}
	}
	slices.Sort(keys)
	return keys
}
