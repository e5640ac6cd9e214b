// internal/endfpath/parser.go
package endfpath

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// segmentRegex matches a name with an optional index list, e.g. `xs` or `a[1, 2]`.
var segmentRegex = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)(?:\[([0-9,\s]+)\])?$`)

var indexRegex = regexp.MustCompile(`^[0-9]+$`)

// Parse creates a Path from its string form. Empty segments between
// slashes are ignored, so `/3//151/` equals `3/151`.
func Parse(raw string) (*Path, error) {
	p := &Path{}
	for _, part := range strings.Split(raw, "/") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if indexRegex.MatchString(part) {
			idx, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid index segment %q: %w", part, err)
			}
			p.Segments = append(p.Segments, Index(idx))
			continue
		}

		matches := segmentRegex.FindStringSubmatch(part)
		if matches == nil {
			return nil, fmt.Errorf("invalid path segment %q", part)
		}
		p.Segments = append(p.Segments, Name(matches[1]))
		if matches[2] == "" {
			continue
		}
		for _, s := range strings.Split(matches[2], ",") {
			s = strings.TrimSpace(s)
			idx, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("invalid index %q in segment %q", s, part)
			}
			p.Segments = append(p.Segments, Index(idx))
		}
	}
	if len(p.Segments) == 0 {
		return nil, fmt.Errorf("path %q has no segments", raw)
	}
	return p, nil
}

// MustParse is like Parse but panics on error.
func MustParse(raw string) *Path {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}
