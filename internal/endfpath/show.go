package endfpath

import (
	"fmt"
	"io"

	"github.com/vk/endfgo/internal/resultmap"
)

// Show writes one line per entry of m as "/path: value". Mappings are
// expanded up to maxLevel levels below m; deeper ones are listed as
// "subsection or array".
func Show(w io.Writer, m *resultmap.Map, maxLevel int) error {
	return show(w, m, maxLevel, "/")
}

func show(w io.Writer, m *resultmap.Map, maxLevel int, prefix string) error {
	width := 0
	for _, k := range m.Keys() {
		width = max(width, len(prefix+keySegment(k).String()))
	}
	for k, v := range m.All() {
		name := prefix + keySegment(k).String()
		if sub, ok := v.(*resultmap.Map); ok {
			if maxLevel > 0 {
				if err := show(w, sub, maxLevel-1, name+"/"); err != nil {
					return err
				}
				continue
			}
			v = "subsection or array"
		}
		if _, err := fmt.Fprintf(w, "%-*s%v\n", width+2, name+":", v); err != nil {
			return err
		}
	}
	return nil
}

// Values returns the value at each path, in order. It fails on the first
// path that does not exist.
func Values(m *resultmap.Map, paths ...*Path) ([]any, error) {
	out := make([]any, len(paths))
	for i, p := range paths {
		v, err := p.Get(m)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
