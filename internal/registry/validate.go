package registry

import (
	"fmt"
	"strings"
)

// checkConflicts rejects recipes whose names or section claims collide
// with each other or with what is already registered. The caller holds the
// write lock.
func (r *Registry) checkConflicts(entries []*Entry) error {
	var errs []string

	names := make(map[string]string)
	specific := make(map[sectionKey]string)
	wide := make(map[int]string)
	for name := range r.byName {
		names[name] = "registered"
	}
	for k, e := range r.specific {
		specific[k] = e.Recipe.Name
	}
	for mf, e := range r.wide {
		wide[mf] = e.Recipe.Name
	}

	for _, e := range entries {
		rec := e.Recipe
		if prev, ok := names[rec.Name]; ok {
			errs = append(errs, fmt.Sprintf("recipe %q (%s) is defined more than once (%s)", rec.Name, rec.Pos, prev))
		} else {
			names[rec.Name] = rec.Pos
		}

		if len(rec.MTs) == 0 {
			if prev, ok := wide[rec.MF]; ok {
				errs = append(errs, fmt.Sprintf("recipe %q: MF%d is already covered by %q", rec.Name, rec.MF, prev))
				continue
			}
			wide[rec.MF] = rec.Name
			continue
		}
		for _, mt := range rec.MTs {
			k := sectionKey{rec.MF, mt}
			if prev, ok := specific[k]; ok {
				errs = append(errs, fmt.Sprintf("recipe %q: %s is already claimed by %q", rec.Name, k, prev))
				continue
			}
			specific[k] = rec.Name
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
