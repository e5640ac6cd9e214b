// Package compiler turns a section recipe into a reader Program and a writer
// Program.
//
// Compilation runs in three passes over the recipe tree: resolution binds
// every reference to a variable or loop counter and rejects references to
// variables that are not visible; hoisting (optional) moves index-chain
// descents out of loops; emission flattens the tree into instructions.
// Compilation has no shared state, so recipes may be compiled concurrently.
package compiler

import (
	"context"
	"fmt"

	"github.com/vk/endfgo/internal/ctxlog"
	"github.com/vk/endfgo/internal/endfline"
	"github.com/vk/endfgo/internal/engine"
	"github.com/vk/endfgo/internal/parseopts"
	"github.com/vk/endfgo/internal/recipe"
	"github.com/vk/endfgo/internal/resultmap"
)

// Options controls code generation.
type Options struct {
	// Hoist enables moving index-chain descents out of loops. Results are
	// identical either way.
	Hoist bool
}

// DefaultOptions returns the options used by the registry.
func DefaultOptions() Options {
	return Options{Hoist: true}
}

// Routines is the compiled reader/writer pair of one recipe.
type Routines struct {
	Recipe *recipe.Recipe
	Reader *engine.Program
	Writer *engine.Program
}

var _ engine.Codec = (*Routines)(nil)

// Parse reads one section from in.
func (r *Routines) Parse(in *endfline.Reader, opts *parseopts.Options) (*resultmap.Map, error) {
	return r.Reader.Parse(in, opts)
}

// Write renders one section from data.
func (r *Routines) Write(data *resultmap.Map, opts *parseopts.Options) ([]string, error) {
	return r.Writer.Write(data, opts)
}

// Check runs name resolution and shape checks on rec without emitting
// code.
func Check(rec *recipe.Recipe) error {
	if _, err := newResolver(rec).body(rec.Body, nil); err != nil {
		return fmt.Errorf("compiling recipe %q: %w", rec.Name, err)
	}
	return nil
}

// Compile builds the routine pair for rec.
func Compile(ctx context.Context, rec *recipe.Recipe, opts Options) (*Routines, error) {
	logger := ctxlog.FromContext(ctx)

	res := newResolver(rec)
	body, err := res.body(rec.Body, nil)
	if err != nil {
		return nil, fmt.Errorf("compiling recipe %q: %w", rec.Name, err)
	}

	h := &hoister{}
	if opts.Hoist {
		h.walk(body)
	}

	out := &Routines{Recipe: rec}
	for _, writer := range []bool{false, true} {
		e := &emitter{writer: writer}
		e.nodes(body)
		prog := &engine.Program{
			Name:     rec.Name,
			Writer:   writer,
			TapeID:   rec.TapeID(),
			Code:     e.code,
			Vars:     res.vars,
			Sections: res.sections,
			NumPtrs:  h.numPtrs,
		}
		if writer {
			out.Writer = prog
		} else {
			out.Reader = prog
		}
	}

	logger.Debug("Compiled recipe.",
		"recipe", rec.Name,
		"mf", rec.MF,
		"vars", len(res.vars),
		"sections", len(res.sections),
		"instructions", len(out.Reader.Code),
		"hoisted", h.numPtrs,
	)
	return out, nil
}
