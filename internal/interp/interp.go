// Package interp runs a recipe by walking its tree directly. Names are
// resolved at run time through a stack of frames, there is no hoisting,
// and every record goes through the same engine.Runtime primitives as
// compiled routines, so both produce identical results.
package interp

import (
	"fmt"

	"github.com/vk/endfgo/internal/compiler"
	"github.com/vk/endfgo/internal/endfline"
	"github.com/vk/endfgo/internal/engine"
	"github.com/vk/endfgo/internal/parseopts"
	"github.com/vk/endfgo/internal/recipe"
	"github.com/vk/endfgo/internal/resultmap"
)

// Interpreter executes one recipe. It is immutable after New and may be
// shared between goroutines.
type Interpreter struct {
	rec  *recipe.Recipe
	expr map[recipe.Expr]engine.Expr
	tabs map[*recipe.Record]*engine.Tab
}

var _ engine.Codec = (*Interpreter)(nil)

// New checks rec and prepares it for interpretation.
func New(rec *recipe.Recipe) (*Interpreter, error) {
	if err := compiler.Check(rec); err != nil {
		return nil, err
	}
	it := &Interpreter{rec: rec, expr: map[recipe.Expr]engine.Expr{}, tabs: map[*recipe.Record]*engine.Tab{}}
	it.prepare(rec.Body)
	return it, nil
}

// Parse reads one section of rec from lines.
func Parse(rec *recipe.Recipe, lines []string, opts *parseopts.Options) (*resultmap.Map, error) {
	it, err := New(rec)
	if err != nil {
		return nil, err
	}
	return it.Parse(endfline.FromLines(lines), opts)
}

// Write renders one section of rec from data.
func Write(rec *recipe.Recipe, data *resultmap.Map, opts *parseopts.Options) ([]string, error) {
	it, err := New(rec)
	if err != nil {
		return nil, err
	}
	return it.Write(data, opts)
}

// prepare converts every expression once so runs do not allocate them.
func (it *Interpreter) prepare(nodes []recipe.Node) {
	for _, n := range nodes {
		switch x := n.(type) {
		case *recipe.Record:
			for _, e := range x.Ctl {
				it.conv(e)
			}
			for _, e := range x.Fields {
				it.conv(e)
			}
			for _, e := range x.TableIndices {
				it.conv(e)
			}
			it.prepareItems(x.Items)
			if x.Kind == recipe.TAB1 || x.Kind == recipe.TAB2 {
				tab := &engine.Tab{Kind: x.Kind, NBT: named("NBT"), INT: named("INT")}
				if x.Kind == recipe.TAB1 {
					tab.X, tab.Y = named(x.X), named(x.Y)
				}
				it.tabs[x] = tab
			}
		case *recipe.Loop:
			it.conv(x.From)
			it.conv(x.To)
			it.prepare(x.Body)
		case *recipe.If:
			it.conv(x.Cond)
			it.prepare(x.Then)
			it.prepare(x.Else)
		case *recipe.Section:
			for _, e := range x.Indices {
				it.conv(e)
			}
			it.prepare(x.Body)
		}
	}
}

func (it *Interpreter) prepareItems(items []recipe.ListItem) {
	for _, item := range items {
		switch x := item.(type) {
		case *recipe.ListValue:
			it.conv(x.Expr)
		case *recipe.ListLoop:
			it.conv(x.From)
			it.conv(x.To)
			it.prepareItems(x.Body)
		}
	}
}

func (it *Interpreter) conv(e recipe.Expr) engine.Expr {
	if e == nil {
		return nil
	}
	if c, ok := it.expr[e]; ok {
		return c
	}
	c := engine.FromRecipe(e)
	it.expr[e] = c
	return c
}

func named(name string) *engine.Ref {
	return &engine.Ref{Name: name, ID: -1}
}

// Parse reads one section from in.
func (it *Interpreter) Parse(in *endfline.Reader, opts *parseopts.Options) (*resultmap.Map, error) {
	if opts == nil {
		opts = parseopts.Default()
	}
	root := resultmap.New()
	r := newRun(it)
	r.rt = engine.NewReadRuntime(r, in, opts, root, it.rec.TapeID())
	if err := r.exec(); err != nil {
		return nil, fmt.Errorf("%s: %w", it.rec.Name, err)
	}
	return root, nil
}

// Write renders one section from data.
func (it *Interpreter) Write(data *resultmap.Map, opts *parseopts.Options) ([]string, error) {
	if opts == nil {
		opts = parseopts.Default()
	}
	r := newRun(it)
	r.rt = engine.NewWriteRuntime(r, opts, data, it.rec.TapeID())
	if err := r.exec(); err != nil {
		return nil, fmt.Errorf("%s: %w", it.rec.Name, err)
	}
	return r.rt.Lines(), nil
}
