package interp

import (
	"github.com/vk/endfgo/internal/engine"
	"github.com/vk/endfgo/internal/indexchain"
	"github.com/vk/endfgo/internal/recipe"
	"github.com/vk/endfgo/internal/resultmap"
)

type varKey struct {
	name  string
	arity int
}

// frame is a section or a loop on the dynamic scope stack.
type frame struct {
	parent *frame

	section   bool
	name      string
	vars      map[varKey]*indexchain.Var
	owned     []*indexchain.Var
	mandatory []*indexchain.Var

	counter string
	count   int
}

type run struct {
	it     *Interpreter
	rt     *engine.Runtime
	arena  *indexchain.Arena
	top    *frame
	nested int
}

func newRun(it *Interpreter) *run {
	return &run{
		it:    it,
		arena: indexchain.NewArena(),
		top:   &frame{section: true, name: it.rec.Name, vars: map[varKey]*indexchain.Var{}},
	}
}

func (r *run) Lookup(ref *engine.Ref) (engine.Binding, bool) {
	key := varKey{ref.Name, len(ref.Indices)}
	for f := r.top; f != nil; f = f.parent {
		if !f.section {
			if key.arity == 0 && f.counter == ref.Name {
				return engine.Binding{Counter: true, Count: f.count}, true
			}
			continue
		}
		if v, ok := f.vars[key]; ok {
			return engine.Binding{Var: v}, true
		}
	}
	if r.rt.Writing() {
		// Writers see every value of the current mapping, declared or not.
		v, err := r.Declare(ref)
		if err == nil {
			return engine.Binding{Var: v}, true
		}
	}
	return engine.Binding{}, false
}

// Declare creates ref in the innermost section. Writers load its values
// from the current mapping.
func (r *run) Declare(ref *engine.Ref) (*indexchain.Var, error) {
	f := r.top
	for !f.section {
		f = f.parent
	}
	v := r.arena.NewVar(ref.Name, len(ref.Indices))
	f.vars[varKey{ref.Name, len(ref.Indices)}] = v
	f.owned = append(f.owned, v)
	if r.nested == 0 {
		f.mandatory = append(f.mandatory, v)
	}
	if r.rt.Writing() {
		if err := resultmap.Load(r.rt.Current(), v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (r *run) exec() error {
	if err := r.rt.Begin(nil); err != nil {
		return err
	}
	if err := r.nodes(r.it.rec.Body); err != nil {
		return r.rt.Annotate(err)
	}
	return r.rt.Finish(r.top.name, r.top.owned, r.top.mandatory)
}

func (r *run) nodes(nodes []recipe.Node) error {
	for _, n := range nodes {
		if err := r.node(n); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) node(n recipe.Node) error {
	switch x := n.(type) {
	case *recipe.Record:
		return r.record(x)
	case *recipe.Send:
		return r.rt.Send()
	case *recipe.Loop:
		return r.loop(x.Counter, x.From, x.To, func() error { return r.nodes(x.Body) })
	case *recipe.If:
		ok, err := engine.EvalBool(r, r.it.conv(x.Cond))
		if err != nil {
			return err
		}
		r.nested++
		defer func() { r.nested-- }()
		if ok {
			return r.nodes(x.Then)
		}
		return r.nodes(x.Else)
	case *recipe.Section:
		return r.section(x.Name, x.Indices, func() error { return r.nodes(x.Body) })
	}
	return nil
}

func (r *run) loop(counter string, from, to recipe.Expr, body func() error) error {
	lo, err := engine.EvalInt(r, r.it.conv(from))
	if err != nil {
		return err
	}
	hi, err := engine.EvalInt(r, r.it.conv(to))
	if err != nil {
		return err
	}
	f := &frame{parent: r.top, counter: counter}
	r.top = f
	r.nested++
	defer func() { r.top = f.parent; r.nested-- }()
	for f.count = lo; f.count <= hi; f.count++ {
		if err := body(); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) section(name string, indices []recipe.Expr, body func() error) error {
	idx := make([]engine.Expr, len(indices))
	for i, e := range indices {
		idx[i] = r.it.conv(e)
	}
	if err := r.rt.OpenSection(name, idx, nil); err != nil {
		return err
	}
	f := &frame{parent: r.top, section: true, name: name, vars: map[varKey]*indexchain.Var{}}
	saved := r.nested
	r.top, r.nested = f, 0
	defer func() { r.top, r.nested = f.parent, saved }()
	if err := body(); err != nil {
		return err
	}
	return r.rt.CloseSection(name, f.owned, f.mandatory)
}

func (r *run) record(rec *recipe.Record) error {
	if err := r.rt.BeginLine(rec.Kind); err != nil {
		return err
	}
	for pos, e := range rec.Ctl {
		if err := r.rt.Slot(engine.Slot{Kind: engine.CtlField, Pos: pos, Expr: r.it.conv(e)}, nil); err != nil {
			return err
		}
	}
	for pos, e := range rec.Fields {
		if e == nil {
			continue
		}
		if err := r.rt.Slot(engine.Slot{Kind: engine.FieldKindOf(rec.Kind, pos), Pos: pos, Expr: r.it.conv(e)}, nil); err != nil {
			return err
		}
	}
	switch rec.Kind {
	case recipe.LIST:
		if err := r.rt.BeginList(); err != nil {
			return err
		}
		if err := r.items(rec.Items); err != nil {
			return err
		}
		return r.rt.EndList()
	case recipe.TAB1, recipe.TAB2:
		tab := r.it.tabs[rec]
		if rec.Table == "" {
			return r.rt.Tab(tab)
		}
		return r.section(rec.Table, rec.TableIndices, func() error { return r.rt.Tab(tab) })
	default:
		return r.rt.EmitLine()
	}
}

func (r *run) items(items []recipe.ListItem) error {
	for _, item := range items {
		switch x := item.(type) {
		case *recipe.ListValue:
			if err := r.rt.ListItem(r.it.conv(x.Expr), nil); err != nil {
				return err
			}
		case *recipe.ListLoop:
			if err := r.loop(x.Counter, x.From, x.To, func() error { return r.items(x.Body) }); err != nil {
				return err
			}
		}
	}
	return nil
}
