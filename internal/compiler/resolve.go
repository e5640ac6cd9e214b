package compiler

import (
	"fmt"

	"github.com/vk/endfgo/internal/endferr"
	"github.com/vk/endfgo/internal/engine"
	"github.com/vk/endfgo/internal/recipe"
)

// The resolve pass lowers a recipe into a tree whose references carry
// variable IDs. Every identifier is bound here, so undeclared index
// variables are reported before anything is emitted.

type lnode interface{ lnode() }

type lrecord struct {
	kind   recipe.RecordKind
	slots  []engine.Slot
	ptrs   []int // register per slot, filled by the hoisting pass
	items  []litem
	tab    *engine.Tab
	table  int // section of a labelled table, 0 when unlabelled
	parent lnode
}

type lloop struct {
	counter  int
	from, to engine.Expr
	body     []lnode
	parent   lnode
	prepares []engine.Instr
}

type lif struct {
	cond      engine.Expr
	then, els []lnode
	parent    lnode
}

type lsection struct {
	id     int
	body   []lnode
	parent lnode
}

type lsend struct{}

func (*lrecord) lnode()  {}
func (*lloop) lnode()    {}
func (*lif) lnode()      {}
func (*lsection) lnode() {}
func (*lsend) lnode()    {}

type litem interface{ litem() }

type litemValue struct{ expr engine.Expr }

type litemLoop struct {
	counter  int
	from, to engine.Expr
	body     []litem
}

func (*litemValue) litem() {}
func (*litemLoop) litem()  {}

type varKey struct {
	name  string
	arity int
}

type scope struct {
	parent  *scope
	section int // -1 for a loop scope
	names   map[varKey]int
}

type resolver struct {
	recipe   string
	vars     []engine.VarInfo
	sections []engine.SectionInfo
	scope    *scope
	nested   int // loops and conditionals entered since the innermost section
}

func newResolver(r *recipe.Recipe) *resolver {
	res := &resolver{recipe: r.Name}
	res.sections = append(res.sections, engine.SectionInfo{Name: r.Name})
	res.scope = &scope{section: 0, names: map[varKey]int{}}
	return res
}

func (r *resolver) lookup(name string, arity int) (int, bool) {
	for s := r.scope; s != nil; s = s.parent {
		if id, ok := s.names[varKey{name, arity}]; ok {
			return id, true
		}
	}
	return 0, false
}

// declare adds a variable to the innermost section scope.
func (r *resolver) declare(name string, arity int) int {
	s := r.scope
	for s.section < 0 {
		s = s.parent
	}
	id := len(r.vars)
	r.vars = append(r.vars, engine.VarInfo{Name: name, Arity: arity, Section: s.section, Mandatory: r.nested == 0})
	s.names[varKey{name, arity}] = id
	sec := &r.sections[s.section]
	sec.Owned = append(sec.Owned, id)
	if r.nested == 0 {
		sec.Mandatory = append(sec.Mandatory, id)
	}
	return id
}

func (r *resolver) pushLoop(counter string) int {
	id := len(r.vars)
	r.vars = append(r.vars, engine.VarInfo{Name: counter, Counter: true, Section: -1})
	r.scope = &scope{parent: r.scope, section: -1, names: map[varKey]int{{counter, 0}: id}}
	r.nested++
	return id
}

func (r *resolver) pushSection(name string, indices []engine.Expr) int {
	id := len(r.sections)
	r.sections = append(r.sections, engine.SectionInfo{Name: name, Indices: indices})
	r.scope = &scope{parent: r.scope, section: id, names: map[varKey]int{}}
	return id
}

// pop leaves a loop or section scope. The nesting counter of the enclosing
// section is restored by the caller.
func (r *resolver) pop() {
	if r.scope.section < 0 {
		r.nested--
	}
	r.scope = r.scope.parent
}

// use converts an expression whose references must all be visible.
func (r *resolver) use(e recipe.Expr, context string) (engine.Expr, error) {
	switch x := e.(type) {
	case nil:
		return nil, nil
	case *recipe.Num:
		return &engine.Const{Value: x.Value, Int: x.Int}, nil
	case *recipe.VarRef:
		id, ok := r.lookup(x.Name, x.Arity())
		if !ok {
			return nil, &endferr.UndeclaredVariableError{Variable: x.Name, Context: context, Recipe: r.recipe}
		}
		return r.ref(x, id, context)
	case *recipe.Binary:
		l, err := r.use(x.L, context)
		if err != nil {
			return nil, err
		}
		rr, err := r.use(x.R, context)
		if err != nil {
			return nil, err
		}
		return &engine.Binary{Op: x.Op, L: l, R: rr}, nil
	case *recipe.Unary:
		inner, err := r.use(x.X, context)
		if err != nil {
			return nil, err
		}
		return &engine.Unary{Op: x.Op, X: inner}, nil
	default:
		return nil, fmt.Errorf("compiler: unknown expression %T", e)
	}
}

func (r *resolver) ref(x *recipe.VarRef, id int, context string) (*engine.Ref, error) {
	ref := &engine.Ref{Name: x.Name, ID: id}
	for _, idx := range x.Indices {
		ie, err := r.use(idx, context)
		if err != nil {
			return nil, err
		}
		ref.Indices = append(ref.Indices, ie)
	}
	return ref, nil
}

// bind converts a slot expression. Variables that are not visible yet are
// declared, since reading the slot assigns them; index expressions must
// still resolve.
func (r *resolver) bind(e recipe.Expr) (engine.Expr, error) {
	switch x := e.(type) {
	case *recipe.VarRef:
		id, ok := r.lookup(x.Name, x.Arity())
		if !ok {
			// Indices are resolved before the variable is declared so a
			// self-reference such as a[a] is rejected.
			if _, err := r.ref(x, 0, x.String()); err != nil {
				return nil, err
			}
			id = r.declare(x.Name, x.Arity())
		}
		return r.ref(x, id, x.String())
	case *recipe.Binary:
		l, err := r.bind(x.L)
		if err != nil {
			return nil, err
		}
		rr, err := r.bind(x.R)
		if err != nil {
			return nil, err
		}
		return &engine.Binary{Op: x.Op, L: l, R: rr}, nil
	case *recipe.Unary:
		inner, err := r.bind(x.X)
		if err != nil {
			return nil, err
		}
		return &engine.Unary{Op: x.Op, X: inner}, nil
	default:
		return r.use(e, "")
	}
}

func (r *resolver) scalar(name string) *engine.Ref {
	id, ok := r.lookup(name, 0)
	if !ok {
		id = r.declare(name, 0)
	}
	return &engine.Ref{Name: name, ID: id}
}

func (r *resolver) body(nodes []recipe.Node, parent lnode) ([]lnode, error) {
	out := make([]lnode, 0, len(nodes))
	for _, n := range nodes {
		ln, err := r.node(n, parent)
		if err != nil {
			return nil, err
		}
		out = append(out, ln)
	}
	return out, nil
}

func (r *resolver) node(n recipe.Node, parent lnode) (lnode, error) {
	switch x := n.(type) {
	case *recipe.Record:
		return r.record(x, parent)
	case *recipe.Send:
		return &lsend{}, nil
	case *recipe.Loop:
		from, err := r.use(x.From, "loop bound of "+x.Counter)
		if err != nil {
			return nil, err
		}
		to, err := r.use(x.To, "loop bound of "+x.Counter)
		if err != nil {
			return nil, err
		}
		l := &lloop{counter: r.pushLoop(x.Counter), from: from, to: to, parent: parent}
		defer r.pop()
		if l.body, err = r.body(x.Body, l); err != nil {
			return nil, err
		}
		return l, nil
	case *recipe.If:
		cond, err := r.use(x.Cond, "condition")
		if err != nil {
			return nil, err
		}
		li := &lif{cond: cond, parent: parent}
		r.nested++
		defer func() { r.nested-- }()
		if li.then, err = r.body(x.Then, li); err != nil {
			return nil, err
		}
		if li.els, err = r.body(x.Else, li); err != nil {
			return nil, err
		}
		return li, nil
	case *recipe.Section:
		indices, err := r.indices(x.Indices, "section "+x.Name)
		if err != nil {
			return nil, err
		}
		ls := &lsection{parent: parent}
		saved := r.nested
		r.nested = 0
		ls.id = r.pushSection(x.Name, indices)
		defer func() { r.pop(); r.nested = saved }()
		if ls.body, err = r.body(x.Body, ls); err != nil {
			return nil, err
		}
		return ls, nil
	default:
		return nil, fmt.Errorf("compiler: unknown node %T", n)
	}
}

func (r *resolver) indices(exprs []recipe.Expr, context string) ([]engine.Expr, error) {
	out := make([]engine.Expr, 0, len(exprs))
	for _, e := range exprs {
		ie, err := r.use(e, context)
		if err != nil {
			return nil, err
		}
		out = append(out, ie)
	}
	return out, nil
}

func (r *resolver) record(rec *recipe.Record, parent lnode) (*lrecord, error) {
	if err := checkShape(rec); err != nil {
		return nil, err
	}
	lr := &lrecord{kind: rec.Kind, parent: parent}
	for pos, e := range rec.Ctl {
		ce, err := r.bind(e)
		if err != nil {
			return nil, err
		}
		lr.slots = append(lr.slots, engine.Slot{Kind: engine.CtlField, Pos: pos, Expr: ce})
	}
	for pos, e := range rec.Fields {
		if e == nil {
			continue
		}
		fe, err := r.bind(e)
		if err != nil {
			return nil, err
		}
		lr.slots = append(lr.slots, engine.Slot{Kind: engine.FieldKindOf(rec.Kind, pos), Pos: pos, Expr: fe})
	}
	lr.ptrs = make([]int, len(lr.slots))
	switch rec.Kind {
	case recipe.LIST:
		items, err := r.items(rec.Items)
		if err != nil {
			return nil, err
		}
		lr.items = items
	case recipe.TAB1, recipe.TAB2:
		if rec.Table != "" {
			indices, err := r.indices(rec.TableIndices, "table "+rec.Table)
			if err != nil {
				return nil, err
			}
			saved := r.nested
			r.nested = 0
			lr.table = r.pushSection(rec.Table, indices)
			defer func() { r.pop(); r.nested = saved }()
		}
		lr.tab = &engine.Tab{Kind: rec.Kind, NBT: r.scalar("NBT"), INT: r.scalar("INT")}
		if rec.Kind == recipe.TAB1 {
			lr.tab.X, lr.tab.Y = r.scalar(rec.X), r.scalar(rec.Y)
		}
	}
	return lr, nil
}

func (r *resolver) items(items []recipe.ListItem) ([]litem, error) {
	out := make([]litem, 0, len(items))
	for _, it := range items {
		switch x := it.(type) {
		case *recipe.ListValue:
			e, err := r.bind(x.Expr)
			if err != nil {
				return nil, err
			}
			out = append(out, &litemValue{expr: e})
		case *recipe.ListLoop:
			from, err := r.use(x.From, "loop bound of "+x.Counter)
			if err != nil {
				return nil, err
			}
			to, err := r.use(x.To, "loop bound of "+x.Counter)
			if err != nil {
				return nil, err
			}
			ll := &litemLoop{counter: r.pushLoop(x.Counter), from: from, to: to}
			body, err := r.items(x.Body)
			r.pop()
			if err != nil {
				return nil, err
			}
			ll.body = body
			out = append(out, ll)
		default:
			return nil, fmt.Errorf("compiler: unknown list item %T", it)
		}
	}
	return out, nil
}

// checkShape rejects records whose derived fields are bound or whose body
// does not fit the record kind.
func checkShape(rec *recipe.Record) error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("compiler: %s record at %s: %s", rec.Kind, rec.Pos, fmt.Sprintf(format, args...))
	}
	switch rec.Kind {
	case recipe.TEXT:
		for pos := 1; pos < len(rec.Fields); pos++ {
			if rec.Fields[pos] != nil {
				return bad("only the text slot may be bound")
			}
		}
	case recipe.TAB1:
		if rec.Fields[4] != nil || rec.Fields[5] != nil {
			return bad("NR and NP are derived from the table")
		}
		if rec.X == "" || rec.Y == "" {
			return bad("x and y names are required")
		}
	case recipe.TAB2:
		if rec.Fields[4] != nil {
			return bad("NR is derived from the table")
		}
	case recipe.DIR:
		if rec.Fields[0] != nil || rec.Fields[1] != nil {
			return bad("fields 0 and 1 are blank")
		}
	}
	if rec.Kind != recipe.LIST && len(rec.Items) > 0 {
		return bad("only LIST records take items")
	}
	if rec.Kind != recipe.TAB1 && rec.Kind != recipe.TAB2 && rec.Table != "" {
		return bad("only TAB records can be labelled")
	}
	return nil
}
