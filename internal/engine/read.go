package engine

import (
	"errors"
	"fmt"

	"github.com/vk/endfgo/internal/endferr"
	"github.com/vk/endfgo/internal/endfline"
	"github.com/vk/endfgo/internal/recipe"
)

// ReadLine advances to the next input line. The MAT and MF of the first
// line are remembered for validating the closing SEND record.
func (rt *Runtime) ReadLine(kind recipe.RecordKind) error {
	line, err := rt.in.Next()
	if err != nil {
		return rt.eof(err, kind.String())
	}
	rt.line = line
	if !rt.sawFirstLine {
		rt.sawFirstLine = true
		mat, mf, _, err := endfline.Ctl(line)
		if err != nil {
			return err
		}
		rt.secMAT, rt.secMF = mat, mf
	}
	return nil
}

// ReadSlot decodes one field of the current line and binds it to the slot
// expression.
func (rt *Runtime) ReadSlot(s Slot, cur *Cursor) error {
	if s.Expr == nil {
		return nil
	}
	val, err := rt.decode(s)
	if err != nil {
		return err
	}
	return rt.bind(s.Kind, s.Expr, cur, val)
}

func (rt *Runtime) decode(s Slot) (any, error) {
	switch s.Kind {
	case FloatField:
		v, err := endfline.FloatField(rt.line, s.Pos, rt.opts.AcceptSpaces)
		return v, err
	case IntField:
		v, err := endfline.IntField(rt.line, s.Pos)
		return v, err
	case TextField:
		return trimRight(endfline.Text(rt.line)), nil
	case CtlField:
		sp := ctlSpan[s.Pos]
		v, err := endfline.CustomIntField(rt.line, sp[0], sp[1])
		return v, err
	default:
		return nil, fmt.Errorf("engine: unknown field kind %v", s.Kind)
	}
}

// bind applies a decoded value to an expression. Literals are validated,
// variables are assigned on first read and validated afterwards, and other
// expressions are validated or, when they reference exactly one unread
// variable linearly, solved for it.
func (rt *Runtime) bind(kind FieldKind, e Expr, cur *Cursor, val any) error {
	switch x := e.(type) {
	case *Const:
		var want any = x.Value
		if kind == IntField || kind == CtlField {
			want = int(x.Value)
		}
		return endfline.ValidateField(x.String(), endferr.NumberMismatch, want, val, rt.line, rt.opts)
	case *Ref:
		return rt.bindRef(x, cur, val)
	}
	if kind == TextField {
		return &endferr.EvalError{Expr: e.String(), Reason: "a text field can only be bound to a variable", Line: rt.line}
	}
	want, err := Eval(rt.env, e)
	if err == nil {
		if kind == IntField || kind == CtlField {
			if n, ok := integral(want); ok {
				return endfline.ValidateField(e.String(), endferr.VarspecMismatch, n, val, rt.line, rt.opts)
			}
		}
		return endfline.ValidateField(e.String(), endferr.VarspecMismatch, want, val, rt.line, rt.opts)
	}
	var ue *unreadError
	if !errors.As(err, &ue) {
		return rt.evalErr(err)
	}
	f, _ := endfline.ToFloat(val)
	ref, x, err := solve(rt.env, e, f)
	if err != nil {
		return rt.evalErr(err)
	}
	var solved any = x
	if kind == IntField || kind == CtlField {
		n, ok := integral(x)
		if !ok {
			return &endferr.EvalError{Expr: e.String(), Reason: fmt.Sprintf("solving for %s gives non-integer %g", ref, x), Line: rt.line}
		}
		solved = n
	}
	return rt.bindRef(ref, nil, solved)
}

func (rt *Runtime) bindRef(r *Ref, cur *Cursor, val any) error {
	b, err := rt.lookupOrDeclare(r)
	if err != nil {
		return err
	}
	if b.Counter {
		return endfline.ValidateField(r.Name, endferr.VarspecMismatch, b.Count, val, rt.line, rt.opts)
	}
	v := b.Var
	if v.Arity() == 0 {
		if stored, ok := v.Value(); ok {
			return rt.check(r.Name, stored, val)
		}
		return v.Assign(val)
	}
	idx, err := Indices(rt.env, r)
	if err != nil {
		return rt.evalErr(err)
	}
	h, err := descend(v, idx, cur)
	if err != nil {
		return &endferr.EvalError{Expr: cellName(r.Name, idx), Reason: err.Error(), Line: rt.line}
	}
	last := idx[len(idx)-1]
	if stored, ok := h.Get(last); ok {
		return rt.check(cellName(r.Name, idx), stored, val)
	}
	if err := h.Set(last, val); err != nil {
		return &endferr.EvalError{Expr: cellName(r.Name, idx), Reason: err.Error(), Line: rt.line}
	}
	return nil
}

// check validates a re-read value against the stored one.
func (rt *Runtime) check(quantity string, stored, val any) error {
	_, s1 := toFloats(stored)
	_, s2 := toFloats(val)
	if !s1 && !s2 {
		return endfline.ValidateField(quantity, endferr.VarspecMismatch, stored, val, rt.line, rt.opts)
	}
	if sliceEqual(stored, val) || rt.opts.IgnoreVarspecMismatch {
		return nil
	}
	return &endferr.MismatchError{Kind: endferr.VarspecMismatch, Quantity: quantity, Expected: stored, Actual: val, Line: rt.line}
}

// ReadTab reads the interpolation table announced by the current header
// line: NR pairs of integers and, for TAB1, NP pairs of floats, six values
// per line.
func (rt *Runtime) ReadTab(t *Tab) error {
	nr, err := endfline.IntField(rt.line, 4)
	if err != nil {
		return err
	}
	np := 0
	if t.Kind == recipe.TAB1 {
		if np, err = endfline.IntField(rt.line, 5); err != nil {
			return err
		}
	}
	if nr < 0 || np < 0 {
		return &endferr.MismatchError{Kind: endferr.NumberMismatch, Quantity: "NR/NP", Expected: ">= 0", Actual: fmt.Sprintf("%d/%d", nr, np), Line: rt.line}
	}
	ints, err := rt.readInts(2 * nr)
	if err != nil {
		return err
	}
	nbt, in := make([]int, nr), make([]int, nr)
	for i := range nr {
		nbt[i], in[i] = ints[2*i], ints[2*i+1]
	}
	if err := rt.bindRef(t.NBT, nil, nbt); err != nil {
		return err
	}
	if err := rt.bindRef(t.INT, nil, in); err != nil {
		return err
	}
	if t.Kind != recipe.TAB1 {
		return nil
	}
	vals, err := rt.readFloats(2 * np)
	if err != nil {
		return err
	}
	xs, ys := make([]float64, np), make([]float64, np)
	for i := range np {
		xs[i], ys[i] = vals[2*i], vals[2*i+1]
	}
	if err := rt.bindRef(t.X, nil, xs); err != nil {
		return err
	}
	return rt.bindRef(t.Y, nil, ys)
}

func (rt *Runtime) readInts(n int) ([]int, error) {
	out := make([]int, 0, n)
	for len(out) < n {
		if err := rt.ReadLine(recipe.TAB1); err != nil {
			return nil, err
		}
		for pos := 0; pos < endfline.NumFields && len(out) < n; pos++ {
			v, err := endfline.IntField(rt.line, pos)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}

func (rt *Runtime) readFloats(n int) ([]float64, error) {
	out := make([]float64, 0, n)
	for len(out) < n {
		if err := rt.ReadLine(recipe.LIST); err != nil {
			return nil, err
		}
		for pos := 0; pos < endfline.NumFields && len(out) < n; pos++ {
			v, err := endfline.FloatField(rt.line, pos, rt.opts.AcceptSpaces)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}

// BeginList reads the NPL values announced in field 4 of the current
// header line.
func (rt *Runtime) BeginList() error {
	if rt.writing {
		rt.values = rt.values[:0]
		return nil
	}
	npl, err := endfline.IntField(rt.line, 4)
	if err != nil {
		return err
	}
	if npl < 0 {
		return &endferr.MismatchError{Kind: endferr.NumberMismatch, Quantity: "NPL", Expected: ">= 0", Actual: npl, Line: rt.line}
	}
	if rt.list, err = rt.readFloats(npl); err != nil {
		return err
	}
	rt.listPos = 0
	return nil
}

// ListItem consumes the next list value into e, or appends e's value when
// writing.
func (rt *Runtime) ListItem(e Expr, cur *Cursor) error {
	if rt.writing {
		return rt.collect(e)
	}
	if rt.listPos >= len(rt.list) {
		return &endferr.MismatchError{Kind: endferr.NumberMismatch, Quantity: "NPL", Expected: fmt.Sprintf("more than %d values", len(rt.list)), Actual: len(rt.list), Line: rt.line}
	}
	val := rt.list[rt.listPos]
	rt.listPos++
	return rt.bind(FloatField, e, cur, val)
}

// EndList checks that the recipe consumed exactly NPL values, or renders
// the collected values when writing.
func (rt *Runtime) EndList() error {
	if rt.writing {
		return rt.emitList()
	}
	if rt.listPos != len(rt.list) {
		return endfline.ValidateField("NPL", endferr.NumberMismatch, rt.listPos, len(rt.list), rt.line, rt.opts)
	}
	return nil
}
