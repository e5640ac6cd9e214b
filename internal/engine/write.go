package engine

import (
	"errors"
	"fmt"

	"github.com/vk/endfgo/internal/endferr"
	"github.com/vk/endfgo/internal/endfline"
	"github.com/vk/endfgo/internal/recipe"
)

// BeginLine starts a record: readers consume the next line, writers clear
// the field buffer. The control columns carry over from the previous
// record until a slot sets them.
func (rt *Runtime) BeginLine(kind recipe.RecordKind) error {
	if !rt.writing {
		return rt.ReadLine(kind)
	}
	rt.fields = [endfline.NumFields]string{}
	rt.text, rt.textLine = "", kind == recipe.TEXT
	return nil
}

// Slot reads or renders one field.
func (rt *Runtime) Slot(s Slot, cur *Cursor) error {
	if !rt.writing {
		return rt.ReadSlot(s, cur)
	}
	return rt.WriteSlot(s, cur)
}

// WriteSlot renders the value of the slot expression into the field
// buffer. A variable without a stored value leaves the field blank.
func (rt *Runtime) WriteSlot(s Slot, cur *Cursor) error {
	if s.Expr == nil {
		if s.Kind == CtlField {
			rt.ctl[s.Pos] = 0
		}
		return nil
	}
	val, ok, err := rt.value(s.Expr, cur)
	if err != nil || !ok {
		return err
	}
	switch s.Kind {
	case FloatField:
		f, ok := endfline.ToFloat(val)
		if !ok {
			return rt.typeErr(s.Expr, "a number", val)
		}
		enc, err := endfline.EncodeFloat(f)
		if err != nil {
			return rt.encodeErr(s.Expr, err)
		}
		rt.fields[s.Pos] = enc
	case IntField, CtlField:
		n, ok := toInt(val)
		if !ok {
			return rt.typeErr(s.Expr, "an integer", val)
		}
		if s.Kind == CtlField {
			rt.ctl[s.Pos] = n
			return nil
		}
		enc, err := endfline.EncodeInt(n)
		if err != nil {
			return rt.encodeErr(s.Expr, err)
		}
		rt.fields[s.Pos] = enc
	case TextField:
		str, ok := val.(string)
		if !ok {
			return rt.typeErr(s.Expr, "text", val)
		}
		rt.text = str
	}
	return nil
}

// value resolves e against the loaded variables. ok is false when e
// depends on a variable that holds no value.
func (rt *Runtime) value(e Expr, cur *Cursor) (any, bool, error) {
	switch x := e.(type) {
	case *Const:
		if x.Int {
			return int(x.Value), true, nil
		}
		return x.Value, true, nil
	case *Ref:
		val, err := rt.refValue(x, cur)
		var ue *unreadError
		if errors.As(err, &ue) {
			return nil, false, nil
		}
		return val, err == nil, rt.evalErr(err)
	}
	f, err := Eval(rt.env, e)
	var ue *unreadError
	if errors.As(err, &ue) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, rt.evalErr(err)
	}
	return f, true, nil
}

// refValue looks r up, descending from cur when it is valid.
func (rt *Runtime) refValue(r *Ref, cur *Cursor) (any, error) {
	if cur == nil || !cur.Valid {
		return lookupValue(rt.env, r)
	}
	idx, err := Indices(rt.env, r)
	if err != nil {
		return nil, err
	}
	h := cur.Handle
	for _, i := range idx[cur.Skip : len(idx)-1] {
		var ok bool
		if h, ok = h.Child(i); !ok {
			return nil, &unreadError{ref: r, cell: cellName(r.Name, idx)}
		}
	}
	val, ok := h.Get(idx[len(idx)-1])
	if !ok {
		return nil, &unreadError{ref: r, cell: cellName(r.Name, idx)}
	}
	return val, nil
}

// EmitLine appends the buffered record to the output.
func (rt *Runtime) EmitLine() error {
	if !rt.writing {
		return nil
	}
	rt.out.SetControl(rt.ctl[0], rt.ctl[1], rt.ctl[2])
	if rt.textLine {
		return rt.out.Emit(endfline.EncodeText(rt.text))
	}
	return rt.out.EmitFields(rt.fields)
}

// Tab reads or renders a TAB1/TAB2 body. Writers emit the header line as
// well, with NR and NP derived from the stored lists.
func (rt *Runtime) Tab(t *Tab) error {
	if !rt.writing {
		return rt.ReadTab(t)
	}
	nbt, err := rt.intList(t.NBT)
	if err != nil {
		return err
	}
	in, err := rt.intList(t.INT)
	if err != nil {
		return err
	}
	if len(nbt) != len(in) {
		return &endferr.EvalError{Expr: t.NBT.Name + "/" + t.INT.Name, Reason: fmt.Sprintf("lengths differ (%d and %d)", len(nbt), len(in))}
	}
	var xs, ys []float64
	if t.Kind == recipe.TAB1 {
		if xs, err = rt.floatList(t.X); err != nil {
			return err
		}
		if ys, err = rt.floatList(t.Y); err != nil {
			return err
		}
		if len(xs) != len(ys) {
			return &endferr.EvalError{Expr: t.X.Name + "/" + t.Y.Name, Reason: fmt.Sprintf("lengths differ (%d and %d)", len(xs), len(ys))}
		}
	}
	if rt.fields[4], err = endfline.EncodeInt(len(nbt)); err != nil {
		return err
	}
	if t.Kind == recipe.TAB1 {
		if rt.fields[5], err = endfline.EncodeInt(len(xs)); err != nil {
			return err
		}
	}
	if err := rt.EmitLine(); err != nil {
		return err
	}
	ints := make([]int, 0, 2*len(nbt))
	for i := range nbt {
		ints = append(ints, nbt[i], in[i])
	}
	if err := rt.emitInts(ints); err != nil {
		return err
	}
	vals := make([]float64, 0, 2*len(xs))
	for i := range xs {
		vals = append(vals, xs[i], ys[i])
	}
	return rt.emitFloats(vals)
}

func (rt *Runtime) intList(r *Ref) ([]int, error) {
	val, ok, err := rt.value(r, nil)
	if err != nil || !ok {
		return nil, err
	}
	ints, ok := toInts(val)
	if !ok {
		return nil, rt.typeErr(r, "a list of integers", val)
	}
	return ints, nil
}

func (rt *Runtime) floatList(r *Ref) ([]float64, error) {
	val, ok, err := rt.value(r, nil)
	if err != nil || !ok {
		return nil, err
	}
	fs, ok := toFloats(val)
	if !ok {
		return nil, rt.typeErr(r, "a list of numbers", val)
	}
	return fs, nil
}

func (rt *Runtime) emitInts(vals []int) error {
	for start := 0; start < len(vals); start += endfline.NumFields {
		var fields [endfline.NumFields]string
		for i := 0; i < endfline.NumFields && start+i < len(vals); i++ {
			enc, err := endfline.EncodeInt(vals[start+i])
			if err != nil {
				return err
			}
			fields[i] = enc
		}
		if err := rt.out.EmitFields(fields); err != nil {
			return err
		}
	}
	return nil
}

func (rt *Runtime) emitFloats(vals []float64) error {
	for start := 0; start < len(vals); start += endfline.NumFields {
		var fields [endfline.NumFields]string
		for i := 0; i < endfline.NumFields && start+i < len(vals); i++ {
			enc, err := endfline.EncodeFloat(vals[start+i])
			if err != nil {
				return err
			}
			fields[i] = enc
		}
		if err := rt.out.EmitFields(fields); err != nil {
			return err
		}
	}
	return nil
}

// collect appends the value of one LIST item. A missing value is written
// as zero so that later items keep their positions.
func (rt *Runtime) collect(e Expr) error {
	val, ok, err := rt.value(e, nil)
	if err != nil {
		return err
	}
	if !ok {
		rt.values = append(rt.values, 0)
		return nil
	}
	f, isNum := endfline.ToFloat(val)
	if !isNum {
		return rt.typeErr(e, "a number", val)
	}
	rt.values = append(rt.values, f)
	return nil
}

func (rt *Runtime) emitList() error {
	var err error
	if rt.fields[4], err = endfline.EncodeInt(len(rt.values)); err != nil {
		return err
	}
	if err := rt.EmitLine(); err != nil {
		return err
	}
	return rt.emitFloats(rt.values)
}

func (rt *Runtime) typeErr(e Expr, want string, got any) error {
	return &endferr.EvalError{Expr: e.String(), Reason: fmt.Sprintf("expected %s, found %T", want, got)}
}

func (rt *Runtime) encodeErr(e Expr, err error) error {
	var ee *endferr.EncodeError
	if errors.As(err, &ee) {
		ee.Quantity = e.String()
	}
	return err
}
