package engine

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/vk/endfgo/internal/endferr"
	"github.com/vk/endfgo/internal/endfline"
	"github.com/vk/endfgo/internal/indexchain"
	"github.com/vk/endfgo/internal/parseopts"
	"github.com/vk/endfgo/internal/recipe"
	"github.com/vk/endfgo/internal/resultmap"
)

// FieldKind selects how a slot is decoded and encoded.
type FieldKind int

const (
	FloatField FieldKind = iota
	IntField
	TextField
	CtlField // Pos 0, 1, 2 select MAT, MF, MT
)

func (k FieldKind) String() string {
	switch k {
	case FloatField:
		return "float"
	case IntField:
		return "int"
	case TextField:
		return "text"
	case CtlField:
		return "ctl"
	default:
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
}

// FieldKindOf returns the kind of numeric field pos in a record of the
// given kind.
func FieldKindOf(kind recipe.RecordKind, pos int) FieldKind {
	switch {
	case kind == recipe.TEXT:
		return TextField
	case pos < 2:
		return FloatField
	default:
		return IntField
	}
}

var ctlSpan = [3][2]int{
	{endfline.MATStart, endfline.MATLen},
	{endfline.MFStart, endfline.MFLen},
	{endfline.MTStart, endfline.MTLen},
}

var ctlNames = [3]string{"MAT", "MF", "MT"}

// Slot is one field of a record together with the expression bound to it.
// A nil Expr is a blank column.
type Slot struct {
	Kind FieldKind
	Pos  int
	Expr Expr
}

func (s Slot) String() string {
	if s.Kind == CtlField {
		return ctlNames[s.Pos]
	}
	return fmt.Sprintf("%s field %d", s.Kind, s.Pos)
}

// Tab describes the body of a TAB1 or TAB2 record.
type Tab struct {
	Kind     recipe.RecordKind
	NBT, INT *Ref
	X, Y     *Ref // TAB1 only
}

// Cursor lets a slot start descending an indexed variable from an already
// prepared level instead of from its root. Skip is the number of leading
// indices the cursor has consumed.
type Cursor struct {
	Handle indexchain.Handle
	Skip   int
	Valid  bool
}

// Runtime carries the state of one parse or write invocation: the line
// stream, the result-mapping stack and the configuration. Compiled
// programs and the interpreter drive it through the same primitives.
type Runtime struct {
	opts    *parseopts.Options
	env     Env
	asm     *resultmap.Context
	in      *endfline.Reader
	out     *endfline.Writer
	writing bool
	tapeID  bool

	// reader
	line          string
	secMAT, secMF int
	sawFirstLine  bool
	list          []float64
	listPos       int

	// writer
	fields   [endfline.NumFields]string
	text     string
	textLine bool
	ctl      [3]int
	values   []float64
}

// NewReadRuntime prepares a reader that assembles into root.
func NewReadRuntime(env Env, in *endfline.Reader, opts *parseopts.Options, root *resultmap.Map, tapeID bool) *Runtime {
	return &Runtime{opts: opts, env: env, asm: resultmap.NewContext(root), in: in, tapeID: tapeID}
}

// NewWriteRuntime prepares a writer that renders values found in root.
func NewWriteRuntime(env Env, opts *parseopts.Options, root *resultmap.Map, tapeID bool) *Runtime {
	return &Runtime{opts: opts, env: env, asm: resultmap.NewContext(root), out: endfline.NewWriter(), writing: true, tapeID: tapeID}
}

// Writing reports whether the runtime renders lines.
func (rt *Runtime) Writing() bool { return rt.writing }

// Lines returns the lines written so far.
func (rt *Runtime) Lines() []string {
	return rt.out.Lines()
}

// Current returns the mapping of the innermost open section.
func (rt *Runtime) Current() *resultmap.Map {
	return rt.asm.Current()
}

// Begin starts the outermost section. Writers load its variables.
func (rt *Runtime) Begin(owned []*indexchain.Var) error {
	return rt.enterVars(owned)
}

// Finish ends the outermost section. Readers extract its variables.
func (rt *Runtime) Finish(name string, owned, mandatory []*indexchain.Var) error {
	return rt.leaveVars(name, owned, mandatory)
}

// OpenSection descends into name and its evaluated indices and starts the
// section's own variables afresh.
func (rt *Runtime) OpenSection(name string, indices []Expr, owned []*indexchain.Var) error {
	idx := make([]int, len(indices))
	for i, e := range indices {
		n, err := EvalInt(rt.env, e)
		if err != nil {
			return rt.evalErr(err)
		}
		idx[i] = n
	}
	if rt.writing {
		rt.asm.Enter(name, idx...)
	} else if _, err := rt.asm.Open(name, idx...); err != nil {
		return err
	}
	return rt.enterVars(owned)
}

// CloseSection ends the innermost section.
func (rt *Runtime) CloseSection(name string, owned, mandatory []*indexchain.Var) error {
	if err := rt.leaveVars(name, owned, mandatory); err != nil {
		return err
	}
	return rt.asm.Close()
}

func (rt *Runtime) enterVars(owned []*indexchain.Var) error {
	for _, v := range owned {
		v.Reset()
		if rt.writing {
			if err := resultmap.Load(rt.asm.Current(), v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (rt *Runtime) leaveVars(name string, owned, mandatory []*indexchain.Var) error {
	if rt.opts.StrictCompleteness {
		var missing []string
		for _, v := range mandatory {
			if !v.DidRead() {
				missing = append(missing, v.Name())
			}
		}
		if len(missing) > 0 {
			if name == "" {
				name = "(root)"
			}
			return &endferr.IncompletenessError{Section: name, Variables: missing}
		}
	}
	if rt.writing {
		return nil
	}
	for _, v := range owned {
		resultmap.Extract(rt.asm.Current(), v)
	}
	return nil
}

// Send consumes or produces the SEND record. The tape identification
// section has none: its reader peeks at the next line, which is already the
// first line of the following section, and pushes it back.
func (rt *Runtime) Send() error {
	if rt.tapeID {
		if rt.writing {
			return nil
		}
		_, _, err := rt.in.Peek()
		return err
	}
	if rt.writing {
		return rt.out.Send()
	}
	line, err := rt.in.Next()
	if err != nil {
		return rt.eof(err, "SEND")
	}
	return endfline.CheckSend(line, rt.secMAT, rt.secMF, rt.opts)
}

func (rt *Runtime) eof(err error, what string) error {
	if errors.Is(err, endfline.ErrUnexpectedEOF) {
		return &endferr.ControlRecordError{Record: what, Reason: "input ended", Line: rt.line}
	}
	return err
}

// Annotate converts errors raised while evaluating expressions outside a
// slot, such as loop bounds and conditions.
func (rt *Runtime) Annotate(err error) error {
	if err == nil {
		return nil
	}
	return rt.evalErr(err)
}

// evalErr attaches the current line to evaluation failures and turns a
// reference to an unread variable into an EvalError.
func (rt *Runtime) evalErr(err error) error {
	var ue *unreadError
	if errors.As(err, &ue) {
		return &endferr.EvalError{Expr: ue.cell, Reason: "variable has not been read", Line: rt.line}
	}
	var ee *endferr.EvalError
	if errors.As(err, &ee) && ee.Line == "" {
		ee.Line = rt.line
	}
	return err
}

// lookupOrDeclare resolves r, declaring it when nothing is visible.
func (rt *Runtime) lookupOrDeclare(r *Ref) (Binding, error) {
	if b, ok := rt.env.Lookup(r); ok {
		return b, nil
	}
	v, err := rt.env.Declare(r)
	if err != nil {
		return Binding{}, err
	}
	return Binding{Var: v}, nil
}

// descend walks from the cursor (or the root) to the innermost level of v
// for idx, creating levels as needed.
func descend(v *indexchain.Var, idx []int, cur *Cursor) (indexchain.Handle, error) {
	h, start := v.Root(), 0
	if cur != nil && cur.Valid {
		h, start = cur.Handle, cur.Skip
	}
	for _, i := range idx[start : len(idx)-1] {
		var err error
		if h, err = h.Prepare(i); err != nil {
			return indexchain.Handle{}, err
		}
	}
	return h, nil
}

func trimRight(s string) string {
	return strings.TrimRight(s, " ")
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return integral(n)
	default:
		return 0, false
	}
}

func toInts(v any) ([]int, bool) {
	switch s := v.(type) {
	case []int:
		return s, true
	case []any:
		out := make([]int, len(s))
		for i, e := range s {
			n, ok := toInt(e)
			if !ok {
				return nil, false
			}
			out[i] = n
		}
		return out, true
	default:
		return nil, false
	}
}

func toFloats(v any) ([]float64, bool) {
	switch s := v.(type) {
	case []float64:
		return s, true
	case []any:
		out := make([]float64, len(s))
		for i, e := range s {
			f, ok := numeric(e)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	case []int:
		out := make([]float64, len(s))
		for i, n := range s {
			out[i] = float64(n)
		}
		return out, true
	default:
		return nil, false
	}
}

func sliceEqual(a, b any) bool {
	if ai, ok := toInts(a); ok {
		bi, ok := toInts(b)
		return ok && slices.Equal(ai, bi)
	}
	af, ok1 := toFloats(a)
	bf, ok2 := toFloats(b)
	return ok1 && ok2 && slices.EqualFunc(af, bf, func(x, y float64) bool { return endfline.Equal(x, y) })
}
