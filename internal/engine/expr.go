package engine

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vk/endfgo/internal/endferr"
	"github.com/vk/endfgo/internal/indexchain"
	"github.com/vk/endfgo/internal/recipe"
)

// Expr is an expression as executed by a routine. Variable references are
// resolved through an Env.
type Expr interface {
	String() string
}

// Const is a literal.
type Const struct {
	Value float64
	Int   bool
}

// Ref references a variable or loop counter. ID is the slot assigned by
// the compiler, or -1 when the Env resolves references by name.
type Ref struct {
	Name    string
	ID      int
	Indices []Expr
}

// Binary applies a recipe operator to two operands.
type Binary struct {
	Op   recipe.Op
	L, R Expr
}

// Unary applies OpNeg or OpNot.
type Unary struct {
	Op recipe.Op
	X  Expr
}

func (c *Const) String() string {
	if c.Int {
		return strconv.FormatInt(int64(c.Value), 10)
	}
	return strconv.FormatFloat(c.Value, 'g', -1, 64)
}

func (r *Ref) String() string {
	var sb strings.Builder
	sb.WriteString(r.Name)
	for _, idx := range r.Indices {
		sb.WriteByte('[')
		sb.WriteString(idx.String())
		sb.WriteByte(']')
	}
	return sb.String()
}

func (b *Binary) String() string {
	return "(" + b.L.String() + " " + b.Op.String() + " " + b.R.String() + ")"
}

func (u *Unary) String() string {
	return u.Op.String() + u.X.String()
}

// Binding is what a Ref resolves to: a variable, or the current value of a
// loop counter.
type Binding struct {
	Var     *indexchain.Var
	Counter bool
	Count   int
}

// Env resolves references for one running routine.
type Env interface {
	// Lookup returns the binding visible for r.
	Lookup(r *Ref) (Binding, bool)
	// Declare creates the variable r in the innermost section. It is only
	// called after Lookup failed.
	Declare(r *Ref) (*indexchain.Var, error)
}

// unreadError marks an expression that references a variable holding no
// value yet. A reader may still solve for it.
type unreadError struct {
	ref  *Ref
	cell string
}

func (e *unreadError) Error() string {
	return "variable " + e.cell + " has not been read"
}

// Eval evaluates e as a number. Comparisons and logical operators yield 1
// or 0.
func Eval(env Env, e Expr) (float64, error) {
	switch x := e.(type) {
	case *Const:
		return x.Value, nil
	case *Ref:
		val, err := lookupValue(env, x)
		if err != nil {
			return 0, err
		}
		f, ok := numeric(val)
		if !ok {
			return 0, &endferr.EvalError{Expr: x.String(), Reason: fmt.Sprintf("holds a %T, not a number", val)}
		}
		return f, nil
	case *Unary:
		v, err := Eval(env, x.X)
		if err != nil {
			return 0, err
		}
		if x.Op == recipe.OpNot {
			return boolf(v == 0), nil
		}
		return -v, nil
	case *Binary:
		return evalBinary(env, x)
	default:
		return 0, fmt.Errorf("engine: unknown expression %T", e)
	}
}

func evalBinary(env Env, b *Binary) (float64, error) {
	l, err := Eval(env, b.L)
	if err != nil {
		return 0, err
	}
	switch b.Op {
	case recipe.OpAnd:
		if l == 0 {
			return 0, nil
		}
		r, err := Eval(env, b.R)
		return boolf(r != 0), err
	case recipe.OpOr:
		if l != 0 {
			return 1, nil
		}
		r, err := Eval(env, b.R)
		return boolf(r != 0), err
	}
	r, err := Eval(env, b.R)
	if err != nil {
		return 0, err
	}
	switch b.Op {
	case recipe.OpAdd:
		return l + r, nil
	case recipe.OpSub:
		return l - r, nil
	case recipe.OpMul:
		return l * r, nil
	case recipe.OpDiv:
		if r == 0 {
			return 0, &endferr.EvalError{Expr: b.String(), Reason: "division by zero"}
		}
		return l / r, nil
	case recipe.OpEq:
		return boolf(l == r), nil
	case recipe.OpNe:
		return boolf(l != r), nil
	case recipe.OpLt:
		return boolf(l < r), nil
	case recipe.OpLe:
		return boolf(l <= r), nil
	case recipe.OpGt:
		return boolf(l > r), nil
	case recipe.OpGe:
		return boolf(l >= r), nil
	default:
		return 0, fmt.Errorf("engine: unknown operator %v", b.Op)
	}
}

// EvalInt evaluates e and requires an integral result.
func EvalInt(env Env, e Expr) (int, error) {
	v, err := Eval(env, e)
	if err != nil {
		return 0, err
	}
	n, ok := integral(v)
	if !ok {
		return 0, &endferr.EvalError{Expr: e.String(), Reason: fmt.Sprintf("value %g is not an integer", v)}
	}
	return n, nil
}

// EvalBool evaluates a condition.
func EvalBool(env Env, e Expr) (bool, error) {
	v, err := Eval(env, e)
	return v != 0, err
}

// Indices evaluates the index expressions of r.
func Indices(env Env, r *Ref) ([]int, error) {
	if len(r.Indices) == 0 {
		return nil, nil
	}
	out := make([]int, len(r.Indices))
	for i, e := range r.Indices {
		n, err := EvalInt(env, e)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// lookupValue returns the stored value of r, or an unreadError.
func lookupValue(env Env, r *Ref) (any, error) {
	b, ok := env.Lookup(r)
	if !ok {
		return nil, &unreadError{ref: r, cell: r.String()}
	}
	if b.Counter {
		return b.Count, nil
	}
	idx, err := Indices(env, r)
	if err != nil {
		return nil, err
	}
	val, ok := b.Var.Get(idx...)
	if !ok {
		return nil, &unreadError{ref: r, cell: cellName(r.Name, idx)}
	}
	return val, nil
}

// solve finds the single unread variable in e such that e equals target.
// Only expressions linear in that variable can be solved.
func solve(env Env, e Expr, target float64) (*Ref, float64, error) {
	_, err := Eval(env, e)
	var ue *unreadError
	if !errors.As(err, &ue) {
		if err == nil {
			err = fmt.Errorf("engine: %s has no unknown", e)
		}
		return nil, 0, err
	}
	unknown := ue.ref
	a, b, err := linear(env, e, unknown)
	if err != nil {
		return nil, 0, err
	}
	if a == 0 {
		return nil, 0, &endferr.EvalError{Expr: e.String(), Reason: "cannot solve for " + unknown.String()}
	}
	return unknown, (target - b) / a, nil
}

// linear rewrites e as a*x+b where x is the unknown reference.
func linear(env Env, e Expr, x *Ref) (a, b float64, err error) {
	switch n := e.(type) {
	case *Ref:
		same, err := sameCell(env, n, x)
		if err != nil {
			return 0, 0, err
		}
		if same {
			return 1, 0, nil
		}
	case *Unary:
		if n.Op == recipe.OpNeg {
			a, b, err := linear(env, n.X, x)
			return -a, -b, err
		}
	case *Binary:
		switch n.Op {
		case recipe.OpAdd, recipe.OpSub, recipe.OpMul, recipe.OpDiv:
			a1, b1, err := linear(env, n.L, x)
			if err != nil {
				return 0, 0, err
			}
			a2, b2, err := linear(env, n.R, x)
			if err != nil {
				return 0, 0, err
			}
			switch {
			case n.Op == recipe.OpAdd:
				return a1 + a2, b1 + b2, nil
			case n.Op == recipe.OpSub:
				return a1 - a2, b1 - b2, nil
			case n.Op == recipe.OpMul && a1 == 0:
				return b1 * a2, b1 * b2, nil
			case n.Op == recipe.OpMul && a2 == 0:
				return a1 * b2, b1 * b2, nil
			case n.Op == recipe.OpDiv && a2 == 0 && b2 != 0:
				return a1 / b2, b1 / b2, nil
			}
			return 0, 0, &endferr.EvalError{Expr: n.String(), Reason: "not linear in " + x.String()}
		}
	}
	v, err := Eval(env, e)
	return 0, v, err
}

func sameCell(env Env, a, b *Ref) (bool, error) {
	if a.Name != b.Name || len(a.Indices) != len(b.Indices) {
		return false, nil
	}
	ia, err := Indices(env, a)
	if err != nil {
		return false, err
	}
	ib, err := Indices(env, b)
	if err != nil {
		return false, err
	}
	for i := range ia {
		if ia[i] != ib[i] {
			return false, nil
		}
	}
	return true, nil
}

// FromRecipe converts a recipe expression with unresolved references.
func FromRecipe(e recipe.Expr) Expr {
	switch x := e.(type) {
	case nil:
		return nil
	case *recipe.Num:
		return &Const{Value: x.Value, Int: x.Int}
	case *recipe.VarRef:
		r := &Ref{Name: x.Name, ID: -1}
		for _, idx := range x.Indices {
			r.Indices = append(r.Indices, FromRecipe(idx))
		}
		return r
	case *recipe.Binary:
		return &Binary{Op: x.Op, L: FromRecipe(x.L), R: FromRecipe(x.R)}
	case *recipe.Unary:
		return &Unary{Op: x.Op, X: FromRecipe(x.X)}
	default:
		panic(fmt.Sprintf("engine: unknown recipe expression %T", e))
	}
}

func cellName(name string, idx []int) string {
	var sb strings.Builder
	sb.WriteString(name)
	for _, i := range idx {
		sb.WriteByte('[')
		sb.WriteString(strconv.Itoa(i))
		sb.WriteByte(']')
	}
	return sb.String()
}

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func integral(f float64) (int, bool) {
	r := math.Round(f)
	if math.Abs(f-r) > 1e-9*math.Max(1, math.Abs(f)) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return int(r), true
}
