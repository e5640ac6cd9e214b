package recipe

import (
	"strconv"
	"strings"
)

// Expr is an arithmetic or boolean expression over recipe variables.
type Expr interface {
	exprNode()
	String() string
}

// Num is a literal number. Int is set when the literal was written without
// a fractional part.
type Num struct {
	Value float64
	Int   bool
}

// VarRef names a variable plus its index expressions. Its identity is the
// name together with the number of indices.
type VarRef struct {
	Name    string
	Indices []Expr
}

// Op is a unary or binary operator.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpNeg
	OpNot
)

var opText = [...]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/",
	OpEq: "==", OpNe: "!=", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
	OpAnd: "&&", OpOr: "||", OpNeg: "-", OpNot: "!",
}

func (o Op) String() string {
	if int(o) < len(opText) {
		return opText[o]
	}
	return "Op(" + strconv.Itoa(int(o)) + ")"
}

// Binary applies Op to two operands.
type Binary struct {
	Op   Op
	L, R Expr
}

// Unary applies OpNeg or OpNot to one operand.
type Unary struct {
	Op Op
	X  Expr
}

func (*Num) exprNode()    {}
func (*VarRef) exprNode() {}
func (*Binary) exprNode() {}
func (*Unary) exprNode()  {}

func (n *Num) String() string {
	if n.Int {
		return strconv.FormatInt(int64(n.Value), 10)
	}
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

func (v *VarRef) String() string {
	if len(v.Indices) == 0 {
		return v.Name
	}
	var sb strings.Builder
	sb.WriteString(v.Name)
	for _, idx := range v.Indices {
		sb.WriteByte('[')
		sb.WriteString(idx.String())
		sb.WriteByte(']')
	}
	return sb.String()
}

// Arity returns the number of indices.
func (v *VarRef) Arity() int { return len(v.Indices) }

func (b *Binary) String() string {
	return "(" + b.L.String() + " " + b.Op.String() + " " + b.R.String() + ")"
}

func (u *Unary) String() string {
	return u.Op.String() + u.X.String()
}

// Int returns an integer literal.
func Int(v int) *Num { return &Num{Value: float64(v), Int: true} }

// Float returns a float literal.
func Float(v float64) *Num { return &Num{Value: v} }

// Ref returns a variable reference.
func Ref(name string, indices ...Expr) *VarRef {
	return &VarRef{Name: name, Indices: indices}
}

// Vars calls fn for every variable reference in e, including references
// nested in index expressions.
func Vars(e Expr, fn func(*VarRef)) {
	switch x := e.(type) {
	case *VarRef:
		fn(x)
		for _, idx := range x.Indices {
			Vars(idx, fn)
		}
	case *Binary:
		Vars(x.L, fn)
		Vars(x.R, fn)
	case *Unary:
		Vars(x.X, fn)
	}
}
