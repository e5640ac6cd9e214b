// Package endferr defines the classified errors raised while compiling
// recipes and while reading or writing ENDF-6 sections.
//
// Callers classify failures with errors.As against the pointer types below.
// Runtime errors carry the implicated quantity and, where one exists, the raw
// line that triggered them.
package endferr

import (
	"fmt"
	"strings"
)

// DecodeError reports malformed numeric or integer text in a field.
type DecodeError struct {
	Field string // the raw field text
	Kind  string // "float" or "int"
	Line  string
	Err   error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("cannot decode %s field %q", e.Kind, e.Field)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return withLine(msg, e.Line)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports a value that cannot be rendered into its column span.
type EncodeError struct {
	Quantity string
	Value    any
	Width    int
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("cannot encode %s=%v into %d columns", e.Quantity, e.Value, e.Width)
}

// MismatchKind names the Parse Configuration toggle that may suppress a
// MismatchError.
type MismatchKind int

const (
	// NumberMismatch: a literal number in the recipe differs from the file.
	NumberMismatch MismatchKind = iota
	// ZeroMismatch: the expected value is zero but the file holds something else.
	ZeroMismatch
	// VarspecMismatch: an already-read variable or an expression over read
	// variables differs from the file.
	VarspecMismatch
)

func (k MismatchKind) String() string {
	switch k {
	case NumberMismatch:
		return "number"
	case ZeroMismatch:
		return "zero"
	case VarspecMismatch:
		return "varspec"
	default:
		return fmt.Sprintf("MismatchKind(%d)", int(k))
	}
}

// MismatchError reports a decoded value that differs from its structurally
// expected value.
type MismatchError struct {
	Kind     MismatchKind
	Quantity string
	Expected any
	Actual   any
	Line     string
}

func (e *MismatchError) Error() string {
	msg := fmt.Sprintf("%s mismatch for %s: expected %v, found %v", e.Kind, e.Quantity, e.Expected, e.Actual)
	return withLine(msg, e.Line)
}

// ControlRecordError reports a missing or malformed SEND/FEND/MEND/TEND record.
type ControlRecordError struct {
	Record string // SEND, FEND, MEND, TEND or TPID
	Line   string
	Reason string
}

func (e *ControlRecordError) Error() string {
	msg := "expected " + e.Record + " record"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return withLine(msg, e.Line)
}

// UndeclaredVariableError is raised at compile time when an expression
// references a variable that is not visible in any enclosing scope.
type UndeclaredVariableError struct {
	Variable string
	Context  string // the reference that contained it, e.g. "xs[i]"
	Recipe   string
}

func (e *UndeclaredVariableError) Error() string {
	msg := fmt.Sprintf("variable %s is not declared in any enclosing scope", e.Variable)
	if e.Context != "" && e.Context != e.Variable {
		msg += fmt.Sprintf(" (referenced in %s)", e.Context)
	}
	if e.Recipe != "" {
		msg = "recipe " + e.Recipe + ": " + msg
	}
	return msg
}

// IncompletenessError reports mandatory variables left unread when their
// section closed. Only raised under strict completeness checking.
type IncompletenessError struct {
	Section   string
	Variables []string
}

func (e *IncompletenessError) Error() string {
	return fmt.Sprintf("section %s closed with unread mandatory variables: %s", e.Section, strings.Join(e.Variables, ", "))
}

// EvalError reports a failure evaluating a recipe expression at run time.
type EvalError struct {
	Expr   string
	Reason string
	Line   string
}

func (e *EvalError) Error() string {
	return withLine(fmt.Sprintf("cannot evaluate %s: %s", e.Expr, e.Reason), e.Line)
}

func withLine(msg, line string) string {
	if line == "" {
		return msg
	}
	return fmt.Sprintf("%s\n  line: %q", msg, line)
}
