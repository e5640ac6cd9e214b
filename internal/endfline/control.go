package endfline

import (
	"fmt"
	"math"

	"github.com/vk/endfgo/internal/endferr"
	"github.com/vk/endfgo/internal/parseopts"
)

// ControlKind identifies the sentinel records that terminate sections,
// files, materials and the tape.
type ControlKind int

const (
	SEND ControlKind = iota
	FEND
	MEND
	TEND
)

func (k ControlKind) String() string {
	switch k {
	case SEND:
		return "SEND"
	case FEND:
		return "FEND"
	case MEND:
		return "MEND"
	case TEND:
		return "TEND"
	default:
		return fmt.Sprintf("ControlKind(%d)", int(k))
	}
}

// Ctl decodes the MAT, MF and MT columns of a line.
func Ctl(line string) (mat, mf, mt int, err error) {
	if mat, err = CustomIntField(line, MATStart, MATLen); err != nil {
		return
	}
	if mf, err = CustomIntField(line, MFStart, MFLen); err != nil {
		return
	}
	mt, err = CustomIntField(line, MTStart, MTLen)
	return
}

// zeroFields reports whether all six numeric fields decode to exactly 0.
func zeroFields(line string) bool {
	for pos := 0; pos < 2; pos++ {
		v, err := FloatField(line, pos, true)
		if err != nil || v != 0 {
			return false
		}
	}
	for pos := 2; pos < NumFields; pos++ {
		v, err := IntField(line, pos)
		if err != nil || v != 0 {
			return false
		}
	}
	return true
}

// IsControlRecord reports whether line is a control record of the given
// kind. SEND is recognised from the numeric fields and MT alone, regardless
// of MAT and MF. FEND additionally needs MF=0 and a nonzero MAT, MEND needs
// MAT=MF=MT=0, TEND needs MAT=-1.
func IsControlRecord(line string, kind ControlKind) bool {
	if !zeroFields(line) {
		return false
	}
	mat, mf, mt, err := Ctl(line)
	if err != nil {
		return false
	}
	switch kind {
	case SEND:
		return mt == 0
	case FEND:
		return mt == 0 && mf == 0 && mat > 0
	case MEND:
		return mt == 0 && mf == 0 && mat == 0
	case TEND:
		return mt == 0 && mf == 0 && mat == -1
	default:
		return false
	}
}

// CheckSend validates that line is a SEND record. With
// ValidateControlRecords set, MAT and MF must also match the section.
// Failures are suppressed by IgnoreSendRecords.
func CheckSend(line string, mat, mf int, opts *parseopts.Options) error {
	if opts.IgnoreSendRecords {
		return nil
	}
	if !IsControlRecord(line, SEND) {
		return &endferr.ControlRecordError{Record: "SEND", Line: line}
	}
	if opts.ValidateControlRecords {
		lmat, lmf, _, err := Ctl(line)
		if err != nil {
			return err
		}
		if lmat != mat || lmf != mf {
			return &endferr.ControlRecordError{
				Record: "SEND",
				Line:   line,
				Reason: fmt.Sprintf("MAT/MF %d/%d do not match section %d/%d", lmat, lmf, mat, mf),
			}
		}
	}
	return nil
}

// floatTolerance is the relative tolerance used when comparing floats;
// 11-column fields carry at most about seven significant digits.
const floatTolerance = 1e-6

// ValidateField compares a decoded value against its expected value and
// returns a MismatchError unless the matching toggle suppresses it. An
// expected value of zero is always classified as a zero mismatch.
func ValidateField(quantity string, kind endferr.MismatchKind, expected, actual any, line string, opts *parseopts.Options) error {
	if Equal(expected, actual) {
		return nil
	}
	if f, ok := ToFloat(expected); ok && f == 0 {
		kind = endferr.ZeroMismatch
	}
	switch kind {
	case endferr.NumberMismatch:
		if opts.IgnoreNumberMismatch {
			return nil
		}
	case endferr.ZeroMismatch:
		if opts.IgnoreZeroMismatch {
			return nil
		}
	case endferr.VarspecMismatch:
		if opts.IgnoreVarspecMismatch {
			return nil
		}
	}
	return &endferr.MismatchError{Kind: kind, Quantity: quantity, Expected: expected, Actual: actual, Line: line}
}

// Equal compares two field values. Integers compare exactly, floats within
// a relative tolerance, strings after trimming trailing blanks.
func Equal(a, b any) bool {
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		return ok && trimRight(as) == trimRight(bs)
	}
	ai, aInt := a.(int)
	bi, bInt := b.(int)
	if aInt && bInt {
		return ai == bi
	}
	af, ok1 := ToFloat(a)
	bf, ok2 := ToFloat(b)
	if !ok1 || !ok2 {
		return false
	}
	if af == bf {
		return true
	}
	scale := math.Max(math.Abs(af), math.Abs(bf))
	return math.Abs(af-bf) <= floatTolerance*scale
}

// ToFloat converts the numeric value kinds stored in a result mapping.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

func trimRight(s string) string {
	i := len(s)
	for i > 0 && s[i-1] == ' ' {
		i--
	}
	return s[:i]
}
