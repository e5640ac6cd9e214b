// Package endfline is the fixed-width field codec for ENDF-6 record lines.
//
// A record line holds six 11-character numeric fields in columns 0-65,
// followed by MAT (66-69), MF (70-71), MT (72-74) and an optional sequence
// number (75-79). Floats use the legacy implicit-exponent notation in which
// the exponent letter is omitted: " 1.234567+5" means 1.234567e5.
package endfline

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/vk/endfgo/internal/endferr"
)

const (
	// FieldWidth is the width of one numeric field.
	FieldWidth = 11
	// NumFields is the number of numeric fields per line.
	NumFields = 6
	// TextWidth is the width of the numeric area, used whole by TEXT records.
	TextWidth = FieldWidth * NumFields

	MATStart, MATLen = 66, 4
	MFStart, MFLen   = 70, 2
	MTStart, MTLen   = 72, 3
	NSStart, NSLen   = 75, 5
)

var (
	errEmbeddedSpace = errors.New("embedded space not accepted")
	errNotFinite     = errors.New("not a finite number")
)

// DecodeFloat decodes a float field in ENDF notation. Spaces are stripped;
// a sign that follows the mantissa without an exponent letter starts the
// exponent. A blank field is 0. With acceptSpaces false, a space between
// two non-space characters is a decode failure.
func DecodeFloat(field string, acceptSpaces bool) (float64, error) {
	var buf [24]byte
	b := buf[:0]
	inNumber, inExponent := false, false
	seenSpaceAfterText := false
	for i := 0; i < len(field); i++ {
		c := field[i]
		if c == ' ' {
			if len(b) > 0 {
				seenSpaceAfterText = true
			}
			continue
		}
		if seenSpaceAfterText && !acceptSpaces {
			return 0, &endferr.DecodeError{Field: field, Kind: "float", Err: errEmbeddedSpace}
		}
		seenSpaceAfterText = false
		switch {
		case inNumber && !inExponent && (c == '+' || c == '-'):
			b = append(b, 'e')
			inExponent = true
		case inNumber && !inExponent && (c == 'e' || c == 'E' || c == 'd' || c == 'D'):
			c = 'e'
			inExponent = true
		case !inNumber && (c == '.' || (c >= '0' && c <= '9')):
			inNumber = true
		}
		b = append(b, c)
	}
	if len(b) == 0 {
		return 0, nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return 0, &endferr.DecodeError{Field: field, Kind: "float", Err: unwrapNumErr(err)}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &endferr.DecodeError{Field: field, Kind: "float", Err: errNotFinite}
	}
	return v, nil
}

// DecodeInt decodes an integer field. A blank field is 0; only spaces at
// the boundaries are ignored.
func DecodeInt(field string) (int, error) {
	s := strings.Trim(field, " ")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, &endferr.DecodeError{Field: field, Kind: "int", Err: unwrapNumErr(err)}
	}
	return v, nil
}

// Field returns the raw text of numeric field pos (0-5). Lines shorter than
// the field are padded with blanks.
func Field(line string, pos int) string {
	return span(line, pos*FieldWidth, FieldWidth)
}

// FloatField decodes numeric field pos as a float.
func FloatField(line string, pos int, acceptSpaces bool) (float64, error) {
	v, err := DecodeFloat(Field(line, pos), acceptSpaces)
	return v, attachLine(err, line)
}

// IntField decodes numeric field pos as an integer.
func IntField(line string, pos int) (int, error) {
	v, err := DecodeInt(Field(line, pos))
	return v, attachLine(err, line)
}

// CustomIntField decodes an integer from an arbitrary column span, as used
// for MAT, MF and MT.
func CustomIntField(line string, start, length int) (int, error) {
	v, err := DecodeInt(span(line, start, length))
	return v, attachLine(err, line)
}

// Text returns columns 0-65 verbatim.
func Text(line string) string {
	return span(line, 0, TextWidth)
}

// EncodeFloat renders v right-justified into 11 columns in ENDF notation.
// The canonical form is mantissa plus signed exponent without a letter
// (" 1.234567+5"); when that loses digits the plain decimal form is used
// if it fits. Decoding the result always yields v when v was itself
// decoded from an 11-column field.
func EncodeFloat(v float64) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", &endferr.EncodeError{Quantity: "float", Value: v, Width: FieldWidth}
	}
	if v == 0 {
		return " 0.000000+0", nil
	}

	canonical := expForm(v, false)
	if exact(canonical, v) {
		return canonical, nil
	}
	if s, ok := fixedForm(v); ok {
		return s, nil
	}
	if v > 0 {
		// Positive numbers may give the sign column to one more digit.
		if s := expForm(v, true); exact(s, v) {
			return s, nil
		}
	}
	if len(canonical) > FieldWidth {
		return "", &endferr.EncodeError{Quantity: "float", Value: v, Width: FieldWidth}
	}
	return canonical, nil
}

// EncodeInt renders v right-justified into 11 columns.
func EncodeInt(v int) (string, error) {
	return EncodeCustomInt(v, FieldWidth)
}

// EncodeCustomInt renders v right-justified into width columns.
func EncodeCustomInt(v, width int) (string, error) {
	s := strconv.Itoa(v)
	if len(s) > width {
		return "", &endferr.EncodeError{Quantity: "int", Value: v, Width: width}
	}
	return strings.Repeat(" ", width-len(s)) + s, nil
}

// EncodeText left-justifies s into 66 columns, truncating longer text.
func EncodeText(s string) string {
	if len(s) >= TextWidth {
		return s[:TextWidth]
	}
	return s + strings.Repeat(" ", TextWidth-len(s))
}

// expForm renders v as sign, mantissa and exponent without the letter,
// using as many mantissa digits as the field allows.
func expForm(v float64, dropSign bool) string {
	width := FieldWidth
	if !dropSign {
		width-- // sign column: blank or '-'
	}
	expDigits := 1
	var mant string
	var exp int
	for {
		// width = mantissa ("d." + prec digits) + exponent sign + digits
		prec := width - 2 - 1 - expDigits
		if prec < 0 {
			prec = 0
		}
		s := strconv.FormatFloat(v, 'e', prec, 64)
		idx := strings.IndexByte(s, 'e')
		mant = s[:idx]
		exp, _ = strconv.Atoi(s[idx+1:])
		need := len(strconv.Itoa(abs(exp)))
		if need <= expDigits || expDigits >= 3 {
			break
		}
		expDigits = need
	}
	sign := "+"
	if exp < 0 {
		sign = "-"
	}
	out := mant + sign + strconv.Itoa(abs(exp))
	if !dropSign && v > 0 {
		out = " " + out
	}
	return pad(out)
}

// fixedForm renders the shortest exact decimal form of v if it fits.
func fixedForm(v float64) (string, bool) {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") && len(s) < FieldWidth {
		// Integral values keep the point unless it costs the last column.
		s += "."
	}
	switch {
	case strings.HasPrefix(s, "0."):
		s = s[1:]
	case strings.HasPrefix(s, "-0."):
		s = "-" + s[2:]
	}
	if len(s) > FieldWidth {
		return "", false
	}
	out := pad(s)
	return out, exact(out, v)
}

func exact(s string, v float64) bool {
	if len(s) > FieldWidth {
		return false
	}
	back, err := DecodeFloat(s, true)
	return err == nil && back == v
}

func pad(s string) string {
	if len(s) >= FieldWidth {
		return s
	}
	return strings.Repeat(" ", FieldWidth-len(s)) + s
}

func span(line string, start, length int) string {
	if start >= len(line) {
		return strings.Repeat(" ", length)
	}
	end := start + length
	if end > len(line) {
		return line[start:] + strings.Repeat(" ", end-len(line))
	}
	return line[start:end]
}

func attachLine(err error, line string) error {
	var de *endferr.DecodeError
	if errors.As(err, &de) && de.Line == "" {
		de.Line = line
	}
	return err
}

func unwrapNumErr(err error) error {
	var ne *strconv.NumError
	if errors.As(err, &ne) {
		return ne.Err
	}
	return err
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
