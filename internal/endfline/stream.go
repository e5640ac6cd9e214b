package endfline

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnexpectedEOF is returned when a reader needs a line past the end of
// its input.
var ErrUnexpectedEOF = errors.New("unexpected end of ENDF input")

// Reader is a forward-only line stream. It supports un-reading exactly one
// line, which the MF0/MT0 tape identification section needs because its
// terminating record is the header of the next section.
type Reader struct {
	sc      *bufio.Scanner
	lines   []string
	pos     int
	last    string
	hasLast bool
	unread  bool
	lineNo  int
}

// NewReader streams lines from r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 128), 1<<20)
	return &Reader{sc: sc}
}

// FromLines streams an in-memory slice of lines.
func FromLines(lines []string) *Reader {
	return &Reader{lines: lines}
}

// Next returns the next line, or ErrUnexpectedEOF when the input is
// exhausted.
func (r *Reader) Next() (string, error) {
	if r.unread {
		r.unread = false
		r.lineNo++
		return r.last, nil
	}
	line, ok, err := r.fetch()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrUnexpectedEOF
	}
	r.last, r.hasLast = line, true
	r.lineNo++
	return line, nil
}

// Peek reports whether another line is available without consuming it.
func (r *Reader) Peek() (string, bool, error) {
	line, err := r.Next()
	if errors.Is(err, ErrUnexpectedEOF) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return line, true, r.Unread()
}

// Unread pushes the most recent line back onto the stream. Only one line
// can be pushed back at a time.
func (r *Reader) Unread() error {
	if !r.hasLast || r.unread {
		return fmt.Errorf("endfline: cannot unread more than one line")
	}
	r.unread = true
	r.lineNo--
	return nil
}

// LineNo returns the 1-based number of the most recently returned line.
func (r *Reader) LineNo() int {
	return r.lineNo
}

func (r *Reader) fetch() (string, bool, error) {
	if r.sc == nil {
		if r.pos >= len(r.lines) {
			return "", false, nil
		}
		line := r.lines[r.pos]
		r.pos++
		return strings.TrimRight(line, "\r\n"), true, nil
	}
	if !r.sc.Scan() {
		return "", false, r.sc.Err()
	}
	return strings.TrimRight(r.sc.Text(), "\r"), true, nil
}

// Writer appends fixed-width lines. It stamps the MAT/MF/MT columns and a
// sequence number that restarts after every SEND.
type Writer struct {
	lines       []string
	mat, mf, mt int
	ns          int
}

// NewWriter returns a Writer that stamps sequence numbers in columns 75-79.
func NewWriter() *Writer {
	return &Writer{ns: 1}
}

// SetControl sets the MAT, MF and MT stamped on subsequent lines.
func (w *Writer) SetControl(mat, mf, mt int) {
	w.mat, w.mf, w.mt = mat, mf, mt
}

// Control returns the MAT, MF and MT currently stamped.
func (w *Writer) Control() (mat, mf, mt int) {
	return w.mat, w.mf, w.mt
}

// Emit appends a line whose numeric area is body (66 columns).
func (w *Writer) Emit(body string) error {
	line, err := w.format(body, w.mat, w.mf, w.mt, w.ns)
	if err != nil {
		return err
	}
	w.lines = append(w.lines, line)
	w.ns++
	if w.ns > 99999 {
		w.ns = 1
	}
	return nil
}

// EmitFields appends a line built from six already-encoded fields.
func (w *Writer) EmitFields(fields [NumFields]string) error {
	var sb strings.Builder
	for _, f := range fields {
		if f == "" {
			f = strings.Repeat(" ", FieldWidth)
		}
		sb.WriteString(f)
	}
	return w.Emit(sb.String())
}

// Send appends a SEND record for the current MAT and MF.
func (w *Writer) Send() error {
	return w.control(w.mat, w.mf, 0, 99999)
}

// Fend appends a FEND record for mat.
func (w *Writer) Fend(mat int) error { return w.control(mat, 0, 0, 0) }

// Mend appends a MEND record.
func (w *Writer) Mend() error { return w.control(0, 0, 0, 0) }

// Tend appends a TEND record.
func (w *Writer) Tend() error { return w.control(-1, 0, 0, 0) }

func (w *Writer) control(mat, mf, mt, ns int) error {
	line, err := w.format(zeroBody, mat, mf, mt, ns)
	if err != nil {
		return err
	}
	w.lines = append(w.lines, line)
	w.ns = 1
	return nil
}

// Append adds already formatted lines verbatim.
func (w *Writer) Append(lines ...string) {
	w.lines = append(w.lines, lines...)
}

// Lines returns the lines written so far.
func (w *Writer) Lines() []string {
	return w.lines
}

var zeroBody = " 0.000000+0 0.000000+0" + strings.Repeat("          0", 4)

func (w *Writer) format(body string, mat, mf, mt, ns int) (string, error) {
	if len(body) != TextWidth {
		body = EncodeText(body)
	}
	matS, err := EncodeCustomInt(mat, MATLen)
	if err != nil {
		return "", err
	}
	mfS, err := EncodeCustomInt(mf, MFLen)
	if err != nil {
		return "", err
	}
	mtS, err := EncodeCustomInt(mt, MTLen)
	if err != nil {
		return "", err
	}
	nsS, err := EncodeCustomInt(ns, NSLen)
	if err != nil {
		return "", err
	}
	return body + matS + mfS + mtS + nsS, nil
}
