package testutil

import (
	"fmt"
	"strings"

	"github.com/vk/endfgo/internal/endfline"
)

// Record builds one record line. Fields are encoded by type: float64 in
// ENDF float notation, int right-justified, string verbatim (padded to a
// field), nil as a blank field. Missing trailing fields are blank.
func Record(mat, mf, mt int, fields ...any) string {
	var sb strings.Builder
	for i := range endfline.NumFields {
		var f string
		if i < len(fields) {
			switch v := fields[i].(type) {
			case nil:
			case float64:
				f, _ = endfline.EncodeFloat(v)
			case int:
				f, _ = endfline.EncodeInt(v)
			case string:
				f = v
			default:
				panic(fmt.Sprintf("testutil: unsupported field %T", v))
			}
		}
		sb.WriteString(fmt.Sprintf("%*s", endfline.FieldWidth, f))
	}
	return sb.String() + ctl(mat, mf, mt)
}

// Text builds a TEXT line.
func Text(mat, mf, mt int, text string) string {
	return endfline.EncodeText(text) + ctl(mat, mf, mt)
}

// Send builds a SEND record.
func Send(mat, mf int) string {
	return Record(mat, mf, 0, 0.0, 0.0, 0, 0, 0, 0)
}

func ctl(mat, mf, mt int) string {
	return fmt.Sprintf("%4d%2d%3d", mat, mf, mt)
}
