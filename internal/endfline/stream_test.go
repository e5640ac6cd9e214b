package endfline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader(t *testing.T) {
	r := NewReader(strings.NewReader("first\r\nsecond\nthird\n"))

	line, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "first", line)
	assert.Equal(t, 1, r.LineNo())

	peeked, ok, err := r.Peek()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", peeked)
	assert.Equal(t, 1, r.LineNo(), "peek does not advance")

	line, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "second", line)

	require.NoError(t, r.Unread())
	assert.Error(t, r.Unread(), "only one line can be pushed back")

	line, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "second", line)

	line, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "third", line)
	assert.Equal(t, 3, r.LineNo())

	_, ok, err = r.Peek()
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = r.Next()
	assert.ErrorIs(t, err, ErrUnexpectedEOF)
}

func TestReader_FromLines(t *testing.T) {
	r := FromLines([]string{"a", "b\r\n"})
	assert.Error(t, r.Unread(), "nothing read yet")

	a, err := r.Next()
	require.NoError(t, err)
	b, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, []string{a, b})
}

func TestWriter(t *testing.T) {
	w := NewWriter()
	w.SetControl(125, 3, 1)

	f1, err := EncodeFloat(1001)
	require.NoError(t, err)
	require.NoError(t, w.EmitFields([NumFields]string{f1, "", "", "", "", ""}))
	require.NoError(t, w.Emit("some text"))
	require.NoError(t, w.Send())
	require.NoError(t, w.Fend(125))
	require.NoError(t, w.Mend())
	require.NoError(t, w.Tend())

	lines := w.Lines()
	require.Len(t, lines, 6)
	for _, l := range lines {
		assert.Len(t, l, 80)
	}

	assert.Equal(t, " 1.001000+3"+strings.Repeat(" ", 55)+" 125 3  1    1", lines[0])
	assert.Equal(t, EncodeText("some text")+" 125 3  1    2", lines[1])
	assert.Equal(t, zeroBody+" 125 3  099999", lines[2])
	assert.True(t, IsControlRecord(lines[2], SEND))
	assert.True(t, IsControlRecord(lines[3], FEND))
	assert.True(t, IsControlRecord(lines[4], MEND))
	assert.True(t, IsControlRecord(lines[5], TEND))

	t.Run("sequence restarts after a control record", func(t *testing.T) {
		require.NoError(t, w.Emit(""))
		last := w.Lines()[len(w.Lines())-1]
		ns, err := CustomIntField(last, NSStart, NSLen)
		require.NoError(t, err)
		assert.Equal(t, 1, ns)
	})

	t.Run("MAT overflow", func(t *testing.T) {
		w := NewWriter()
		w.SetControl(12345, 1, 1)
		assert.Error(t, w.Emit(""))
	})
}
