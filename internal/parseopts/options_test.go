package parseopts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	o := Default()
	assert.False(t, o.IgnoreNumberMismatch)
	assert.True(t, o.IgnoreZeroMismatch)
	assert.False(t, o.IgnoreVarspecMismatch)
	assert.True(t, o.AcceptSpaces)
	assert.False(t, o.IgnoreSendRecords)
	assert.False(t, o.IgnoreMissingTPID)
	assert.False(t, o.ValidateControlRecords)
	assert.False(t, o.StrictCompleteness)
}

func TestFromMap(t *testing.T) {
	t.Run("partial map keeps defaults", func(t *testing.T) {
		o, err := FromMap(map[string]bool{"ignore_zero_mismatch": false})
		require.NoError(t, err)
		assert.False(t, o.IgnoreZeroMismatch)
		assert.True(t, o.AcceptSpaces)
	})

	t.Run("unknown toggle rejected", func(t *testing.T) {
		_, err := FromMap(map[string]bool{"ignore_everything": true, "accept_spaces": false})
		assert.ErrorContains(t, err, "ignore_everything")
	})

	t.Run("map round trip", func(t *testing.T) {
		o := Default()
		o.StrictCompleteness = true
		back, err := FromMap(o.Map())
		require.NoError(t, err)
		assert.Equal(t, o, back)
	})
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Len(t, names, 8)
	assert.Equal(t, "accept_spaces", names[0])
}

func TestParse(t *testing.T) {
	t.Run("options block", func(t *testing.T) {
		src := `
options {
  ignore_zero_mismatch = false
  strict_completeness  = true
}
`
		o, err := Parse([]byte(src), "opts.hcl")
		require.NoError(t, err)
		assert.False(t, o.IgnoreZeroMismatch)
		assert.True(t, o.StrictCompleteness)
		assert.True(t, o.AcceptSpaces, "untouched toggles keep defaults")
	})

	t.Run("empty file", func(t *testing.T) {
		o, err := Parse([]byte(""), "empty.hcl")
		require.NoError(t, err)
		assert.Equal(t, Default(), o)
	})

	t.Run("duplicate block", func(t *testing.T) {
		_, err := Parse([]byte("options {}\noptions {}\n"), "dup.hcl")
		assert.ErrorContains(t, err, "at most one options block")
	})

	t.Run("unknown attribute", func(t *testing.T) {
		_, err := Parse([]byte("options {\n  be_nice = true\n}\n"), "bad.hcl")
		assert.Error(t, err)
	})
}
