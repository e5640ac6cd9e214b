package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/endfgo/internal/compiler"
	"github.com/vk/endfgo/internal/hclrecipe"
	"github.com/vk/endfgo/internal/interp"
	"github.com/vk/endfgo/internal/recipe"
	"github.com/vk/endfgo/internal/testutil"
)

func TestDefault(t *testing.T) {
	ctx, logs := testutil.NewContext(t)
	reg, err := Default(ctx, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"angular_distribution", "cross_section", "descriptive_data", "nubar", "tpid"}, reg.Names())
	testutil.AssertLogged(t, logs, "Registry loaded successfully.")

	testCases := []struct {
		mf, mt int
		want   string
	}{
		{0, 0, "tpid"},
		{1, 451, "descriptive_data"},
		{1, 452, "nubar"},
		{1, 456, "nubar"},
		{3, 1, "cross_section"},
		{3, 102, "cross_section"},
		{4, 2, "angular_distribution"},
		{1, 455, ""},
		{5, 18, ""},
	}
	for _, tc := range testCases {
		e, ok := reg.Lookup(tc.mf, tc.mt)
		if tc.want == "" {
			assert.False(t, ok, "MF%d/MT%d", tc.mf, tc.mt)
			continue
		}
		require.True(t, ok, "MF%d/MT%d", tc.mf, tc.mt)
		assert.Equal(t, tc.want, e.Recipe.Name)
		assert.IsType(t, &compiler.Routines{}, e.Codec)
	}
}

const wideAndSpecific = `
recipe "wide" {
  mf = 3
  head {
    fields = [ZA, AWR, 0, 0, 0, 0]
  }
  send {}
}
recipe "elastic" {
  mf = 3
  mt = [2]
  head {
    fields = [ZA, AWR, 0, 0, 0, 0]
  }
  send {}
}
`

func TestLookup_SpecificBeatsWide(t *testing.T) {
	ctx := testutil.Context(t)
	reg := New(DefaultOptions())
	require.NoError(t, reg.Add(ctx, parseAll(t, wideAndSpecific)...))

	e, ok := reg.Lookup(3, 2)
	require.True(t, ok)
	assert.Equal(t, "elastic", e.Recipe.Name)

	e, ok = reg.Lookup(3, 1)
	require.True(t, ok)
	assert.Equal(t, "wide", e.Recipe.Name)

	e, ok = reg.Recipe("elastic")
	require.True(t, ok)
	assert.Equal(t, []int{2}, e.Recipe.MTs)
}

func TestAdd_Rejects(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name: "duplicate name",
			src: `
recipe "a" {
  mf = 3
  send {}
}
recipe "a" {
  mf = 4
  send {}
}`,
			wantErr: `recipe "a"`,
		},
		{
			name: "two recipes for one MF",
			src: `
recipe "a" {
  mf = 3
  send {}
}
recipe "b" {
  mf = 3
  send {}
}`,
			wantErr: "MF3 is already covered",
		},
		{
			name: "overlapping MT lists",
			src: `
recipe "a" {
  mf = 3
  mt = [1, 2]
  send {}
}
recipe "b" {
  mf = 3
  mt = [2, 4]
  send {}
}`,
			wantErr: "MF3/MT2 is already claimed",
		},
		{
			name: "undeclared variable",
			src: `
recipe "a" {
  mf = 3
  for "i" {
    from = 1
    to   = N
    cont {
      fields = [X[i], 0.0, 0, 0, 0, 0]
    }
  }
  send {}
}`,
			wantErr: "compiling recipe",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reg := New(DefaultOptions())
			err := reg.Add(testutil.Context(t), parseAll(t, tc.src)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
			assert.Zero(t, reg.Len(), "a failed Add registers nothing")
		})
	}

	t.Run("conflict with registered recipe", func(t *testing.T) {
		ctx := testutil.Context(t)
		reg := New(DefaultOptions())
		require.NoError(t, reg.Add(ctx, parseAll(t, wideAndSpecific)...))
		err := reg.Add(ctx, parseAll(t, `
recipe "other" {
  mf = 3
  send {}
}`)...)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `already covered by "wide"`)
		assert.Equal(t, 2, reg.Len())
	})
}

func TestOptions_Interpret(t *testing.T) {
	opts := DefaultOptions()
	opts.Interpret = true
	opts.Concurrency = 1
	reg, err := Default(testutil.Context(t), opts)
	require.NoError(t, err)

	e, ok := reg.Lookup(3, 1)
	require.True(t, ok)
	assert.IsType(t, &interp.Interpreter{}, e.Codec)

	lines, err := e.Codec.Write(testutil.Sample(t, "mf3_1"), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, lines)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "mf3"), 0o755))
	file := filepath.Join(dir, "mf3", "sections.hcl")
	require.NoError(t, os.WriteFile(file, []byte(wideAndSpecific), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("docs"), 0o600))

	t.Run("directory", func(t *testing.T) {
		reg := New(DefaultOptions())
		require.NoError(t, reg.LoadDir(testutil.Context(t), dir))
		assert.Equal(t, []string{"elastic", "wide"}, reg.Names())
	})

	t.Run("single file", func(t *testing.T) {
		reg := New(DefaultOptions())
		require.NoError(t, reg.LoadDir(testutil.Context(t), file))
		assert.Equal(t, 2, reg.Len())
	})

	t.Run("missing path", func(t *testing.T) {
		reg := New(DefaultOptions())
		err := reg.LoadDir(testutil.Context(t), filepath.Join(dir, "nope"))
		assert.Error(t, err)
	})

	t.Run("empty directory", func(t *testing.T) {
		ctx, logs := testutil.NewContext(t)
		reg := New(DefaultOptions())
		require.NoError(t, reg.LoadDir(ctx, t.TempDir()))
		assert.Zero(t, reg.Len())
		testutil.AssertLogged(t, logs, "No recipes found.")
	})
}

func parseAll(t *testing.T, src string) []*recipe.Recipe {
	t.Helper()
	recs, err := hclrecipe.Parse([]byte(src), "test.hcl")
	require.NoError(t, err)
	return recs
}
