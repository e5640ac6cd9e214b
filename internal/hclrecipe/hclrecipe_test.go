package hclrecipe

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/endfgo/internal/ctxlog"
	"github.com/vk/endfgo/internal/recipe"
	"github.com/vk/endfgo/recipes"
)

func parseOne(t *testing.T, src string) *recipe.Recipe {
	t.Helper()
	recipes, err := Parse([]byte(src), "test.hcl")
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	return recipes[0]
}

func TestParse_Header(t *testing.T) {
	testCases := []struct {
		name string
		mt   string
		want []int
	}{
		{name: "absent", mt: "", want: nil},
		{name: "single", mt: "mt = 451", want: []int{451}},
		{name: "list", mt: "mt = [452, 455, 456]", want: []int{452, 455, 456}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := parseOne(t, `
recipe "r" {
  mf = 1
  `+tc.mt+`
  send {}
}`)
			assert.Equal(t, "r", r.Name)
			assert.Equal(t, 1, r.MF)
			assert.Equal(t, tc.want, r.MTs)
			assert.Len(t, r.Body, 1)
		})
	}
}

func TestParse_Records(t *testing.T) {
	r := parseOne(t, `
recipe "records" {
  mf = 4
  text {
    fields = [HSUB]
  }
  dir {
    ctl    = [MAT, 1, 451]
    fields = [null, null, MF[i], 0, -1, 2.5]
  }
  tab2 "interp" {
    fields = [0.0, 0.0, 0, 0]
    nz     = NE
  }
  tab1 "angdist" {
    index  = [i, 2]
    fields = [T, E[i], LT, 0]
    x      = mu
    y      = p
  }
  send {}
}`)
	require.Len(t, r.Body, 5)

	text := r.Body[0].(*recipe.Record)
	assert.Equal(t, recipe.TEXT, text.Kind)
	assert.Equal(t, "HSUB", text.Fields[0].String())
	assert.Equal(t, "MAT", text.Ctl[0].String(), "ctl defaults to MAT, MF, MT")
	assert.Equal(t, "MT", text.Ctl[2].String())

	dir := r.Body[1].(*recipe.Record)
	assert.Nil(t, dir.Fields[0])
	assert.Nil(t, dir.Fields[1])
	assert.Equal(t, "MF[i]", dir.Fields[2].String())
	assert.Equal(t, &recipe.Num{Value: 451, Int: true}, dir.Ctl[2])
	assert.Equal(t, &recipe.Num{Value: -1, Int: true}, dir.Fields[4])
	assert.Equal(t, &recipe.Num{Value: 2.5}, dir.Fields[5])

	tab2 := r.Body[2].(*recipe.Record)
	assert.Equal(t, "interp", tab2.Table)
	assert.Nil(t, tab2.Fields[4])
	assert.Equal(t, "NE", tab2.Fields[5].String())

	tab1 := r.Body[3].(*recipe.Record)
	assert.Equal(t, "angdist", tab1.Table)
	assert.Equal(t, "mu", tab1.X)
	assert.Equal(t, "p", tab1.Y)
	require.Len(t, tab1.TableIndices, 2)
	assert.Equal(t, "i", tab1.TableIndices[0].String())
}

func TestParse_ControlFlow(t *testing.T) {
	r := parseOne(t, `
recipe "flow" {
  mf = 6
  head {
    fields = [ZA, AWR, 0, LCT, NK, 0]
  }
  for "k" {
    from = 1
    to   = NK
    section "subsection" {
      index = [k]
      if {
        cond = LAW == 1 && !(NE > 2)
        list {
          fields = [0.0, 0.0, 0, 0, NW, NE]
          items  = [A, [for i in seq(1, NE) : [E[i], B[i][2]]]]
        }
      }
      else {
        cont {
          fields = [0.0, 0.0, 0, 0, 0, 0]
        }
      }
    }
  }
  send {}
}`)
	require.Len(t, r.Body, 3)

	loop := r.Body[1].(*recipe.Loop)
	assert.Equal(t, "k", loop.Counter)
	assert.Equal(t, "1", loop.From.String())
	assert.Equal(t, "NK", loop.To.String())

	sec := loop.Body[0].(*recipe.Section)
	assert.Equal(t, "subsection", sec.Name)
	require.Len(t, sec.Indices, 1)

	cond := sec.Body[0].(*recipe.If)
	require.Len(t, sec.Body, 1, "else attaches to the preceding if")
	assert.Equal(t, "((LAW == 1) && !(NE > 2))", cond.Cond.String())
	require.Len(t, cond.Else, 1)

	list := cond.Then[0].(*recipe.Record)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "A", list.Items[0].(*recipe.ListValue).Expr.String())
	inner := list.Items[1].(*recipe.ListLoop)
	assert.Equal(t, "i", inner.Counter)
	require.Len(t, inner.Body, 2)
	assert.Equal(t, "B[i][2]", inner.Body[1].(*recipe.ListValue).Expr.String())
}

func TestParse_ListComprehension(t *testing.T) {
	testCases := []struct {
		name  string
		items string
	}{
		{name: "wrapped in a list", items: "[[for k in seq(1, NC) : C[k]]]"},
		{name: "bare", items: "[for k in seq(1, NC) : C[k]]"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := parseOne(t, `
recipe "r" {
  mf = 1
  list {
    fields = [0.0, 0.0, 0, 0, NC, 0]
    items  = `+tc.items+`
  }
}`)
			list := r.Body[0].(*recipe.Record)
			require.Len(t, list.Items, 1)
			loop, ok := list.Items[0].(*recipe.ListLoop)
			require.True(t, ok, "got %T", list.Items[0])
			assert.Equal(t, "k", loop.Counter)
			assert.Equal(t, "NC", loop.To.String())
			require.Len(t, loop.Body, 1)
			assert.Equal(t, "C[k]", loop.Body[0].(*recipe.ListValue).Expr.String())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
	}{
		{name: "syntax", src: `recipe "r" {`},
		{name: "missing mf", src: `recipe "r" {
  send {}
}`},
		{name: "unknown block", src: `recipe "r" {
  mf = 1
  tab3 {}
}`},
		{name: "wrong field count", src: `recipe "r" {
  mf = 1
  cont {
    fields = [A, B]
  }
}`},
		{name: "else without if", src: `recipe "r" {
  mf = 1
  else {}
}`},
		{name: "string literal", src: `recipe "r" {
  mf = 1
  cont {
    fields = ["x", 0.0, 0, 0, 0, 0]
  }
}`},
		{name: "function call", src: `recipe "r" {
  mf = 1
  cont {
    fields = [max(A, 1), 0.0, 0, 0, 0, 0]
  }
}`},
		{name: "unexpected attribute", src: `recipe "r" {
  mf = 1
  cont {
    fields = [A, 0.0, 0, 0, 0, 0]
    x      = E
  }
}`},
		{name: "label on cont", src: `recipe "r" {
  mf = 1
  cont "named" {
    fields = [A, 0.0, 0, 0, 0, 0]
  }
}`},
		{name: "bad list loop", src: `recipe "r" {
  mf = 1
  list {
    fields = [0.0, 0.0, 0, 0, N, 0]
    items  = [for i in range(1, N) : C[i]]
  }
}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.src), "bad.hcl")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "bad.hcl")
		})
	}
}

func TestLoadFS(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	fsys := fstest.MapFS{
		"recipes/mf1.hcl": {Data: []byte(`
recipe "a" {
  mf = 1
  send {}
}
recipe "b" {
  mf = 2
  send {}
}`)},
		"recipes/extra/mf3.hcl": {Data: []byte(`
recipe "c" {
  mf = 3
  send {}
}`)},
		"recipes/notes.txt": {Data: []byte("not a recipe")},
	}

	got, err := LoadFS(ctx, fsys, "recipes")
	require.NoError(t, err)

	var names []string
	for _, r := range got {
		names = append(names, r.Name)
	}
	assert.Empty(t, cmp.Diff([]string{"c", "a", "b"}, names))
}

func TestLoadFS_Builtins(t *testing.T) {
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	got, err := LoadFS(ctx, recipes.FS, ".")
	require.NoError(t, err)

	mfs := make(map[string]int)
	for _, r := range got {
		mfs[r.Name] = r.MF
	}
	want := map[string]int{
		"tpid":                 0,
		"descriptive_data":     1,
		"nubar":                1,
		"cross_section":        3,
		"angular_distribution": 4,
	}
	assert.Empty(t, cmp.Diff(want, mfs))
}
