package resultmap

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/endfgo/internal/indexchain"
	"gopkg.in/yaml.v3"
)

func TestMap_Order(t *testing.T) {
	m := New()
	m.Set("b", 1)
	m.Set("a", 2)
	m.Set(3, "x")
	m.Set("b", 4)

	assert.Equal(t, []any{"b", "a", 3}, m.Keys())
	v, ok := m.Get("b")
	require.True(t, ok)
	assert.Equal(t, 4, v)

	assert.True(t, m.Delete("a"))
	assert.False(t, m.Delete("a"))
	assert.Equal(t, []any{"b", 3}, m.Keys())
	assert.Panics(t, func() { m.Set(1.5, 0) })
}

func TestMap_Ensure(t *testing.T) {
	m := New()
	sub, err := m.Ensure("xstable")
	require.NoError(t, err)
	again, err := m.Ensure("xstable")
	require.NoError(t, err)
	assert.Same(t, sub, again)

	m.Set("AWR", 1.0)
	_, err = m.Ensure("AWR")
	assert.Error(t, err)
}

func TestMap_Equal(t *testing.T) {
	a := New()
	a.Set("x", 1)
	a.Set("y", []float64{1, 2})
	b := New()
	b.Set("y", []any{1, 2.0})
	b.Set("x", 1.0)

	assert.True(t, a.Equal(b))
	assert.Empty(t, cmp.Diff(a, b), "cmp uses Equal")

	b.Set("z", "text")
	assert.False(t, a.Equal(b))
}

func TestContext_OpenClose(t *testing.T) {
	root := New()
	ctx := NewContext(root)

	sub, err := ctx.Open("subsection", 2, 1)
	require.NoError(t, err)
	assert.Same(t, sub, ctx.Current())
	assert.Equal(t, 1, ctx.Depth())

	nested, err := ctx.Open("inner")
	require.NoError(t, err)
	nested.Set("LANG", 1)

	require.NoError(t, ctx.Close())
	require.NoError(t, ctx.Close())
	assert.Same(t, root, ctx.Current())
	assert.Error(t, ctx.Close())

	s, ok := root.Sub("subsection")
	require.True(t, ok)
	s, ok = s.Sub(2)
	require.True(t, ok)
	s, ok = s.Sub(1)
	require.True(t, ok)
	inner, ok := s.Sub("inner")
	require.True(t, ok)
	v, _ := inner.Get("LANG")
	assert.Equal(t, 1, v)
}

func TestContext_Enter(t *testing.T) {
	root := New()
	ctx := NewContext(root)
	m := ctx.Enter("missing", 4)
	assert.Zero(t, m.Len())
	require.NoError(t, ctx.Close())
	assert.Zero(t, root.Len(), "enter never creates entries")
}

func TestExtractLoad(t *testing.T) {
	arena := indexchain.NewArena()
	za := arena.NewVar("ZA", 0)
	require.NoError(t, za.Assign(26056.0))
	unread := arena.NewVar("LIS", 0)
	coef := arena.NewVar("a", 2)
	require.NoError(t, coef.Set(0.5, 2, 1))
	require.NoError(t, coef.Set(0.25, 1, 3))
	require.NoError(t, coef.Set(0.75, 1, 1))
	empty := arena.NewVar("E", 1)

	dst := New()
	for _, v := range []*indexchain.Var{za, unread, coef, empty} {
		Extract(dst, v)
	}

	assert.Equal(t, []any{"ZA", "a"}, dst.Keys(), "unread variables are omitted")
	a, ok := dst.Sub("a")
	require.True(t, ok)
	assert.Equal(t, []any{1, 2}, a.Keys())
	a1, _ := a.Sub(1)
	assert.Equal(t, []any{1, 3}, a1.Keys(), "indices ascend regardless of write order")

	t.Run("load restores the chains", func(t *testing.T) {
		fresh := indexchain.NewArena()
		za2 := fresh.NewVar("ZA", 0)
		coef2 := fresh.NewVar("a", 2)
		lis2 := fresh.NewVar("LIS", 0)
		for _, v := range []*indexchain.Var{za2, coef2, lis2} {
			require.NoError(t, Load(dst, v))
		}
		assert.True(t, za2.DidRead())
		assert.False(t, lis2.DidRead())
		got, ok := coef2.Get(1, 3)
		require.True(t, ok)
		assert.Equal(t, 0.25, got)

		again := New()
		Extract(again, za2)
		Extract(again, coef2)
		assert.True(t, dst.Equal(again))
	})

	t.Run("shape mismatch", func(t *testing.T) {
		fresh := indexchain.NewArena()
		assert.Error(t, Load(dst, fresh.NewVar("a", 0)))
		assert.Error(t, Load(dst, fresh.NewVar("ZA", 1)))
	})
}

func TestEncoding(t *testing.T) {
	m := New()
	m.Set("AWR", 55.34)
	m.Set("NK", 2)
	m.Set("HSUB", "text")
	m.Set("E", []float64{1, 2.5e6})
	idx := New()
	idx.Set(1, 1.0)
	idx.Set(10, 2.0)
	m.Set("xs", idx)

	t.Run("json keeps order", func(t *testing.T) {
		out, err := json.Marshal(m)
		require.NoError(t, err)
		assert.Equal(t, `{"AWR":55.34,"NK":2,"HSUB":"text","E":[1,2500000],"xs":{"1":1,"10":2}}`, string(out))

		back, err := Decode(out)
		require.NoError(t, err)
		assert.True(t, m.Equal(back))
		assert.Equal(t, []any{"AWR", "NK", "HSUB", "E", "xs"}, back.Keys())
		xs, ok := back.Sub("xs")
		require.True(t, ok)
		assert.Equal(t, []any{1, 10}, xs.Keys())
	})

	t.Run("yaml round trip keeps types", func(t *testing.T) {
		out, err := yaml.Marshal(m)
		require.NoError(t, err)

		back, err := Decode(out)
		require.NoError(t, err)
		assert.Equal(t, m.Keys(), back.Keys())
		xs, _ := back.Sub("xs")
		v, _ := xs.Get(1)
		assert.IsType(t, 0.0, v, "whole floats stay floats")
		n, _ := back.Get("NK")
		assert.IsType(t, 0, n)
		s, _ := back.Get("HSUB")
		assert.Equal(t, "text", s)
	})

	t.Run("non-mapping document", func(t *testing.T) {
		_, err := Decode([]byte("- 1\n- 2\n"))
		assert.Error(t, err)
	})
}
