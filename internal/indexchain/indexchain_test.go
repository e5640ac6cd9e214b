package indexchain

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVar_SparseOrdering(t *testing.T) {
	a := NewArena()
	v := a.NewVar("xs", 1)

	require.NoError(t, v.Set(70.0, 7))
	require.NoError(t, v.Set(20.0, 2))

	root := v.Root()
	assert.Equal(t, 2, root.StartIndex())
	assert.Equal(t, 7, root.LastIndex())
	assert.False(t, root.Contains(5))
	assert.True(t, root.Contains(7))
	assert.Equal(t, []int{2, 7}, slices.Collect(root.Indices()))
	assert.Equal(t, 2, root.Len())

	var visited []int
	for i := root.StartIndex(); i <= root.LastIndex(); i++ {
		if root.Contains(i) {
			visited = append(visited, i)
		}
	}
	assert.Equal(t, []int{2, 7}, visited)
}

func TestVar_ReadState(t *testing.T) {
	a := NewArena()

	t.Run("scalar uses an explicit flag", func(t *testing.T) {
		s := a.NewVar("NWD", 0)
		assert.False(t, s.DidRead())
		require.NoError(t, s.Assign(0))
		assert.True(t, s.DidRead(), "a zero value still counts as read")
		assert.Error(t, s.Assign(5), "second assignment is refused")
		assert.True(t, s.DidRead())
		val, ok := s.Value()
		assert.True(t, ok)
		assert.Equal(t, 0, val)
	})

	t.Run("indexed read state is derived", func(t *testing.T) {
		v := a.NewVar("a", 2)
		assert.False(t, v.DidRead())
		assert.Equal(t, Unset, v.Root().LastIndex())

		_, err := v.Root().Prepare(3)
		require.NoError(t, err)
		assert.False(t, v.DidRead(), "descending alone stores nothing")
		assert.Empty(t, slices.Collect(v.Root().Indices()))

		require.NoError(t, v.Set(1.5, 3, 1))
		assert.True(t, v.DidRead())
	})

	t.Run("reset clears both kinds", func(t *testing.T) {
		s := a.NewVar("LRP", 0)
		require.NoError(t, s.Assign(1))
		s.Reset()
		assert.False(t, s.DidRead())

		v := a.NewVar("b", 1)
		require.NoError(t, v.Set(1, 4))
		v.Reset()
		assert.False(t, v.DidRead())
		assert.False(t, v.Contains(4))
	})
}

func TestVar_MultiLevel(t *testing.T) {
	a := NewArena()
	v := a.NewVar("coef", 2)

	require.NoError(t, v.Set(1.0, 2, 1))
	require.NoError(t, v.Set(2.0, 2, 3))
	require.NoError(t, v.Set(3.0, 1, 5))

	root := v.Root()
	assert.Equal(t, []int{1, 2}, slices.Collect(root.Indices()))
	assert.Equal(t, 1, root.StartIndex())
	assert.Equal(t, 2, root.LastIndex())

	inner, ok := root.Child(2)
	require.True(t, ok)
	assert.Equal(t, 1, inner.StartIndex())
	assert.Equal(t, 3, inner.LastIndex())
	assert.Equal(t, 1, inner.Depth())

	got, ok := v.Get(2, 3)
	require.True(t, ok)
	assert.Equal(t, 2.0, got)
	_, ok = v.Get(3, 1)
	assert.False(t, ok)
	assert.True(t, v.Contains(1, 5))

	t.Run("overwrite keeps bounds", func(t *testing.T) {
		require.NoError(t, v.Set(9.0, 2, 3))
		assert.Equal(t, 2, inner.Len())
		got, _ := v.Get(2, 3)
		assert.Equal(t, 9.0, got)
	})

	t.Run("arity is enforced", func(t *testing.T) {
		assert.Error(t, v.Set(1.0, 1))
		assert.Error(t, v.Set(1.0, 1, 2, 3))
		assert.Error(t, root.Set(1, 1.0), "values only live on the innermost level")
		_, err := inner.Prepare(1)
		assert.Error(t, err)
	})

	t.Run("negative index", func(t *testing.T) {
		assert.Error(t, v.Set(1.0, -1, 2))
	})
}

func TestArena_Recycle(t *testing.T) {
	a := NewArena()
	v := a.NewVar("m", 3)
	for i := range 4 {
		require.NoError(t, v.Set(float64(i), i, i, i))
	}
	live := a.Live()
	assert.Equal(t, 1+4+4, live)

	v.Reset()
	assert.Equal(t, 1, a.Live())

	for i := range 4 {
		require.NoError(t, v.Set(float64(i), i, i, i))
	}
	assert.Equal(t, live, a.Live())
	assert.Len(t, a.levels, live, "freed levels are reused before the arena grows")
}

func TestHandle_EarlyDescentIsInvisible(t *testing.T) {
	a := NewArena()
	hoisted := a.NewVar("y", 2)
	plain := a.NewVar("y", 2)

	// hoisted: prepare every outer index first, store only some values
	for i := 1; i <= 3; i++ {
		h, err := hoisted.Root().Prepare(i)
		require.NoError(t, err)
		if i != 2 {
			require.NoError(t, h.Set(1, float64(i)))
		}
	}
	for i := 1; i <= 3; i++ {
		if i != 2 {
			require.NoError(t, plain.Set(float64(i), i, 1))
		}
	}

	assert.Equal(t, slices.Collect(plain.Root().Indices()), slices.Collect(hoisted.Root().Indices()))
	assert.Equal(t, plain.Root().Len(), hoisted.Root().Len())
	assert.False(t, hoisted.Root().Contains(2))
}
