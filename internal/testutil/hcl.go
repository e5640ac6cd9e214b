package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/endfgo/internal/hclrecipe"
	"github.com/vk/endfgo/internal/recipe"
)

// ParseRecipe parses src, which must hold exactly one recipe block.
func ParseRecipe(t *testing.T, src string) *recipe.Recipe {
	t.Helper()

	recipes, err := hclrecipe.Parse([]byte(src), t.Name()+".hcl")
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	return recipes[0]
}
