package fsutil

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	fsys := fstest.MapFS{
		"recipes/mf1/451.hcl": {Data: []byte("")},
		"recipes/mf3.hcl":     {Data: []byte("")},
		"recipes/README.md":   {Data: []byte("")},
		"other.hcl":           {Data: []byte("")},
	}

	files, err := FindFilesByExtension(fsys, "recipes", ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{"recipes/mf1/451.hcl", "recipes/mf3.hcl"}, files)

	files, err = FindFilesByExtension(fsys, "other.hcl", ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{"other.hcl"}, files)

	_, err = FindFilesByExtension(fsys, "recipes/README.md", ".hcl")
	assert.Error(t, err)

	_, err = FindFilesByExtension(fsys, "missing", ".hcl")
	assert.Error(t, err)

	assert.Panics(t, func() { _, _ = FindFilesByExtension(fsys, ".", "") })
}
