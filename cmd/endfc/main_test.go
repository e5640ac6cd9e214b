package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/endfgo/internal/cli"
)

const crossSection = `MAT: 125
MT: 1
ZA: 1001.0
AWR: 0.9991673
QM: 0.0
QI: 0.0
LR: 0
xstable:
  NBT: [3]
  INT: [2]
  E: [1.0e-5, 1.0, 2.0e7]
  xs: [37.16, 20.43, 0.4827]
`

func TestRun_StartupError(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "broken.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte("recipe \"x\" {\n  mf = \n"), 0o600))

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	err := run(context.Background(), out, errOut, []string{"parse", "-recipes", filePath, "tape.endf"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "application startup failed")
	assert.Contains(t, err.Error(), "failed to load recipes")
	assert.Empty(t, out.String())
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	err := run(context.Background(), out, errOut, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	assert.Contains(t, errOut.String(), "Usage:")
	assert.Empty(t, out.String())
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"parse", "--this-is-not-a-valid-flag"})

	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr), "unexpected error: %v", err)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_WriteAndParse(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mapping := filepath.Join(dir, "tape.yaml")
	require.NoError(t, os.WriteFile(mapping, []byte("3:\n  1:\n"+indent(crossSection, "    ")), 0o600))

	out := &bytes.Buffer{}
	opts := filepath.Join(dir, "options.hcl")
	require.NoError(t, os.WriteFile(opts, []byte("options {\n  ignore_missing_tpid = true\n}\n"), 0o600))

	err := run(context.Background(), out, &bytes.Buffer{}, []string{"write", "-log-level", "error", mapping})
	require.NoError(t, err)
	tape := filepath.Join(dir, "tape.endf")
	require.NoError(t, os.WriteFile(tape, out.Bytes(), 0o600))

	parsed := &bytes.Buffer{}
	err = run(context.Background(), parsed, &bytes.Buffer{}, []string{"parse", "-options", opts, "-format", "json", tape})
	require.NoError(t, err)
	assert.Contains(t, parsed.String(), `"AWR": 0.9991673`)
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n") + "\n"
}
