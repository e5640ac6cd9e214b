package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/endfgo/internal/app"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		wantExit bool
		wantErr  string
		check    func(t *testing.T, c *app.Config)
	}{
		{
			name:     "no arguments prints usage",
			wantExit: true,
		},
		{
			name:     "help command",
			args:     []string{"help"},
			wantExit: true,
		},
		{
			name:     "help flag",
			args:     []string{"-h"},
			wantExit: true,
		},
		{
			name: "parse with defaults",
			args: []string{"parse", "tape.endf"},
			check: func(t *testing.T, c *app.Config) {
				assert.Equal(t, app.CommandParse, c.Command)
				assert.Equal(t, "tape.endf", c.InputPath)
				assert.Equal(t, "yaml", c.Format)
				assert.Equal(t, 4, c.WorkerCount)
				assert.Equal(t, "json", c.LogFormat)
				assert.Equal(t, "info", c.LogLevel)
				assert.False(t, c.Interpret)
			},
		},
		{
			name: "write with every option",
			args: []string{"write", "-recipes", "r", "-options", "o.hcl", "-interpret", "-workers", "2",
				"-log-format", "TEXT", "-log-level", "Debug", "tape.yaml"},
			check: func(t *testing.T, c *app.Config) {
				assert.Equal(t, app.CommandWrite, c.Command)
				assert.Equal(t, "r", c.RecipesPath)
				assert.Equal(t, "o.hcl", c.OptionsPath)
				assert.True(t, c.Interpret)
				assert.Equal(t, 2, c.WorkerCount)
				assert.Equal(t, "text", c.LogFormat)
				assert.Equal(t, "debug", c.LogLevel)
			},
		},
		{
			name: "get",
			args: []string{"get", "-path", "3/1/AWR", "-format", "json", "tape.yaml"},
			check: func(t *testing.T, c *app.Config) {
				assert.Equal(t, "3/1/AWR", c.Path)
				assert.Equal(t, "json", c.Format)
			},
		},
		{
			name: "show",
			args: []string{"show", "-level", "2", "-path", "3", "tape.yaml"},
			check: func(t *testing.T, c *app.Config) {
				assert.Equal(t, app.CommandShow, c.Command)
				assert.Equal(t, 2, c.Level)
				assert.Equal(t, "3", c.Path)
			},
		},
		{
			name:    "negative level",
			args:    []string{"show", "-level", "-1", "tape.yaml"},
			wantErr: "invalid level -1",
		},
		{
			name:    "unknown flag",
			args:    []string{"parse", "-nope", "tape.endf"},
			wantErr: "flag provided but not defined: -nope",
		},
		{
			name:    "flag before command",
			args:    []string{"-format", "json", "tape.endf"},
			wantErr: "a command is required",
		},
		{
			name:    "unknown command",
			args:    []string{"merge", "tape.endf"},
			wantErr: `unknown command "merge"`,
		},
		{
			name:    "missing input",
			args:    []string{"parse"},
			wantErr: "expected exactly one input file, got 0",
		},
		{
			name:    "bad log format",
			args:    []string{"parse", "-log-format", "xml", "tape.endf"},
			wantErr: "invalid log-format",
		},
		{
			name:    "bad log level",
			args:    []string{"parse", "-log-level", "loud", "tape.endf"},
			wantErr: "invalid log-level",
		},
		{
			name:    "get without path",
			args:    []string{"get", "tape.yaml"},
			wantErr: "needs a path",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			cfg, shouldExit, err := Parse(tc.args, out)

			if tc.wantErr != "" {
				var exitErr *ExitError
				require.True(t, errors.As(err, &exitErr), "expected ExitError, got %v", err)
				assert.Equal(t, 2, exitErr.Code)
				assert.Contains(t, exitErr.Message, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantExit, shouldExit)
			if tc.wantExit {
				assert.Nil(t, cfg)
				assert.Contains(t, out.String(), "Usage:")
				return
			}
			tc.check(t, cfg)
		})
	}
}
