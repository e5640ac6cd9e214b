package app

import (
	"errors"
	"fmt"
)

// Commands understood by App.Run.
const (
	CommandParse = "parse"
	CommandWrite = "write"
	CommandGet   = "get"
	CommandShow  = "show"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Command   string
	InputPath string // ENDF tape for parse, YAML or JSON mapping otherwise

	RecipesPath string // recipe directory or file; empty uses the built-ins
	OptionsPath string // HCL file with an options block
	Format      string // json or yaml
	Path        string // mapping path for get, or the subtree for show
	Level       int    // mapping levels show expands
	Interpret   bool
	WorkerCount int

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.Command {
	case CommandParse, CommandWrite, CommandGet, CommandShow:
	case "":
		return nil, errors.New("a command is required: parse, write, get or show")
	default:
		return nil, fmt.Errorf("unknown command %q: must be parse, write, get or show", cfg.Command)
	}
	if cfg.InputPath == "" {
		return nil, errors.New("InputPath is a required configuration field and cannot be empty")
	}
	if cfg.Command == CommandGet && cfg.Path == "" {
		return nil, errors.New("the get command needs a path")
	}
	switch cfg.Format {
	case "":
		cfg.Format = "yaml"
	case "yaml", "json":
	default:
		return nil, fmt.Errorf("invalid format %q: must be 'json' or 'yaml'", cfg.Format)
	}
	if cfg.Level < 0 {
		return nil, fmt.Errorf("invalid level %d: must not be negative", cfg.Level)
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	return &cfg, nil
}
