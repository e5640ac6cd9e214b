package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/endfgo/internal/ctxlog"
	"github.com/vk/endfgo/internal/parseopts"
	"github.com/vk/endfgo/internal/registry"
	"github.com/vk/endfgo/internal/tape"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	config    *Config
	options   *parseopts.Options
	registry  *registry.Registry
	processor *tape.Processor
}

// NewApp is the constructor for the main application. Results go to outW,
// logs to logW. Recipes are loaded and compiled only for commands that
// read or write tapes.
func NewApp(outW, logW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	a := &App{outW: outW, logger: logger, config: cfg, options: parseopts.Default()}

	if cfg.OptionsPath != "" {
		opts, err := parseopts.LoadFile(cfg.OptionsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load parse options: %w", err)
		}
		a.options = opts
		logger.Debug("Parse options loaded.", "file", cfg.OptionsPath, "options", opts.Map())
	}

	if cfg.Command == CommandGet || cfg.Command == CommandShow {
		return a, nil
	}

	regOpts := registry.DefaultOptions()
	regOpts.Interpret = cfg.Interpret
	a.registry = registry.New(regOpts)
	var err error
	if cfg.RecipesPath != "" {
		err = a.registry.LoadDir(ctx, cfg.RecipesPath)
	} else {
		err = a.registry.LoadBuiltins(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	logger.Debug("Recipes registered.", "count", a.registry.Len(), "names", a.registry.Names())

	a.processor = tape.NewProcessor(a.registry, cfg.WorkerCount, a.options)
	return a, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
