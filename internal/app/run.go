package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/vk/endfgo/internal/ctxlog"
	"github.com/vk/endfgo/internal/endfpath"
	"github.com/vk/endfgo/internal/resultmap"
	"github.com/vk/endfgo/internal/tape"
	"gopkg.in/yaml.v3"
)

// Run executes the configured command.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "command", a.config.Command, "input", a.config.InputPath)

	var err error
	switch a.config.Command {
	case CommandParse:
		err = a.parse(ctx)
	case CommandWrite:
		err = a.write(ctx)
	case CommandGet:
		err = a.get()
	case CommandShow:
		err = a.show()
	default:
		err = fmt.Errorf("unknown command %q", a.config.Command)
	}
	if err != nil {
		return err
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) parse(ctx context.Context) error {
	f, err := os.Open(a.config.InputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	lines, err := tape.ReadLines(f)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", a.config.InputPath, err)
	}
	t, err := tape.Split(ctx, lines, a.options)
	if err != nil {
		return fmt.Errorf("failed to split %s: %w", a.config.InputPath, err)
	}
	m, err := a.processor.Parse(ctx, t)
	if err != nil {
		return err
	}
	return a.encode(m)
}

func (a *App) write(ctx context.Context) error {
	m, err := a.readMapping()
	if err != nil {
		return err
	}
	lines, err := a.processor.Write(ctx, m)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.outW, strings.Join(lines, "\n"))
	return err
}

func (a *App) get() error {
	m, err := a.readMapping()
	if err != nil {
		return err
	}
	p, err := endfpath.Parse(a.config.Path)
	if err != nil {
		return err
	}
	v, err := p.Get(m)
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", p, err)
	}
	return a.encode(v)
}

func (a *App) show() error {
	m, err := a.readMapping()
	if err != nil {
		return err
	}
	if a.config.Path != "" {
		p, err := endfpath.Parse(a.config.Path)
		if err != nil {
			return err
		}
		v, err := p.Get(m)
		if err != nil {
			return fmt.Errorf("failed to get %s: %w", p, err)
		}
		sub, ok := v.(*resultmap.Map)
		if !ok {
			return fmt.Errorf("%s is a value, not a section", p)
		}
		m = sub
	}
	return endfpath.Show(a.outW, m, a.config.Level)
}

func (a *App) readMapping() (*resultmap.Map, error) {
	data, err := os.ReadFile(a.config.InputPath)
	if err != nil {
		return nil, err
	}
	m, err := resultmap.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", a.config.InputPath, err)
	}
	return m, nil
}

// encode writes v in the configured format.
func (a *App) encode(v any) error {
	if a.config.Format == "json" {
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(a.outW, string(out))
		return err
	}
	enc := yaml.NewEncoder(a.outW)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
