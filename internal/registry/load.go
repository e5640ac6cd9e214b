package registry

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vk/endfgo/internal/ctxlog"
	"github.com/vk/endfgo/internal/hclrecipe"
	"github.com/vk/endfgo/recipes"
)

// LoadFS registers every recipe found below root in fsys.
func (r *Registry) LoadFS(ctx context.Context, fsys fs.FS, root string) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Registry loading recipes...", "root", root)

	recs, err := hclrecipe.LoadFS(ctx, fsys, root)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		logger.Warn("No recipes found.", "root", root)
		return nil
	}
	if err := r.Add(ctx, recs...); err != nil {
		return err
	}
	logger.Info("Registry loaded successfully.", "root", root, "recipes_loaded", len(recs))
	return nil
}

// LoadDir registers every recipe file below path, which may also name a
// single file.
func (r *Registry) LoadDir(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve recipe path %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("failed to access recipe path %s: %w", path, err)
	}
	if info.IsDir() {
		return r.LoadFS(ctx, os.DirFS(abs), ".")
	}
	return r.LoadFS(ctx, os.DirFS(filepath.Dir(abs)), filepath.Base(abs))
}

// LoadBuiltins registers the recipes shipped with the module.
func (r *Registry) LoadBuiltins(ctx context.Context) error {
	return r.LoadFS(ctx, recipes.FS, ".")
}

// Default returns a registry holding the built-in recipes.
func Default(ctx context.Context, opts Options) (*Registry, error) {
	reg := New(opts)
	if err := reg.LoadBuiltins(ctx); err != nil {
		return nil, fmt.Errorf("failed to load built-in recipes: %w", err)
	}
	return reg, nil
}
