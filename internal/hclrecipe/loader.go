// Package hclrecipe loads section recipes written in HCL.
//
// A file holds any number of `recipe "<name>" { ... }` blocks. The body of a
// recipe is read in source order: record blocks (text, cont, head, dir,
// list, tab1, tab2, send), `for "<counter>"` loops, `if`/`else` pairs and
// `section "<name>"` blocks. Expressions are HCL native syntax and are
// translated into recipe expressions without being evaluated.
package hclrecipe

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/endfgo/internal/ctxlog"
	"github.com/vk/endfgo/internal/fsutil"
	"github.com/vk/endfgo/internal/recipe"
)

// Extension is the file extension of recipe files.
const Extension = ".hcl"

// ParseFile reads every recipe in the file at path.
func ParseFile(path string) ([]*recipe.Recipe, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(src, path)
}

// Parse reads every recipe in src. filename is used in diagnostics.
func Parse(src []byte, filename string) ([]*recipe.Recipe, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse recipe file %s: %w", filename, diags)
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("recipe file %s: native HCL syntax required", filename)
	}
	t := &translator{src: src}
	recipes := t.file(body)
	if t.diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode recipe file %s: %w", filename, t.diags)
	}
	return recipes, nil
}

// LoadFS reads every recipe file below root in fsys.
func LoadFS(ctx context.Context, fsys fs.FS, root string) ([]*recipe.Recipe, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFilesByExtension(fsys, root, Extension)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered recipe files.", "root", root, "count", len(files))

	var all []*recipe.Recipe
	for _, name := range files {
		src, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		recipes, err := Parse(src, name)
		if err != nil {
			return nil, err
		}
		logger.Debug("Loaded recipe file.", "file", name, "recipes", len(recipes))
		all = append(all, recipes...)
	}
	return all, nil
}

type translator struct {
	src   []byte
	diags hcl.Diagnostics
}

func (t *translator) errorf(rng hcl.Range, summary, format string, args ...any) {
	r := rng
	t.diags = append(t.diags, &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   fmt.Sprintf(format, args...),
		Subject:  &r,
	})
}

func (t *translator) file(body *hclsyntax.Body) []*recipe.Recipe {
	for name, attr := range body.Attributes {
		t.errorf(attr.NameRange, "Unexpected attribute", "attribute %q is not allowed at the top level", name)
	}
	var out []*recipe.Recipe
	for _, block := range body.Blocks {
		if block.Type != "recipe" || len(block.Labels) != 1 {
			t.errorf(block.DefRange(), "Unexpected block", "expected `recipe \"<name>\" { ... }`, found %s", block.Type)
			continue
		}
		if r := t.recipe(block); r != nil {
			out = append(out, r)
		}
	}
	return out
}
