// Package recipes embeds the built-in section recipes.
package recipes

import "embed"

// FS holds every built-in recipe file at its root.
//
//go:embed *.hcl
var FS embed.FS
