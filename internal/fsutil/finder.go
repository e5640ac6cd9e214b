// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// FindFilesByExtension recursively searches root inside fsys for all files
// ending with extension. A root naming a single file is returned as-is when
// it carries the extension. Paths are returned in lexical order.
func FindFilesByExtension(fsys fs.FS, root string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	info, err := fs.Stat(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("error accessing path %s: %w", root, err)
	}
	if !info.IsDir() {
		if path.Ext(root) != extension {
			return nil, fmt.Errorf("specified file is not a %s file: %s", extension, root)
		}
		return []string{root}, nil
	}

	var files []string
	err = fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, p)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}
