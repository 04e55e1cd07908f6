// Package filesearch finds files by name fragment under a directory tree.
package filesearch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Find returns the regular files under root whose base name contains name, sorted.
//
// Directories are visited from an explicit stack, so tree depth never grows
// the goroutine stack. Subdirectories that cannot be read are skipped;
// an unreadable root is an error. Symlinked directories are not followed.
func Find(ctx context.Context, root, name string) ([]string, error) {
	if _, err := os.ReadDir(root); err != nil {
		return nil, fmt.Errorf("read %s: %w", root, err)
	}

	var out []string
	stack := []string{root}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			p := filepath.Join(dir, e.Name())
			switch {
			case e.IsDir():
				stack = append(stack, p)
			case e.Type().IsRegular() && strings.Contains(e.Name(), name):
				out = append(out, p)
			}
		}
	}
	slices.Sort(out)
	return out, nil
}
