// Package fileset resolves a glob pattern against a base directory into the
// ordered file list a batch runs over.
package fileset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Resolve expands pattern relative to dir and returns the matching regular
// files as sorted, de-duplicated paths relative to dir. An empty dir means
// the current working directory. An empty result is not an error here; the
// caller decides whether that is a usage problem.
func Resolve(dir, pattern string) ([]string, error) {
	if pattern == "" {
		return nil, fmt.Errorf("file pattern must not be empty")
	}

	base := dir
	if base == "" {
		base = "."
	}

	matches, err := filepath.Glob(filepath.Join(base, pattern))
	if err != nil {
		return nil, fmt.Errorf("bad file pattern %q: %w", pattern, err)
	}

	seen := make(map[string]struct{}, len(matches))
	files := make([]string, 0, len(matches))
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		rel, err := filepath.Rel(base, match)
		if err != nil {
			return nil, fmt.Errorf("resolve %q relative to %q: %w", match, base, err)
		}
		if _, dup := seen[rel]; dup {
			continue
		}
		seen[rel] = struct{}{}
		files = append(files, rel)
	}

	sort.Strings(files)
	return files, nil
}
