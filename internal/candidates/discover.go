package candidates

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"submerge/internal/pathref"
)

// Discover expands inputs into regular files. Files are taken as given;
// directories contribute entries whose base name matches pattern, descending
// into subdirectories when recursive is set. Results are resolved and
// deduplicated in first-seen order. Skip lists directories whose subtrees are
// never entered (for example an archive directory nested in the input).
func Discover(inputs []string, pattern string, recursive bool, skip ...string) ([]pathref.Path, error) {
	if pattern == "" {
		pattern = "*"
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("pattern %q: %w", pattern, err)
	}
	skipped := make(map[string]struct{}, len(skip))
	for _, s := range skip {
		if p, err := pathref.Resolve(s); err == nil {
			skipped[p.String()] = struct{}{}
		}
	}

	var out []pathref.Path
	seen := map[pathref.Path]struct{}{}
	appendPath := func(raw string) error {
		p, err := pathref.Resolve(raw)
		if err != nil {
			return err
		}
		if _, ok := seen[p]; ok {
			return nil
		}
		seen[p] = struct{}{}
		out = append(out, p)
		return nil
	}

	for _, input := range inputs {
		root, err := pathref.Resolve(input)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(root.String())
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", input, err)
		}
		if info.Mode().IsRegular() {
			if err := appendPath(root.String()); err != nil {
				return nil, err
			}
			continue
		}
		if !info.IsDir() {
			continue
		}
		err = filepath.WalkDir(root.String(), func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == root.String() {
					return nil
				}
				if _, ok := skipped[path]; ok || !recursive {
					return filepath.SkipDir
				}
				return nil
			}
			if ok, _ := filepath.Match(pattern, d.Name()); !ok {
				return nil
			}
			if !isRegular(path, d) {
				return nil
			}
			return appendPath(path)
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoInputs
	}
	return out, nil
}
