package pathref

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Path is an absolute, cleaned, symlink-resolved filesystem path.
type Path string

// Resolve canonicalizes value. Missing paths are accepted and returned in
// absolute clean form so destinations that do not exist yet can still be
// expressed; their existing parent directory is resolved instead.
func Resolve(value string) (Path, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.New("resolve path: empty value")
	}
	expanded, err := expandHome(value)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(filepath.Clean(expanded))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", value, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return Path(resolved), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("resolve symlinks for %q: %w", abs, err)
	}
	// Broken symlinks stay as-is so callers can report them as unsupported.
	if _, lerr := os.Lstat(abs); lerr == nil {
		return Path(abs), nil
	}
	parent, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return Path(abs), nil
	}
	return Path(filepath.Join(parent, filepath.Base(abs))), nil
}

// MustResolve is Resolve for values known to be valid, such as test fixtures.
func MustResolve(value string) Path {
	p, err := Resolve(value)
	if err != nil {
		panic(err)
	}
	return p
}

// ResolveAll resolves each value, dropping duplicates while preserving order.
func ResolveAll(values []string) ([]Path, error) {
	out := make([]Path, 0, len(values))
	seen := make(map[Path]struct{}, len(values))
	for _, v := range values {
		p, err := Resolve(v)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

func (p Path) String() string { return string(p) }

// Base returns the final element of the path.
func (p Path) Base() string { return filepath.Base(string(p)) }

// Dir returns the parent directory.
func (p Path) Dir() Path { return Path(filepath.Dir(string(p))) }

// Ext returns the extension including the leading dot, as written on disk.
func (p Path) Ext() string { return filepath.Ext(string(p)) }

// Stem returns the base name without its extension.
func (p Path) Stem() string {
	base := p.Base()
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// WithExt replaces the extension of p with ext. A path without an extension
// gains one.
func (p Path) WithExt(ext string) Path {
	s := string(p)
	return Path(strings.TrimSuffix(s, filepath.Ext(s)) + ext)
}

// Join appends elements to p.
func (p Path) Join(elem ...string) Path {
	return Path(filepath.Join(append([]string{string(p)}, elem...)...))
}

func expandHome(value string) (string, error) {
	if !strings.HasPrefix(value, "~") {
		return value, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	if value == "~" {
		return home, nil
	}
	if len(value) > 1 && (value[1] == '/' || value[1] == '\\') {
		return filepath.Join(home, value[2:]), nil
	}
	return value, nil
}
