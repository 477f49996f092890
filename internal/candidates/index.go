package candidates

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"submerge/internal/pathref"
)

// Bucket holds every candidate sharing one extension.
type Bucket struct {
	Ext     Extension
	paths   []pathref.Path
	members map[string]pathref.Path
}

// Paths returns the candidates in discovery order. The slice must not be
// modified.
func (b *Bucket) Paths() []pathref.Path {
	return b.paths
}

// Len reports the number of candidates in the bucket.
func (b *Bucket) Len() int {
	return len(b.paths)
}

// Index maps extensions to candidate buckets.
type Index struct {
	buckets []*Bucket
	byExt   map[Extension]*Bucket
}

func newIndex(exts []Extension) *Index {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	idx := &Index{byExt: make(map[Extension]*Bucket, len(exts))}
	for _, ext := range exts {
		if _, ok := idx.byExt[ext]; ok {
			continue
		}
		b := &Bucket{Ext: ext, members: make(map[string]pathref.Path)}
		idx.buckets = append(idx.buckets, b)
		idx.byExt[ext] = b
	}
	return idx
}

// add classifies p; it reports whether p landed in a bucket.
func (idx *Index) add(p pathref.Path) bool {
	b, ok := idx.byExt[ExtensionOf(string(p))]
	if !ok {
		return false
	}
	key := memberKey(p)
	if _, dup := b.members[key]; dup {
		return false
	}
	b.members[key] = p
	b.paths = append(b.paths, p)
	return true
}

// FromPaths classifies a caller supplied enumeration. Paths are resolved and
// deduplicated; unknown extensions are ignored and existence is not checked.
func FromPaths(paths []string, exts []Extension) (*Index, error) {
	idx := newIndex(exts)
	for _, raw := range paths {
		p, err := pathref.Resolve(raw)
		if err != nil {
			return nil, err
		}
		idx.add(p)
	}
	return idx, nil
}

// Build walks root (descending into subdirectories when recursive is set) and
// classifies every regular file whose extension is in exts. Symlinks to
// regular files are followed.
func Build(root string, exts []Extension, recursive bool) (*Index, error) {
	rootRef, err := pathref.Resolve(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(rootRef.String())
	if err != nil {
		return nil, fmt.Errorf("candidate root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("candidate root %s is not a directory", rootRef)
	}

	idx := newIndex(exts)
	walkErr := filepath.WalkDir(rootRef.String(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != rootRef.String() && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := idx.byExt[ExtensionOf(path)]; !ok {
			return nil
		}
		if !isRegular(path, d) {
			return nil
		}
		p, err := pathref.Resolve(path)
		if err != nil {
			return err
		}
		idx.add(p)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("scan %s: %w", rootRef, walkErr)
	}
	return idx, nil
}

func isRegular(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// Buckets returns every bucket in extension order.
func (idx *Index) Buckets() []*Bucket {
	return idx.buckets
}

// Bucket returns the bucket for ext, or nil when ext is not indexed.
func (idx *Index) Bucket(ext Extension) *Bucket {
	return idx.byExt[ext]
}

// Extensions returns the indexed extensions in probe order.
func (idx *Index) Extensions() []Extension {
	out := make([]Extension, 0, len(idx.buckets))
	for _, b := range idx.buckets {
		out = append(out, b.Ext)
	}
	return out
}

// Lookup returns the stored candidate equal to p (extension compared
// case-insensitively) within the bucket for ext.
func (idx *Index) Lookup(ext Extension, p pathref.Path) (pathref.Path, bool) {
	b := idx.byExt[ext]
	if b == nil {
		return "", false
	}
	found, ok := b.members[memberKey(p)]
	return found, ok
}

// Contains reports whether the bucket for ext holds p.
func (idx *Index) Contains(ext Extension, p pathref.Path) bool {
	_, ok := idx.Lookup(ext, p)
	return ok
}

// Len reports the total number of candidates.
func (idx *Index) Len() int {
	n := 0
	for _, b := range idx.buckets {
		n += len(b.paths)
	}
	return n
}

// Each visits every candidate in bucket order then discovery order, stopping
// when fn returns false.
func (idx *Index) Each(fn func(ext Extension, p pathref.Path) bool) {
	for _, b := range idx.buckets {
		for _, p := range b.paths {
			if !fn(b.Ext, p) {
				return
			}
		}
	}
}

func memberKey(p pathref.Path) string {
	s := string(p)
	ext := filepath.Ext(s)
	return strings.TrimSuffix(s, ext) + strings.ToLower(ext)
}

// ErrNoInputs is returned by Discover when no path yields a file.
var ErrNoInputs = errors.New("no input files found")
