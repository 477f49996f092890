package digest

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"submerge/internal/logging"
	"submerge/internal/pathref"
)

// DefaultChunkSize is the read buffer used when streaming file content.
const DefaultChunkSize = 64 * 1024

// Hasher computes file and directory digests.
type Hasher struct {
	chunkSize int
	logger    *slog.Logger
}

// Option configures a Hasher.
type Option func(*Hasher)

// WithChunkSize overrides the streaming buffer size. Values below one are
// ignored.
func WithChunkSize(size int) Option {
	return func(h *Hasher) {
		if size > 0 {
			h.chunkSize = size
		}
	}
}

// WithLogger attaches a logger for debug tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hasher) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New constructs a Hasher with DefaultChunkSize.
func New(opts ...Option) *Hasher {
	h := &Hasher{chunkSize: DefaultChunkSize, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = logging.NewComponentLogger(h.logger, "digest")
	return h
}

// ChunkSize reports the configured streaming buffer size.
func (h *Hasher) ChunkSize() int {
	return h.chunkSize
}

// Hash returns the digest of path. Regular files hash their content;
// directories hash their name followed by each child's digest in sorted name
// order. path is canonicalized first, so a symlink to a directory hashes
// under the target's name.
func (h *Hasher) Hash(path string, alg Algorithm) (Digest, error) {
	if _, err := alg.new(); err != nil {
		return Digest{}, err
	}
	resolved, err := pathref.Resolve(path)
	if err != nil {
		return Digest{}, fmt.Errorf("hash %s: %w", path, err)
	}
	sum, err := h.hashPath(resolved.String(), alg, nil)
	if err != nil {
		return Digest{}, err
	}
	return Digest{Algorithm: alg, Sum: sum}, nil
}

// Compare hashes both paths independently and reports whether the digests
// match.
func (h *Hasher) Compare(a, b string, alg Algorithm) (bool, error) {
	da, err := h.Hash(a, alg)
	if err != nil {
		return false, err
	}
	db, err := h.Hash(b, alg)
	if err != nil {
		return false, err
	}
	return da.Equal(db), nil
}

// HashReader streams r through alg using the configured chunk size.
func (h *Hasher) HashReader(r io.Reader, alg Algorithm) (Digest, error) {
	hh, err := alg.new()
	if err != nil {
		return Digest{}, err
	}
	buf := make([]byte, h.chunkSize)
	if _, err := io.CopyBuffer(hh, r, buf); err != nil {
		return Digest{}, err
	}
	return Digest{Algorithm: alg, Sum: hh.Sum(nil)}, nil
}

func (h *Hasher) hashPath(path string, alg Algorithm, ancestors []string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if _, lerr := os.Lstat(path); lerr == nil {
				return nil, fmt.Errorf("hash %s: %w: broken symlink", path, ErrUnsupportedType)
			}
			return nil, fmt.Errorf("hash %s: %w: %w", path, ErrNotFound, err)
		}
		return nil, fmt.Errorf("hash %s: %w", path, err)
	}

	switch {
	case info.Mode().IsRegular():
		return h.hashFile(path, alg)
	case info.IsDir():
		return h.hashDir(path, alg, ancestors)
	default:
		return nil, fmt.Errorf("hash %s: %w: %s", path, ErrUnsupportedType, info.Mode().Type())
	}
}

func (h *Hasher) hashFile(path string, alg Algorithm) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	d, err := h.HashReader(f, alg)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return d.Sum, nil
}

type childSum struct {
	name string
	sum  []byte
}

func (h *Hasher) hashDir(path string, alg Algorithm, ancestors []string) ([]byte, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if slices.Contains(ancestors, resolved) {
		return nil, fmt.Errorf("hash %s: %w", path, ErrSymlinkCycle)
	}
	ancestors = append(ancestors, resolved)

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", path, err)
	}

	children := make([]childSum, 0, len(entries))
	for _, entry := range entries {
		sum, err := h.hashPath(filepath.Join(path, entry.Name()), alg, ancestors)
		if err != nil {
			return nil, err
		}
		children = append(children, childSum{name: entry.Name(), sum: sum})
	}
	slices.SortFunc(children, func(a, b childSum) int {
		return strings.Compare(a.name, b.name)
	})

	nameHash, _ := alg.new()
	nameHash.Write([]byte(filepath.Base(path)))

	hh, _ := alg.new()
	writeHex(hh, nameHash.Sum(nil))
	for _, child := range children {
		writeHex(hh, child.sum)
	}

	h.logger.Debug("hashed directory",
		logging.String("path", path),
		logging.Int("children", len(children)),
		logging.String("algorithm", string(alg)),
	)
	return hh.Sum(nil), nil
}

// writeHex feeds the lower-case hex form of sum, matching how directory
// digests have always been chained.
func writeHex(w io.Writer, sum []byte) {
	_, _ = io.WriteString(w, hex.EncodeToString(sum))
}
