package digest

import (
	"bytes"
	"encoding/hex"
	"errors"
)

var (
	// ErrNotFound is returned when the path to hash does not exist.
	ErrNotFound = errors.New("path not found")
	// ErrUnsupportedAlgorithm is returned for unknown algorithm identifiers.
	ErrUnsupportedAlgorithm = errors.New("unsupported hash algorithm")
	// ErrUnsupportedType is returned for paths that are neither regular files
	// nor directories (broken symlinks, devices, sockets, pipes).
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrSymlinkCycle is returned when a followed directory symlink points back
	// into its own ancestry.
	ErrSymlinkCycle = errors.New("directory symlink cycle")
)

// Digest is a hash output tagged with the algorithm that produced it.
type Digest struct {
	Algorithm Algorithm
	Sum       []byte
}

// Equal reports whether both digests were produced by the same algorithm and
// carry identical bytes.
func (d Digest) Equal(other Digest) bool {
	return d.Algorithm == other.Algorithm && bytes.Equal(d.Sum, other.Sum)
}

// IsZero reports whether the digest carries no sum.
func (d Digest) IsZero() bool {
	return len(d.Sum) == 0
}

// Hex returns the lower-case hexadecimal sum.
func (d Digest) Hex() string {
	return hex.EncodeToString(d.Sum)
}

// String renders "<algorithm>:<hex>".
func (d Digest) String() string {
	if d.IsZero() {
		return ""
	}
	return string(d.Algorithm) + ":" + d.Hex()
}
