package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"slices"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Algorithm names a supported hash function.
type Algorithm string

const (
	SHA256     Algorithm = "sha256"
	SHA224     Algorithm = "sha224"
	SHA384     Algorithm = "sha384"
	SHA512     Algorithm = "sha512"
	SHA1       Algorithm = "sha1"
	MD5        Algorithm = "md5"
	SHA3_256   Algorithm = "sha3-256"
	SHA3_512   Algorithm = "sha3-512"
	BLAKE2b256 Algorithm = "blake2b-256"
	BLAKE2b512 Algorithm = "blake2b-512"
)

// DefaultAlgorithm is a 256-bit cryptographic hash.
const DefaultAlgorithm = SHA256

var constructors = map[Algorithm]func() hash.Hash{
	SHA256:   sha256.New,
	SHA224:   sha256.New224,
	SHA384:   sha512.New384,
	SHA512:   sha512.New,
	SHA1:     sha1.New,
	MD5:      md5.New,
	SHA3_256: func() hash.Hash { return sha3.New256() },
	SHA3_512: func() hash.Hash { return sha3.New512() },
	BLAKE2b256: func() hash.Hash {
		h, _ := blake2b.New256(nil)
		return h
	},
	BLAKE2b512: func() hash.Hash {
		h, _ := blake2b.New512(nil)
		return h
	},
}

// ParseAlgorithm normalizes a user supplied identifier. An empty value yields
// DefaultAlgorithm.
func ParseAlgorithm(value string) (Algorithm, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return DefaultAlgorithm, nil
	}
	alg := Algorithm(strings.ReplaceAll(value, "_", "-"))
	if _, ok := constructors[alg]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, value)
	}
	return alg, nil
}

// Supported lists every registered algorithm in sorted order.
func Supported() []Algorithm {
	out := make([]Algorithm, 0, len(constructors))
	for alg := range constructors {
		out = append(out, alg)
	}
	slices.Sort(out)
	return out
}

func (a Algorithm) String() string { return string(a) }

// Valid reports whether the algorithm is registered.
func (a Algorithm) Valid() bool {
	_, ok := constructors[a]
	return ok
}

func (a Algorithm) new() (hash.Hash, error) {
	ctor, ok := constructors[a]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, string(a))
	}
	return ctor(), nil
}
