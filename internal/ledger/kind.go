package ledger

import (
	"errors"
	"io/fs"
	"strings"
)

// Kind classifies why a subject failed.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindIntegrityMismatch
	KindIO
	KindUnsupported
	KindMerge
	KindConflict
)

var kindNames = map[Kind]string{
	KindNotFound:          "not_found",
	KindIntegrityMismatch: "integrity_mismatch",
	KindIO:                "io",
	KindUnsupported:       "unsupported",
	KindMerge:             "merge",
	KindConflict:          "conflict",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(value string) (Kind, bool) {
	value = strings.TrimSpace(value)
	for k, name := range kindNames {
		if name == value {
			return k, true
		}
	}
	return 0, false
}

type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }

func (e *kindError) Unwrap() error { return e.err }

// Mark tags err with kind so Classify reports it regardless of what the
// underlying chain looks like. A nil err stays nil.
func Mark(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}

// Classify maps an error chain to a Kind. Marked errors win; otherwise an
// existing destination is KindConflict and every other filesystem failure,
// a vanished path included, is KindIO. KindNotFound is only ever set with
// Mark, for a video whose sister file could not be resolved.
func Classify(err error) Kind {
	var marked *kindError
	if errors.As(err, &marked) {
		return marked.kind
	}
	switch {
	case errors.Is(err, fs.ErrExist):
		return KindConflict
	default:
		return KindIO
	}
}
