// Package transfer copies and moves files and directory trees with content
// verification.
//
// The source digest is computed once. Each attempt copies and rehashes the
// destination; a mismatch removes the destination before the next try. After
// the final failed attempt the destination is absent and the Outcome carries
// ledger.KindIntegrityMismatch. A move removes its source only after a verified
// copy.
//
// Filesystem failures (permission denied, disk full, missing source) are
// returned as errors rather than folded into an integrity Outcome.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"submerge/internal/digest"
	"submerge/internal/ledger"
	"submerge/internal/logging"
	"submerge/internal/pathref"
)

// DefaultMaxAttempts bounds copy attempts when none is configured.
const DefaultMaxAttempts = 3

var (
	// ErrDestinationExists is returned when the final destination already
	// exists and overwriting is disabled.
	ErrDestinationExists = errors.New("destination already exists")
	// ErrSamePath is returned when source and destination resolve to the same
	// path.
	ErrSamePath = errors.New("source and destination are the same path")
	// ErrDirectoryRename is returned when a directory would be copied under a
	// different base name; directory digests include the root name so such a
	// copy could never verify.
	ErrDirectoryRename = errors.New("directory copies must keep their name")
)

// Outcome describes a finished transfer. Kind is zero on success.
type Outcome struct {
	Source      pathref.Path
	Destination pathref.Path
	Digest      digest.Digest
	Attempts    int
	Kind        ledger.Kind
}

// OK reports whether the transfer verified.
func (o Outcome) OK() bool {
	return o.Kind == 0
}

// Option configures a Transfer.
type Option func(*Transfer)

// WithAlgorithm selects the digest algorithm used for verification.
func WithAlgorithm(alg digest.Algorithm) Option {
	return func(t *Transfer) {
		t.algorithm = alg
	}
}

// WithMaxAttempts sets the default attempt bound. Values below one are ignored.
func WithMaxAttempts(n int) Option {
	return func(t *Transfer) {
		if n > 0 {
			t.maxAttempts = n
		}
	}
}

// WithOverwrite allows replacing an existing destination.
func WithOverwrite(overwrite bool) Option {
	return func(t *Transfer) {
		t.overwrite = overwrite
	}
}

// WithCopier replaces CopyPath, mainly to simulate corruption in tests.
func WithCopier(fn CopyFunc) Option {
	return func(t *Transfer) {
		if fn != nil {
			t.copier = fn
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transfer) {
		t.logger = logger
	}
}

// Transfer performs verified copies and moves.
type Transfer struct {
	hasher      *digest.Hasher
	algorithm   digest.Algorithm
	maxAttempts int
	overwrite   bool
	copier      CopyFunc
	logger      *slog.Logger
}

// New builds a Transfer around hasher. A nil hasher uses digest.New().
func New(hasher *digest.Hasher, opts ...Option) *Transfer {
	if hasher == nil {
		hasher = digest.New()
	}
	t := &Transfer{
		hasher:      hasher,
		algorithm:   digest.DefaultAlgorithm,
		maxAttempts: DefaultMaxAttempts,
		copier:      CopyPath,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = logging.NewComponentLogger(t.logger, "transfer")
	return t
}

// CopyVerified copies src to dst, verifying the result by digest. When dst is
// an existing directory the copy lands at dst/<base(src)>. maxAttempts below
// one uses the configured default.
func (t *Transfer) CopyVerified(ctx context.Context, src, dst string, maxAttempts int) (Outcome, error) {
	if maxAttempts < 1 {
		maxAttempts = t.maxAttempts
	}
	source, target, srcInfo, err := t.prepare(src, dst)
	if err != nil {
		return Outcome{}, err
	}
	logger := t.logger.With(
		logging.Subject(source.String()),
		logging.String("destination", target.String()),
		logging.String(logging.FieldAlgorithm, t.algorithm.String()),
	)

	want, err := t.hasher.Hash(source.String(), t.algorithm)
	if err != nil {
		return Outcome{}, classifyHashError(err)
	}

	outcome := Outcome{Source: source, Destination: target, Digest: want}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}
		outcome.Attempts = attempt

		if err := t.copier(source.String(), target.String()); err != nil {
			_ = os.RemoveAll(target.String())
			return outcome, fmt.Errorf("copy %s to %s: %w", source, target, err)
		}
		got, err := t.hasher.Hash(target.String(), t.algorithm)
		if err != nil {
			_ = os.RemoveAll(target.String())
			return outcome, fmt.Errorf("verify %s: %w", target, err)
		}
		if got.Equal(want) {
			logger.Debug("copy verified", logging.Int(logging.FieldAttempt, attempt), logging.Bool("dir", srcInfo.IsDir()))
			return outcome, nil
		}

		if err := os.RemoveAll(target.String()); err != nil {
			return outcome, fmt.Errorf("remove corrupt copy %s: %w", target, err)
		}
		logging.WarnWithContext(logger, "copy digest mismatch, retrying", "transfer_integrity_retry",
			logging.Int(logging.FieldAttempt, attempt),
			logging.Int("max_attempts", maxAttempts),
			logging.String("expected", want.Hex()),
			logging.String("actual", got.Hex()),
			logging.String(logging.FieldImpact, "copy discarded"),
			logging.String(logging.FieldErrorHint, "check the destination disk for faults"),
		)
	}

	logging.ErrorWithContext(logger, "copy failed integrity verification", "transfer_integrity_failed",
		logging.Int("attempts", maxAttempts),
		logging.Alert("integrity_mismatch"),
		logging.String(logging.FieldErrorHint, "source kept; check the destination disk for faults"),
	)
	outcome.Kind = ledger.KindIntegrityMismatch
	return outcome, nil
}

// MoveVerified copies src to dst with CopyVerified and removes src only when
// the copy verified. When src is a symlink the link target is moved and the
// link itself is removed with it.
func (t *Transfer) MoveVerified(ctx context.Context, src, dst string, maxAttempts int) (Outcome, error) {
	var link string
	if info, err := os.Lstat(src); err == nil && info.Mode()&os.ModeSymlink != 0 {
		link = src
	}
	outcome, err := t.CopyVerified(ctx, src, dst, maxAttempts)
	if err != nil || !outcome.OK() {
		return outcome, err
	}
	if err := os.RemoveAll(outcome.Source.String()); err != nil {
		return outcome, fmt.Errorf("remove source %s after verified copy: %w", outcome.Source, err)
	}
	if link != "" {
		if err := os.Remove(link); err != nil && !os.IsNotExist(err) {
			return outcome, fmt.Errorf("remove source link %s: %w", link, err)
		}
	}
	t.logger.Debug("source removed", logging.Subject(outcome.Source.String()), logging.String("link", link))
	return outcome, nil
}

// prepare resolves the final destination and enforces conflict rules.
func (t *Transfer) prepare(src, dst string) (pathref.Path, pathref.Path, os.FileInfo, error) {
	source, err := pathref.Resolve(src)
	if err != nil {
		return "", "", nil, err
	}
	srcInfo, err := os.Stat(source.String())
	if err != nil {
		return "", "", nil, fmt.Errorf("stat source: %w", err)
	}
	if !srcInfo.Mode().IsRegular() && !srcInfo.IsDir() {
		return "", "", nil, ledger.Mark(ledger.KindUnsupported,
			fmt.Errorf("%s: %w: %s", source, digest.ErrUnsupportedType, srcInfo.Mode().Type()))
	}

	target, err := pathref.Resolve(dst)
	if err != nil {
		return "", "", nil, err
	}
	if info, err := os.Stat(target.String()); err == nil && info.IsDir() {
		target = target.Join(source.Base())
	}
	if target == source {
		return "", "", nil, ledger.Mark(ledger.KindConflict, fmt.Errorf("%s: %w", source, ErrSamePath))
	}
	if srcInfo.IsDir() && strings.HasPrefix(target.String(), source.String()+string(filepath.Separator)) {
		return "", "", nil, ledger.Mark(ledger.KindConflict, fmt.Errorf("%s is inside %s: %w", target, source, ErrSamePath))
	}
	if srcInfo.IsDir() && target.Base() != source.Base() {
		return "", "", nil, ledger.Mark(ledger.KindUnsupported, fmt.Errorf("%s -> %s: %w", source, target, ErrDirectoryRename))
	}

	if _, err := os.Lstat(target.String()); err == nil {
		if !t.overwrite {
			return "", "", nil, ledger.Mark(ledger.KindConflict, fmt.Errorf("%s: %w", target, ErrDestinationExists))
		}
		if err := os.RemoveAll(target.String()); err != nil {
			return "", "", nil, fmt.Errorf("replace %s: %w", target, err)
		}
	} else if !os.IsNotExist(err) {
		return "", "", nil, fmt.Errorf("stat destination: %w", err)
	}

	if err := os.MkdirAll(target.Dir().String(), 0o755); err != nil {
		return "", "", nil, fmt.Errorf("create destination directory: %w", err)
	}
	return source, target, srcInfo, nil
}

func classifyHashError(err error) error {
	if errors.Is(err, digest.ErrUnsupportedType) || errors.Is(err, digest.ErrSymlinkCycle) {
		return ledger.Mark(ledger.KindUnsupported, err)
	}
	return err
}
