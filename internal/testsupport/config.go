package testsupport

import (
	"path/filepath"
	"testing"

	"submerge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.HistoryDB = filepath.Join(base, "state", "history.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithArchiveDir sets paths.archive_dir relative to the config base dir.
func WithArchiveDir(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.ArchiveDir = filepath.Join(b.baseDir, name)
	}
}

// WithoutHistory disables the history database.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.HistoryDB = ""
	}
}

// WithMaxAttempts overrides transfer.max_attempts.
func WithMaxAttempts(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transfer.MaxAttempts = n
	}
}

// WithThreshold overrides matching.fuzzy_threshold.
func WithThreshold(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Matching.FuzzyThreshold = n
	}
}

// WithFuzzyScope overrides matching.fuzzy_scope.
func WithFuzzyScope(scope string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Matching.FuzzyScope = scope
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
