package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"submerge/internal/candidates"
	"submerge/internal/digest"
	"submerge/internal/logging"
	"submerge/internal/sister"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// SubtitleDir is scanned for candidates. Empty means each video's own
	// directory.
	SubtitleDir string `toml:"subtitle_dir"`
	// ArchiveDir receives processed files. Empty means <video dir>/processed.
	ArchiveDir string `toml:"archive_dir"`
	LogDir     string `toml:"log_dir"`
	HistoryDB  string `toml:"history_db"`
}

// Matching controls sister-file resolution.
type Matching struct {
	FuzzyThreshold int `toml:"fuzzy_threshold"`
	// FuzzyScope is "path" (compare full paths) or "name" (base names only).
	FuzzyScope string   `toml:"fuzzy_scope"`
	Extensions []string `toml:"extensions"`
	Recursive  bool     `toml:"recursive"`
}

// Transfer controls verified copies and moves.
type Transfer struct {
	MaxAttempts int  `toml:"max_attempts"`
	Overwrite   bool `toml:"overwrite"`
}

// Hashing controls content digests.
type Hashing struct {
	Algorithm string `toml:"algorithm"`
	ChunkSize int    `toml:"chunk_size"`
}

// Audit controls the parallel audit pool.
type Audit struct {
	Workers int `toml:"workers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for submerge.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Matching Matching `toml:"matching"`
	Transfer Transfer `toml:"transfer"`
	Hashing  Hashing  `toml:"hashing"`
	Audit    Audit    `toml:"audit"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/submerge/config.toml")
}

// Load reads and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("submerge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log directory and the history database's
// parent directory.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir}
	if c.Paths.HistoryDB != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.HistoryDB))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ArchiveDirFor returns where processed files from videoDir are moved.
func (c *Config) ArchiveDirFor(videoDir string) string {
	if c.Paths.ArchiveDir != "" {
		return c.Paths.ArchiveDir
	}
	return filepath.Join(videoDir, defaultArchiveDirName)
}

// SubtitleDirFor returns the directory scanned for candidates of videos in
// videoDir.
func (c *Config) SubtitleDirFor(videoDir string) string {
	if c.Paths.SubtitleDir != "" {
		return c.Paths.SubtitleDir
	}
	return videoDir
}

// HashAlgorithm returns the parsed digest algorithm. Load has already
// validated it.
func (c *Config) HashAlgorithm() digest.Algorithm {
	alg, err := digest.ParseAlgorithm(c.Hashing.Algorithm)
	if err != nil {
		return digest.DefaultAlgorithm
	}
	return alg
}

// FuzzyScope returns the parsed fuzzy comparison scope.
func (c *Config) FuzzyScope() sister.Scope {
	scope, err := sister.ParseScope(c.Matching.FuzzyScope)
	if err != nil {
		return sister.ScopePath
	}
	return scope
}

// SubtitleExtensions returns the parsed extension list in probe order.
func (c *Config) SubtitleExtensions() []candidates.Extension {
	exts, err := candidates.ParseExtensions(c.Matching.Extensions)
	if err != nil {
		return append([]candidates.Extension(nil), candidates.DefaultExtensions...)
	}
	return exts
}

// LoggingOptions converts the logging section into logger construction
// options.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Format: c.Logging.Format,
		Level:  c.Logging.Level,
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
// An existing file is left untouched unless force is set.
func CreateSample(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %s already exists: %w", path, fs.ErrExist)
		}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
