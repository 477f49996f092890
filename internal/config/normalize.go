package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variables that override file values when set.
const (
	EnvFuzzyThreshold = "SUBMERGE_FUZZY_THRESHOLD"
	EnvMaxAttempts    = "SUBMERGE_MAX_ATTEMPTS"
	EnvHashAlgorithm  = "SUBMERGE_HASH_ALGORITHM"
	EnvLogLevel       = "SUBMERGE_LOG_LEVEL"
)

func (c *Config) normalize() error {
	if err := c.applyEnv(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMatching()
	c.normalizeHashing()
	c.normalizeLogging()
	return nil
}

func (c *Config) applyEnv() error {
	if value, ok := lookupEnv(EnvFuzzyThreshold); ok {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvFuzzyThreshold, err)
		}
		c.Matching.FuzzyThreshold = n
	}
	if value, ok := lookupEnv(EnvMaxAttempts); ok {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxAttempts, err)
		}
		c.Transfer.MaxAttempts = n
	}
	if value, ok := lookupEnv(EnvHashAlgorithm); ok {
		c.Hashing.Algorithm = value
	}
	if value, ok := lookupEnv(EnvLogLevel); ok {
		c.Logging.Level = value
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.SubtitleDir, err = expandPath(strings.TrimSpace(c.Paths.SubtitleDir)); err != nil {
		return fmt.Errorf("paths.subtitle_dir: %w", err)
	}
	if c.Paths.ArchiveDir, err = expandPath(strings.TrimSpace(c.Paths.ArchiveDir)); err != nil {
		return fmt.Errorf("paths.archive_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.HistoryDB, err = expandPath(strings.TrimSpace(c.Paths.HistoryDB)); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeMatching() {
	c.Matching.FuzzyScope = strings.ToLower(strings.TrimSpace(c.Matching.FuzzyScope))
	if c.Matching.FuzzyScope == "" {
		c.Matching.FuzzyScope = defaultFuzzyScope
	}
	if len(c.Matching.Extensions) == 0 {
		c.Matching.Extensions = defaultExtensions()
		return
	}
	exts := make([]string, 0, len(c.Matching.Extensions))
	for _, ext := range c.Matching.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	c.Matching.Extensions = exts
}

func (c *Config) normalizeHashing() {
	c.Hashing.Algorithm = strings.ToLower(strings.TrimSpace(c.Hashing.Algorithm))
	if c.Hashing.Algorithm == "" {
		c.Hashing.Algorithm = defaultHashAlgorithm
	}
	if c.Hashing.ChunkSize == 0 {
		c.Hashing.ChunkSize = defaultChunkSize
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
