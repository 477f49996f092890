package config

import (
	"errors"
	"fmt"

	"submerge/internal/candidates"
	"submerge/internal/digest"
	"submerge/internal/sister"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateTransfer(); err != nil {
		return err
	}
	if err := c.validateHashing(); err != nil {
		return err
	}
	if c.Audit.Workers < 1 {
		return errors.New("audit.workers must be >= 1")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.FuzzyThreshold < 0 || c.Matching.FuzzyThreshold > 100 {
		return errors.New("matching.fuzzy_threshold must be between 0 and 100")
	}
	if _, err := sister.ParseScope(c.Matching.FuzzyScope); err != nil {
		return fmt.Errorf("matching.fuzzy_scope: %w", err)
	}
	if len(c.Matching.Extensions) == 0 {
		return errors.New("matching.extensions must list at least one extension")
	}
	if _, err := candidates.ParseExtensions(c.Matching.Extensions); err != nil {
		return fmt.Errorf("matching.extensions: %w", err)
	}
	return nil
}

func (c *Config) validateTransfer() error {
	if c.Transfer.MaxAttempts < 1 {
		return errors.New("transfer.max_attempts must be >= 1")
	}
	return nil
}

func (c *Config) validateHashing() error {
	if _, err := digest.ParseAlgorithm(c.Hashing.Algorithm); err != nil {
		return fmt.Errorf("hashing.algorithm: %w", err)
	}
	if c.Hashing.ChunkSize < 1 {
		return errors.New("hashing.chunk_size must be positive")
	}
	return nil
}
