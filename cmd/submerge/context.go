package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"submerge/internal/batch"
	"submerge/internal/config"
	"submerge/internal/digest"
	"submerge/internal/history"
	"submerge/internal/logging"
	"submerge/internal/transfer"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
			if err := cfg.Validate(); err != nil {
				c.configErr = err
				return
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// logger writes to the command's stderr so stdout stays machine readable.
func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	opts := cfg.LoggingOptions()
	opts.Writer = cmd.ErrOrStderr()
	return logging.New(opts)
}

// openHistory returns nil when paths.history_db is empty.
func (c *commandContext) openHistory(ctx context.Context) (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Paths.HistoryDB) == "" {
		return nil, nil
	}
	return history.Open(ctx, cfg.Paths.HistoryDB)
}

// withRunner builds a batch runner wired to the logger and history store and
// releases them after fn returns.
func (c *commandContext) withRunner(cmd *cobra.Command, fn func(*batch.Runner) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.logger(cmd)
	if err != nil {
		return err
	}
	opts := []batch.Option{batch.WithLogger(logger)}
	store, err := c.openHistory(cmd.Context())
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		opts = append(opts, batch.WithHistory(store))
	}
	return fn(batch.New(cfg, opts...))
}

func (c *commandContext) hasher(logger *slog.Logger) *digest.Hasher {
	cfg, _ := c.ensureConfig()
	return digest.New(digest.WithChunkSize(cfg.Hashing.ChunkSize), digest.WithLogger(logger))
}

func (c *commandContext) transfer(logger *slog.Logger, overwrite bool) *transfer.Transfer {
	cfg, _ := c.ensureConfig()
	return transfer.New(c.hasher(logger),
		transfer.WithAlgorithm(cfg.HashAlgorithm()),
		transfer.WithMaxAttempts(cfg.Transfer.MaxAttempts),
		transfer.WithOverwrite(cfg.Transfer.Overwrite || overwrite),
		transfer.WithLogger(logger),
	)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
