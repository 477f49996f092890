package preflight

import (
	"path/filepath"
	"strings"

	"submerge/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the path checks that apply to cfg.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	if dir := strings.TrimSpace(cfg.Paths.SubtitleDir); dir != "" {
		results = append(results, CheckDirectoryReadable("Subtitle directory", dir))
	}
	if dir := strings.TrimSpace(cfg.Paths.ArchiveDir); dir != "" {
		results = append(results, CheckCreatable("Archive directory", dir))
		results = append(results, CheckFreeSpace("Archive free space", dir, 0))
	}

	// Log directory (always checked)
	results = append(results, CheckCreatable("Log directory", cfg.Paths.LogDir))

	if db := strings.TrimSpace(cfg.Paths.HistoryDB); db != "" {
		results = append(results, CheckCreatable("History database directory", filepath.Dir(db)))
	}
	return results
}
