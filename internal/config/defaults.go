package config

import "submerge/internal/candidates"

const (
	defaultLogDir           = "~/.local/share/submerge/logs"
	defaultHistoryDB        = "~/.local/share/submerge/history.db"
	defaultArchiveDirName   = "processed"
	defaultFuzzyThreshold   = 75
	defaultFuzzyScope       = "path"
	defaultRecursive        = true
	defaultMaxAttempts      = 3
	defaultHashAlgorithm    = "sha256"
	defaultChunkSize        = 64 * 1024
	defaultAuditWorkers     = 4
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
)

func defaultExtensions() []string {
	out := make([]string, 0, len(candidates.DefaultExtensions))
	for _, ext := range candidates.DefaultExtensions {
		out = append(out, ext.String())
	}
	return out
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:    defaultLogDir,
			HistoryDB: defaultHistoryDB,
		},
		Matching: Matching{
			FuzzyThreshold: defaultFuzzyThreshold,
			FuzzyScope:     defaultFuzzyScope,
			Extensions:     defaultExtensions(),
			Recursive:      defaultRecursive,
		},
		Transfer: Transfer{
			MaxAttempts: defaultMaxAttempts,
		},
		Hashing: Hashing{
			Algorithm: defaultHashAlgorithm,
			ChunkSize: defaultChunkSize,
		},
		Audit: Audit{
			Workers: defaultAuditWorkers,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
