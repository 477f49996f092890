package config_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pelletier/go-toml/v2"

	"submerge/internal/candidates"
	"submerge/internal/config"
	"submerge/internal/digest"
	"submerge/internal/sister"
)

func TestLoadDefaultsExpandPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(tempHome, ".config", "submerge", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if cfg.Paths.LogDir != filepath.Join(tempHome, ".local", "share", "submerge", "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.Matching.FuzzyThreshold != 75 || cfg.Transfer.MaxAttempts != 3 || cfg.Hashing.ChunkSize != 65536 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.HashAlgorithm() != digest.SHA256 {
		t.Fatalf("HashAlgorithm = %s", cfg.HashAlgorithm())
	}
	if cfg.FuzzyScope() != sister.ScopePath {
		t.Fatalf("FuzzyScope = %s", cfg.FuzzyScope())
	}
	if diff := cmp.Diff(candidates.DefaultExtensions, cfg.SubtitleExtensions()); diff != "" {
		t.Fatalf("extensions mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.ArchiveDirFor("/videos/show"); got != "/videos/show/processed" {
		t.Fatalf("ArchiveDirFor = %q", got)
	}
	if got := cfg.SubtitleDirFor("/videos/show"); got != "/videos/show" {
		t.Fatalf("SubtitleDirFor = %q", got)
	}
}

func TestLoadFindsProjectConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	project := t.TempDir()
	t.Chdir(project)
	if err := os.WriteFile("submerge.toml", []byte("[audit]\nworkers = 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || filepath.Base(resolved) != "submerge.toml" {
		t.Fatalf("resolved=%q exists=%v", resolved, exists)
	}
	if cfg.Audit.Workers != 9 {
		t.Fatalf("Workers = %d, want 9", cfg.Audit.Workers)
	}
}

func TestLoadCustomConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "submerge.toml")

	custom := config.Default()
	custom.Paths.ArchiveDir = filepath.Join(tempDir, "archive")
	custom.Paths.SubtitleDir = filepath.Join(tempDir, "subs")
	custom.Matching.FuzzyThreshold = 80
	custom.Matching.FuzzyScope = " Name"
	custom.Matching.Extensions = []string{"ASS", ".srt"}
	custom.Hashing.Algorithm = "BLAKE2B_256"
	custom.Logging.Format = "JSON"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("resolved=%q exists=%v", resolved, exists)
	}
	if cfg.Matching.FuzzyThreshold != 80 {
		t.Fatalf("threshold = %d", cfg.Matching.FuzzyThreshold)
	}
	if cfg.FuzzyScope() != sister.ScopeName {
		t.Fatalf("FuzzyScope = %s", cfg.FuzzyScope())
	}
	if diff := cmp.Diff([]candidates.Extension{candidates.ASS, candidates.SRT}, cfg.SubtitleExtensions()); diff != "" {
		t.Fatalf("extensions mismatch (-want +got):\n%s", diff)
	}
	if cfg.HashAlgorithm() != digest.BLAKE2b256 {
		t.Fatalf("HashAlgorithm = %s", cfg.HashAlgorithm())
	}
	if cfg.LoggingOptions().Format != "json" {
		t.Fatalf("log format = %q", cfg.LoggingOptions().Format)
	}
	if got := cfg.ArchiveDirFor("/anything"); got != custom.Paths.ArchiveDir {
		t.Fatalf("ArchiveDirFor = %q", got)
	}
}

func TestEnvOverridesConfigFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "submerge.toml")
	body := "[matching]\nfuzzy_threshold = 60\n[transfer]\nmax_attempts = 2\n[hashing]\nalgorithm = \"md5\"\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.EnvFuzzyThreshold, "90")
	t.Setenv(config.EnvMaxAttempts, "5")
	t.Setenv(config.EnvHashAlgorithm, "sha512")
	t.Setenv(config.EnvLogLevel, "DEBUG")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Matching.FuzzyThreshold != 90 || cfg.Transfer.MaxAttempts != 5 {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.HashAlgorithm() != digest.SHA512 || cfg.Logging.Level != "debug" {
		t.Fatalf("algorithm=%s level=%s", cfg.HashAlgorithm(), cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
		want string
	}{
		{name: "threshold", body: "[matching]\nfuzzy_threshold = 101\n", want: "fuzzy_threshold"},
		{name: "scope", body: "[matching]\nfuzzy_scope = \"dir\"\n", want: "matching.fuzzy_scope"},
		{name: "extension", body: "[matching]\nextensions = [\".mkv\"]\n", want: "matching.extensions"},
		{name: "attempts", body: "[transfer]\nmax_attempts = 0\n", want: "max_attempts"},
		{name: "algorithm", body: "[hashing]\nalgorithm = \"crc32\"\n", want: "hashing.algorithm"},
		{name: "chunk", body: "[hashing]\nchunk_size = -1\n", want: "chunk_size"},
		{name: "workers", body: "[audit]\nworkers = 0\n", want: "audit.workers"},
		{name: "level", body: "[logging]\nlevel = \"loud\"\n", want: "logging.level"},
		{name: "unknown key", body: "[matching]\nthreshold = 10\n", want: "parse config"},
		{name: "env not a number", env: map[string]string{config.EnvMaxAttempts: "many"}, want: config.EnvMaxAttempts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "submerge.toml")
			if err := os.WriteFile(configPath, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, _, _, err := config.Load(configPath)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestSampleConfigLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path, false); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	if err := config.CreateSample(path, false); !errors.Is(err, fs.ErrExist) {
		t.Fatalf("second CreateSample error = %v, want ErrExist", err)
	}
	if err := config.CreateSample(path, true); err != nil {
		t.Fatalf("forced CreateSample: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	def := config.Default()
	if cfg.Matching.FuzzyThreshold != def.Matching.FuzzyThreshold || cfg.Audit.Workers != def.Audit.Workers {
		t.Fatalf("sample diverges from defaults: %+v", cfg)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.HistoryDB = filepath.Join(base, "state", "history.db")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, filepath.Dir(cfg.Paths.HistoryDB)} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
