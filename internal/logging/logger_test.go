package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"submerge/internal/logging"
)

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")

	logger, err := logging.New(logging.Options{
		Format: "console",
		Level:  "info",
		Path:   logPath,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
	if !strings.Contains(string(content), "INFO message without caller") {
		t.Fatalf("unexpected console line %q", content)
	}
}

func TestConsoleLoggerPrefixesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}

	logging.NewComponentLogger(logger, "sister").Info("match found",
		logging.String(logging.FieldTier, "exact"),
		logging.Subject("/media/show name.mkv"),
	)

	line := buf.String()
	if !strings.Contains(line, "sister: match found") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	if !strings.Contains(line, "tier=exact") {
		t.Fatalf("expected tier attr, got %q", line)
	}
	if !strings.Contains(line, `subject="/media/show name.mkv"`) {
		t.Fatalf("expected quoted subject, got %q", line)
	}
}

func TestConsoleLoggerFlattensGroups(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.WithGroup("copy").With(logging.Int(logging.FieldAttempt, 1)).Debug("attempt",
		slog.Group("digest", slog.String("src", "ab12")),
	)

	line := buf.String()
	for _, want := range []string{"DEBUG attempt [", "copy.attempt=1", "copy.digest.src=ab12"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestJSONLoggerRenamesKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Warn("integrity mismatch", logging.Int(logging.FieldAttempt, 2))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record["level"] != "warn" {
		t.Fatalf("expected lower-case level, got %v", record["level"])
	}
	if record["msg"] != "integrity mismatch" {
		t.Fatalf("unexpected msg %v", record["msg"])
	}
	if _, ok := record["ts"]; !ok {
		t.Fatal("expected ts key")
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logging.WarnWithContext(logger, "no sister file", "sister_not_found")

	line := buf.String()
	for _, want := range []string{"event_type=sister_not_found", "error_hint=", "impact="} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("dropped")
	if logger.Enabled(t.Context(), 0) {
		t.Fatal("nop logger should not be enabled")
	}
}
