package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"submerge/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	logDir     string
	historyDB  string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	for _, key := range []string{"SUBMERGE_FUZZY_THRESHOLD", "SUBMERGE_MAX_ATTEMPTS", "SUBMERGE_HASH_ALGORITHM", "SUBMERGE_LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "submerge.toml"),
		logDir:     filepath.Join(base, "logs"),
		historyDB:  filepath.Join(base, "state", "history.db"),
	}
	content := fmt.Sprintf("[paths]\nlog_dir = %q\nhistory_db = %q\n\n[matching]\nfuzzy_scope = \"name\"\n\n[logging]\nlevel = \"warn\"\n", env.logDir, env.historyDB)
	testsupport.WriteText(t, env.configPath, content)
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(t.Context())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Fuzzy threshold: 75")
	requireContains(t, out, "Fuzzy scope: name")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config exists")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("validate sample: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Fuzzy scope: path")
}

func TestInvalidConfigRejected(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteText(t, env.configPath, "[matching]\nfuzzy_threshold = 140\n")

	if _, _, err := runCLI(t, []string{"check"}, env.configPath); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestHashAndCompare(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := t.TempDir()
	a := testsupport.WriteText(t, filepath.Join(dir, "a.srt"), "subtitle text")
	b := testsupport.WriteText(t, filepath.Join(dir, "b.srt"), "subtitle text")
	c := testsupport.WriteText(t, filepath.Join(dir, "c.srt"), "other text")

	out, _, err := runCLI(t, []string{"hash", a}, env.configPath)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	sum := sha256.Sum256([]byte("subtitle text"))
	requireContains(t, out, hex.EncodeToString(sum[:])+"  "+a)

	out, _, err = runCLI(t, []string{"hash", "--algorithm", "md5", "--json", a}, env.configPath)
	if err != nil {
		t.Fatalf("hash md5: %v", err)
	}
	var items []map[string]string
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("decode hash json: %v", err)
	}
	if len(items) != 1 || items[0]["algorithm"] != "md5" {
		t.Fatalf("unexpected hash json %v", items)
	}

	if _, _, err := runCLI(t, []string{"hash", "--algorithm", "crc32", a}, env.configPath); err == nil {
		t.Fatal("expected unsupported algorithm error")
	}

	out, _, err = runCLI(t, []string{"compare", a, b}, env.configPath)
	if err != nil {
		t.Fatalf("compare equal: %v", err)
	}
	requireContains(t, out, "match")

	_, _, err = runCLI(t, []string{"compare", a, c}, env.configPath)
	if !errors.Is(err, errContentsDiffer) {
		t.Fatalf("expected errContentsDiffer, got %v", err)
	}
}

func TestCopyAndMove(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := t.TempDir()
	src := testsupport.WriteText(t, filepath.Join(dir, "src", "movie.srt"), "lines")
	dest := filepath.Join(dir, "dest")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"copy", src, dest}, env.configPath)
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	requireContains(t, out, "Copied")
	if got := testsupport.ReadText(t, filepath.Join(dest, "movie.srt")); got != "lines" {
		t.Fatalf("copied content = %q", got)
	}

	if _, _, err := runCLI(t, []string{"copy", src, dest}, env.configPath); err == nil {
		t.Fatal("expected conflict copying onto existing destination")
	}

	out, _, err = runCLI(t, []string{"move", "--overwrite", src, dest}, env.configPath)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	requireContains(t, out, "Moved")
	testsupport.AssertMissing(t, src)
}

func writeLibrary(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	testsupport.WriteTree(t, root, map[string]string{
		"Show.S01E01.mkv":      "video one",
		"Show.S01E01.srt":      "subs one",
		"Movie Title 2020.mkv": "video two",
	})
	return root
}

func TestMatchListsPairs(t *testing.T) {
	env := setupCLITestEnv(t)
	root := writeLibrary(t)

	out, _, err := runCLI(t, []string{"match", root}, env.configPath)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	requireContains(t, out, "Video\tSister\tTier\tScore")
	requireContains(t, out, "Show.S01E01.mkv\tShow.S01E01.srt\texact\t-")
	requireContains(t, out, "Matched: 1 succeeded, 1 failed")
	requireContains(t, out, "Movie Title 2020.mkv\tnot_found")

	if _, err := os.Stat(filepath.Join(root, "Show.S01E01.srt")); err != nil {
		t.Fatalf("match moved files: %v", err)
	}
}

func TestBatchThenHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	root := writeLibrary(t)

	out, _, err := runCLI(t, []string{"batch", "--json", root}, env.configPath)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	var report struct {
		BatchID string `json:"batch_id"`
		Pairs   []struct {
			Primary  string `json:"primary"`
			Tier     string `json:"tier"`
			Archived bool   `json:"archived"`
		} `json:"pairs"`
		Summary struct {
			Successes int `json:"successes"`
			Failures  int `json:"failures"`
		} `json:"summary"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode batch json: %v\n%s", err, out)
	}
	if report.Summary.Successes != 1 || report.Summary.Failures != 1 {
		t.Fatalf("unexpected summary %+v", report.Summary)
	}
	if len(report.Pairs) != 1 || !report.Pairs[0].Archived || report.Pairs[0].Tier != "exact" {
		t.Fatalf("unexpected pairs %+v", report.Pairs)
	}
	if got := testsupport.ReadText(t, filepath.Join(root, "processed", "Show.S01E01.srt")); got != "subs one" {
		t.Fatalf("archived subtitle = %q", got)
	}

	out, _, err = runCLI(t, []string{"history", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, report.BatchID[:8])

	out, _, err = runCLI(t, []string{"history", "show", report.BatchID[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, "Result:   1 succeeded, 1 failed")
	requireContains(t, out, "Movie Title 2020.mkv\tnot_found")

	out, _, err = runCLI(t, []string{"history", "prune", "--days", "0"}, env.configPath)
	if err != nil {
		t.Fatalf("history prune: %v", err)
	}
	requireContains(t, out, "Removed 1 batch(es)")

	out, _, err = runCLI(t, []string{"logs", "--raw", report.BatchID}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, `"batch_id":"`+report.BatchID+`"`)
}

func TestBatchDryRun(t *testing.T) {
	env := setupCLITestEnv(t)
	root := writeLibrary(t)

	out, _, err := runCLI(t, []string{"batch", "--dry-run", root}, env.configPath)
	if err != nil {
		t.Fatalf("batch --dry-run: %v", err)
	}
	requireContains(t, out, "(dry run): 1 succeeded, 1 failed")
	testsupport.AssertMissing(t, filepath.Join(root, "processed"))
}

func TestAuditReportsDuplicates(t *testing.T) {
	env := setupCLITestEnv(t)
	root := t.TempDir()
	testsupport.WriteTree(t, root, map[string]string{
		"one.srt": "same",
		"two.srt": "same",
	})

	out, _, err := runCLI(t, []string{"audit", root}, env.configPath)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	requireContains(t, out, "Duplicate group 1:")
	requireContains(t, out, ": 2 succeeded, 0 failed")
}

func TestCheckPasses(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "Log directory:")
	requireContains(t, out, "[OK]")
}

func TestRenderTSVPadsShortRows(t *testing.T) {
	got := renderTSV([]string{"A", "B", "C"}, [][]string{{"1"}, {"2", "3", "4"}})
	want := "A\tB\tC\n1\t\t\n2\t3\t4\n"
	if got != want {
		t.Fatalf("renderTSV mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestPrintJSONIndentsSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, summaryJSON{Role: "batch", Successes: 1, Entries: []entryJSON{}}); err != nil {
		t.Fatalf("printJSON: %v", err)
	}
	want := "{\n  \"role\": \"batch\",\n  \"successes\": 1,\n  \"failures\": 0,\n  \"entries\": []\n}\n"
	if buf.String() != want {
		t.Fatalf("printJSON mismatch\n got: %q\nwant: %q", buf.String(), want)
	}
}
