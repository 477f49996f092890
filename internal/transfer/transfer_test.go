package transfer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"submerge/internal/digest"
	"submerge/internal/ledger"
	"submerge/internal/pathref"
	"submerge/internal/testsupport"
)

// corruptingCopier copies correctly but, for the first `failures` calls,
// appends garbage to the copied file or, for a tree, to its first regular
// file in walk order.
func corruptingCopier(t *testing.T, failures int) (CopyFunc, *int) {
	t.Helper()
	calls := 0
	return func(src, dst string) error {
		calls++
		if err := CopyPath(src, dst); err != nil {
			return err
		}
		if calls > failures {
			return nil
		}
		victim, err := firstRegularFile(dst)
		if err != nil {
			return err
		}
		f, err := os.OpenFile(victim, os.O_APPEND|os.O_WRONLY, 0)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = f.WriteString("corrupt")
		return err
	}, &calls
}

func firstRegularFile(root string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err == nil && found == "" {
		err = fmt.Errorf("no regular file under %s", root)
	}
	return found, err
}

func TestCopyVerifiedFile(t *testing.T) {
	dir := t.TempDir()
	src := testsupport.WriteText(t, filepath.Join(dir, "in", "movie.mkv"), "video bytes")
	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := os.Chtimes(src, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(src, 0o600); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "out", "movie.mkv")

	outcome, err := New(nil).CopyVerified(t.Context(), src, dst, 0)
	if err != nil {
		t.Fatalf("CopyVerified: %v", err)
	}
	if !outcome.OK() || outcome.Attempts != 1 {
		t.Fatalf("outcome = %+v, want success on first attempt", outcome)
	}
	if outcome.Destination != pathref.MustResolve(dst) {
		t.Fatalf("Destination = %s, want %s", outcome.Destination, dst)
	}
	if got := testsupport.ReadText(t, dst); got != "video bytes" {
		t.Fatalf("content = %q", got)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(mtime) {
		t.Fatalf("mtime = %v, want %v", info.ModTime(), mtime)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %o, want 600", info.Mode().Perm())
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("source should remain after copy: %v", err)
	}
}

func TestCopyVerifiedIntoDirectory(t *testing.T) {
	dir := t.TempDir()
	src := testsupport.WriteText(t, filepath.Join(dir, "a.srt"), "subs")
	archive := filepath.Join(dir, "processed")
	if err := os.Mkdir(archive, 0o755); err != nil {
		t.Fatal(err)
	}

	outcome, err := New(nil).CopyVerified(t.Context(), src, archive, 0)
	if err != nil {
		t.Fatalf("CopyVerified: %v", err)
	}
	want := pathref.MustResolve(filepath.Join(archive, "a.srt"))
	if outcome.Destination != want {
		t.Fatalf("Destination = %s, want %s", outcome.Destination, want)
	}
}

func TestCopyVerifiedEmptyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "empty.srt")
	if err := os.WriteFile(src, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	outcome, err := New(nil).CopyVerified(t.Context(), src, filepath.Join(dir, "copy.srt"), 1)
	if err != nil || !outcome.OK() {
		t.Fatalf("CopyVerified empty = %+v, %v", outcome, err)
	}
}

func TestCopyVerifiedDirectoryTree(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "season")
	testsupport.WriteTree(t, src, map[string]string{
		"e01.mkv":      "one",
		"e02.mkv":      "two",
		"extras/a.srt": "subs",
		"empty/":       "",
	})
	dstParent := filepath.Join(dir, "archive")
	if err := os.Mkdir(dstParent, 0o755); err != nil {
		t.Fatal(err)
	}

	tr := New(digest.New())
	outcome, err := tr.CopyVerified(t.Context(), src, dstParent, 0)
	if err != nil || !outcome.OK() {
		t.Fatalf("CopyVerified tree = %+v, %v", outcome, err)
	}
	same, err := digest.New().Compare(src, outcome.Destination.String(), digest.DefaultAlgorithm)
	if err != nil || !same {
		t.Fatalf("tree digests differ: same=%v err=%v", same, err)
	}
	if got := testsupport.ReadText(t, filepath.Join(dstParent, "season", "extras", "a.srt")); got != "subs" {
		t.Fatalf("nested content = %q", got)
	}
}

func TestCopyVerifiedRejectsDirectoryRename(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "season")
	testsupport.WriteTree(t, src, map[string]string{"e01.mkv": "one"})

	_, err := New(nil).CopyVerified(t.Context(), src, filepath.Join(dir, "renamed"), 0)
	if !errors.Is(err, ErrDirectoryRename) {
		t.Fatalf("expected ErrDirectoryRename, got %v", err)
	}
	if ledger.Classify(err) != ledger.KindUnsupported {
		t.Fatalf("Classify = %s", ledger.Classify(err))
	}
}

func TestCopyVerifiedTransientCorruption(t *testing.T) {
	dir := t.TempDir()
	src := testsupport.WriteText(t, filepath.Join(dir, "movie.mkv"), "payload")
	dst := filepath.Join(dir, "out.mkv")
	copier, calls := corruptingCopier(t, 1)

	outcome, err := New(nil, WithCopier(copier)).CopyVerified(t.Context(), src, dst, 3)
	if err != nil {
		t.Fatalf("CopyVerified: %v", err)
	}
	if !outcome.OK() || outcome.Attempts != 2 || *calls != 2 {
		t.Fatalf("outcome = %+v calls=%d, want success on attempt 2", outcome, *calls)
	}
	if got := testsupport.ReadText(t, dst); got != "payload" {
		t.Fatalf("content = %q", got)
	}
}

func TestCopyVerifiedPermanentCorruption(t *testing.T) {
	dir := t.TempDir()
	src := testsupport.WriteText(t, filepath.Join(dir, "movie.mkv"), "payload")
	dst := filepath.Join(dir, "out.mkv")
	copier, calls := corruptingCopier(t, 100)

	outcome, err := New(nil, WithCopier(copier)).CopyVerified(t.Context(), src, dst, 3)
	if err != nil {
		t.Fatalf("CopyVerified returned error instead of outcome: %v", err)
	}
	if outcome.Kind != ledger.KindIntegrityMismatch || outcome.Attempts != 3 || *calls != 3 {
		t.Fatalf("outcome = %+v calls=%d, want integrity mismatch after 3 attempts", outcome, *calls)
	}
	testsupport.AssertMissing(t, dst)
}

func nestedTree(t *testing.T, dir string) string {
	t.Helper()
	src := filepath.Join(dir, "season")
	testsupport.WriteTree(t, src, map[string]string{
		"extras/featurette/a.srt": "subs",
		"extras/b.srt":            "more subs",
	})
	return src
}

func TestCopyVerifiedTreeTransientCorruption(t *testing.T) {
	dir := t.TempDir()
	src := nestedTree(t, dir)
	dst := filepath.Join(dir, "archive", "season")
	copier, calls := corruptingCopier(t, 1)

	outcome, err := New(nil, WithCopier(copier)).CopyVerified(t.Context(), src, dst, 3)
	if err != nil {
		t.Fatalf("CopyVerified: %v", err)
	}
	if !outcome.OK() || outcome.Attempts != 2 || *calls != 2 {
		t.Fatalf("outcome = %+v calls=%d, want success on attempt 2", outcome, *calls)
	}
	if got := testsupport.ReadText(t, filepath.Join(dst, "extras", "featurette", "a.srt")); got != "subs" {
		t.Fatalf("nested content = %q", got)
	}
}

func TestCopyVerifiedTreePermanentCorruption(t *testing.T) {
	dir := t.TempDir()
	src := nestedTree(t, dir)
	dst := filepath.Join(dir, "archive", "season")
	copier, calls := corruptingCopier(t, 100)

	outcome, err := New(nil, WithCopier(copier)).CopyVerified(t.Context(), src, dst, 3)
	if err != nil {
		t.Fatalf("CopyVerified returned error instead of outcome: %v", err)
	}
	if outcome.Kind != ledger.KindIntegrityMismatch || outcome.Attempts != 3 || *calls != 3 {
		t.Fatalf("outcome = %+v calls=%d, want integrity mismatch after 3 attempts", outcome, *calls)
	}
	testsupport.AssertMissing(t, dst)
	if got := testsupport.ReadText(t, filepath.Join(src, "extras", "featurette", "a.srt")); got != "subs" {
		t.Fatalf("source altered: %q", got)
	}
}

func TestCopyVerifiedDefaultAttempts(t *testing.T) {
	dir := t.TempDir()
	src := testsupport.WriteText(t, filepath.Join(dir, "movie.mkv"), "payload")
	copier, calls := corruptingCopier(t, 100)

	outcome, err := New(nil, WithCopier(copier), WithMaxAttempts(2)).CopyVerified(t.Context(), src, filepath.Join(dir, "out.mkv"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Attempts != 2 || *calls != 2 {
		t.Fatalf("attempts = %d calls=%d, want 2", outcome.Attempts, *calls)
	}
}

func TestCopyVerifiedConflicts(t *testing.T) {
	dir := t.TempDir()
	src := testsupport.WriteText(t, filepath.Join(dir, "a.srt"), "new")
	dst := testsupport.WriteText(t, filepath.Join(dir, "b.srt"), "old")

	_, err := New(nil).CopyVerified(t.Context(), src, dst, 0)
	if !errors.Is(err, ErrDestinationExists) || ledger.Classify(err) != ledger.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if got := testsupport.ReadText(t, dst); got != "old" {
		t.Fatalf("destination modified on conflict: %q", got)
	}

	outcome, err := New(nil, WithOverwrite(true)).CopyVerified(t.Context(), src, dst, 0)
	if err != nil || !outcome.OK() {
		t.Fatalf("overwrite = %+v, %v", outcome, err)
	}
	if got := testsupport.ReadText(t, dst); got != "new" {
		t.Fatalf("destination = %q, want new", got)
	}

	if _, err := New(nil).CopyVerified(t.Context(), src, src, 0); !errors.Is(err, ErrSamePath) {
		t.Fatalf("expected ErrSamePath, got %v", err)
	}
}

func TestCopyVerifiedMissingSource(t *testing.T) {
	dir := t.TempDir()
	_, err := New(nil).CopyVerified(t.Context(), filepath.Join(dir, "nope.mkv"), filepath.Join(dir, "out.mkv"), 0)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if ledger.Classify(err) != ledger.KindIO {
		t.Fatalf("Classify = %s", ledger.Classify(err))
	}
}

func TestCopyVerifiedCopyErrorIsNotIntegrity(t *testing.T) {
	dir := t.TempDir()
	src := testsupport.WriteText(t, filepath.Join(dir, "a.mkv"), "x")
	dst := filepath.Join(dir, "b.mkv")
	boom := errors.New("disk full")
	failing := func(_, to string) error {
		if err := os.WriteFile(to, []byte("partial"), 0o644); err != nil {
			return err
		}
		return boom
	}

	outcome, err := New(nil, WithCopier(failing)).CopyVerified(t.Context(), src, dst, 3)
	if !errors.Is(err, boom) {
		t.Fatalf("expected copy error, got %v", err)
	}
	if outcome.Kind == ledger.KindIntegrityMismatch {
		t.Fatalf("I/O failure reported as integrity mismatch")
	}
	testsupport.AssertMissing(t, dst)
}

func TestCopyVerifiedHonoursCancellation(t *testing.T) {
	dir := t.TempDir()
	src := testsupport.WriteText(t, filepath.Join(dir, "a.mkv"), "x")
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if _, err := New(nil).CopyVerified(ctx, src, filepath.Join(dir, "b.mkv"), 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMoveVerified(t *testing.T) {
	t.Run("removes source on success", func(t *testing.T) {
		dir := t.TempDir()
		src := testsupport.WriteText(t, filepath.Join(dir, "movie.mkv"), "payload")
		dst := filepath.Join(dir, "processed", "movie.mkv")

		outcome, err := New(nil).MoveVerified(t.Context(), src, dst, 0)
		if err != nil || !outcome.OK() {
			t.Fatalf("MoveVerified = %+v, %v", outcome, err)
		}
		testsupport.AssertMissing(t, src)
		if got := testsupport.ReadText(t, dst); got != "payload" {
			t.Fatalf("content = %q", got)
		}
	})

	t.Run("keeps source on integrity failure", func(t *testing.T) {
		dir := t.TempDir()
		src := testsupport.WriteText(t, filepath.Join(dir, "movie.mkv"), "payload")
		dst := filepath.Join(dir, "processed", "movie.mkv")
		copier, _ := corruptingCopier(t, 100)

		outcome, err := New(nil, WithCopier(copier)).MoveVerified(t.Context(), src, dst, 2)
		if err != nil {
			t.Fatal(err)
		}
		if outcome.Kind != ledger.KindIntegrityMismatch {
			t.Fatalf("Kind = %s, want integrity mismatch", outcome.Kind)
		}
		if got := testsupport.ReadText(t, src); got != "payload" {
			t.Fatalf("source altered: %q", got)
		}
		testsupport.AssertMissing(t, dst)
	})

	t.Run("removes a symlinked source and its target", func(t *testing.T) {
		dir := t.TempDir()
		target := testsupport.WriteText(t, filepath.Join(dir, "store", "movie.mkv"), "payload")
		link := filepath.Join(dir, "library", "movie.mkv")
		if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.Symlink(target, link); err != nil {
			t.Skipf("symlinks unsupported: %v", err)
		}
		dst := filepath.Join(dir, "processed", "movie.mkv")

		outcome, err := New(nil).MoveVerified(t.Context(), link, dst, 0)
		if err != nil || !outcome.OK() {
			t.Fatalf("MoveVerified = %+v, %v", outcome, err)
		}
		testsupport.AssertMissing(t, target)
		testsupport.AssertMissing(t, link)
		if got := testsupport.ReadText(t, dst); got != "payload" {
			t.Fatalf("content = %q", got)
		}
	})

	t.Run("moves directory trees", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "bundle")
		testsupport.WriteTree(t, src, map[string]string{"a.idx": "i", "a.sub": "s"})
		archive := filepath.Join(dir, "archive")
		if err := os.Mkdir(archive, 0o755); err != nil {
			t.Fatal(err)
		}

		outcome, err := New(nil, WithAlgorithm(digest.BLAKE2b256)).MoveVerified(t.Context(), src, archive, 0)
		if err != nil || !outcome.OK() {
			t.Fatalf("MoveVerified = %+v, %v", outcome, err)
		}
		testsupport.AssertMissing(t, src)
		if got := testsupport.ReadText(t, filepath.Join(archive, "bundle", "a.sub")); got != "s" {
			t.Fatalf("content = %q", got)
		}
	})
}
