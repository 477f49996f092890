package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"submerge/internal/pathref"
)

func TestRecordErrorLastWriteWins(t *testing.T) {
	l := New("match", nil)
	first := pathref.Path("/videos/a/Movie.mkv")
	second := pathref.Path("/videos/b/Movie.mkv")

	l.RecordError(first, KindNotFound, "no sister file")
	l.RecordError(second, KindMerge, "remux failed")
	l.RecordSuccess("/videos/c/Other.mkv")

	got := l.Summary()
	want := Summary{
		Role:      "match",
		Successes: 1,
		Failures:  2,
		Entries: []Entry{
			{Subject: second, Name: "Movie.mkv", Kind: KindMerge, Detail: "remux failed"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
	if got.Total() != 3 {
		t.Fatalf("Total = %d, want 3", got.Total())
	}
}

func TestRepeatedFailuresAreCounted(t *testing.T) {
	l := New("archive", nil)
	l.RecordError("/a/Movie.mkv", KindIO, "read failed")
	l.RecordError("/b/Movie.mkv", KindIntegrityMismatch, "digest mismatch")
	l.RecordError("/a/Movie.mkv", KindIO, "read failed again")

	s := l.Summary()
	if s.Failures != 3 || len(s.Entries) != 1 {
		t.Fatalf("Failures = %d with %d entries, want 3 and 1", s.Failures, len(s.Entries))
	}
	if s.Entries[0].Detail != "read failed again" {
		t.Fatalf("entry detail = %q, want the latest cause", s.Entries[0].Detail)
	}
}

func TestSummaryIsSortedByName(t *testing.T) {
	l := New("archive", nil)
	for _, name := range []string{"c.mkv", "a.mkv", "b.mkv"} {
		l.RecordError(pathref.Path("/v/"+name), KindIO, "boom")
	}
	var names []string
	for _, e := range l.Summary().Entries {
		names = append(names, e.Name)
	}
	if diff := cmp.Diff([]string{"a.mkv", "b.mkv", "c.mkv"}, names); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordFailureClassifies(t *testing.T) {
	l := New("archive", nil)
	l.RecordFailure("/v/missing.mkv", fmt.Errorf("stat: %w", fs.ErrNotExist))
	l.RecordFailure("/v/marked.mkv", Mark(KindIntegrityMismatch, errors.New("digest mismatch")))
	l.RecordFailure("/v/nil.mkv", nil)

	got := map[string]Kind{}
	for _, e := range l.Summary().Entries {
		got[e.Name] = e.Kind
	}
	want := map[string]Kind{"missing.mkv": KindIO, "marked.mkv": KindIntegrityMismatch}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "not exist", err: fs.ErrNotExist, want: KindIO},
		{name: "vanished source", err: fmt.Errorf("stat source: %w", fs.ErrNotExist), want: KindIO},
		{name: "marked not found", err: Mark(KindNotFound, errors.New("no sister file")), want: KindNotFound},
		{name: "exist", err: fmt.Errorf("create: %w", fs.ErrExist), want: KindConflict},
		{name: "permission", err: fs.ErrPermission, want: KindIO},
		{name: "marked wins", err: Mark(KindUnsupported, fs.ErrNotExist), want: KindUnsupported},
		{name: "wrapped mark", err: fmt.Errorf("outer: %w", Mark(KindMerge, errors.New("x"))), want: KindMerge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Fatalf("Classify = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMarkPreservesChain(t *testing.T) {
	if Mark(KindIO, nil) != nil {
		t.Fatalf("Mark(nil) should be nil")
	}
	err := Mark(KindConflict, fs.ErrExist)
	if !errors.Is(err, fs.ErrExist) {
		t.Fatalf("marked error lost its chain")
	}
	if err.Error() != fs.ErrExist.Error() {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestKindStringRoundTrip(t *testing.T) {
	for _, k := range []Kind{KindNotFound, KindIntegrityMismatch, KindIO, KindUnsupported, KindMerge, KindConflict} {
		parsed, ok := ParseKind(k.String())
		if !ok || parsed != k {
			t.Fatalf("ParseKind(%q) = %v, %v", k.String(), parsed, ok)
		}
	}
	if Kind(0).String() != "unknown" {
		t.Fatalf("zero kind should be unknown")
	}
}

func TestConcurrentRecordingAndMerge(t *testing.T) {
	l := New("audit", nil)
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			subject := pathref.Path(fmt.Sprintf("/v/%02d.mkv", i))
			if i%2 == 0 {
				l.RecordSuccess(subject)
				return
			}
			l.RecordError(subject, KindIO, "io")
		}()
	}
	wg.Wait()

	l.Merge(Summary{Successes: 3, Failures: 1, Entries: []Entry{{Subject: "/w/x.mkv", Name: "x.mkv", Kind: KindNotFound}}})

	s := l.Summary()
	if s.Successes != 28 {
		t.Fatalf("Successes = %d, want 28", s.Successes)
	}
	if s.Failures != 26 || len(s.Entries) != 26 {
		t.Fatalf("Failures = %d with %d entries, want 26 and 26", s.Failures, len(s.Entries))
	}
}
