// Package ledger accumulates per-subject outcomes of a batch: a success count,
// a failure count and one error entry per failing file name.
//
// Every recorded error bumps the failure count, but entries are keyed by the
// subject's base name and the last write wins, so a name that fails twice
// counts two failures and reports only its latest cause. A Ledger is safe for
// concurrent use; workers that prefer to stay lock-free can build their own
// Summary and fold it in with Merge.
package ledger

import (
	"log/slog"
	"sort"
	"sync"

	"submerge/internal/logging"
	"submerge/internal/pathref"
)

// Entry is one recorded failure.
type Entry struct {
	Subject pathref.Path
	Name    string
	Kind    Kind
	Detail  string
}

// Summary is an immutable snapshot of a ledger. Failures counts every
// recorded error and may exceed len(Entries).
type Summary struct {
	Role      string
	Successes int
	Failures  int
	Entries   []Entry
}

// Total is successes plus failures.
func (s Summary) Total() int {
	return s.Successes + s.Failures
}

// Ledger records outcomes for one role (for example "match" or "archive").
type Ledger struct {
	role   string
	logger *slog.Logger

	mu        sync.Mutex
	successes int
	failures  int
	entries   map[string]Entry
}

// New returns an empty ledger. A nil logger discards output.
func New(role string, logger *slog.Logger) *Ledger {
	return &Ledger{
		role:    role,
		logger:  logging.NewComponentLogger(logger, "ledger").With(logging.String("role", role)),
		entries: make(map[string]Entry),
	}
}

// Role returns the name the ledger was created with.
func (l *Ledger) Role() string {
	return l.role
}

// RecordError counts a failure for subject and stores it, replacing any
// earlier entry with the same base name.
func (l *Ledger) RecordError(subject pathref.Path, kind Kind, detail string) {
	entry := Entry{Subject: subject, Name: subject.Base(), Kind: kind, Detail: detail}
	l.mu.Lock()
	l.failures++
	l.entries[entry.Name] = entry
	l.mu.Unlock()

	l.logger.Debug("failure recorded",
		logging.Subject(subject.String()),
		logging.String("kind", kind.String()),
		logging.String("detail", detail),
	)
}

// RecordFailure records err against subject using Classify for the kind.
func (l *Ledger) RecordFailure(subject pathref.Path, err error) {
	if err == nil {
		return
	}
	l.RecordError(subject, Classify(err), err.Error())
}

// RecordSuccess increments the success count.
func (l *Ledger) RecordSuccess(subject pathref.Path) {
	l.mu.Lock()
	l.successes++
	l.mu.Unlock()

	l.logger.Debug("success recorded", logging.Subject(subject.String()))
}

// Merge folds a summary produced elsewhere into the ledger.
func (l *Ledger) Merge(s Summary) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.successes += s.Successes
	l.failures += s.Failures
	for _, entry := range s.Entries {
		l.entries[entry.Name] = entry
	}
}

// Summary snapshots the ledger. Entries are sorted by name.
func (l *Ledger) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]Entry, 0, len(l.entries))
	for _, entry := range l.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return Summary{Role: l.role, Successes: l.successes, Failures: l.failures, Entries: entries}
}
