package history

import (
	"time"

	"submerge/internal/ledger"
)

// Batch is one persisted run.
type Batch struct {
	ID         string
	Role       string
	Source     string
	StartedAt  time.Time
	FinishedAt time.Time
	Successes  int
	Failures   int
	Entries    []Entry
	Pairs      []Pair
}

// Duration is the wall time of the batch.
func (b Batch) Duration() time.Duration {
	return b.FinishedAt.Sub(b.StartedAt)
}

// Entry is a persisted ledger failure.
type Entry struct {
	Subject string
	Name    string
	Kind    string
	Detail  string
}

// Pair is a resolved primary/sister pairing. Score is nil for non-fuzzy tiers.
type Pair struct {
	Primary  string
	Sister   string
	Tier     string
	Score    *int
	Archived bool
}

// FromSummary fills the counters and entries of b from a ledger summary.
func (b *Batch) FromSummary(s ledger.Summary) {
	if b.Role == "" {
		b.Role = s.Role
	}
	b.Successes = s.Successes
	b.Failures = s.Failures
	b.Entries = make([]Entry, 0, len(s.Entries))
	for _, e := range s.Entries {
		b.Entries = append(b.Entries, Entry{
			Subject: e.Subject.String(),
			Name:    e.Name,
			Kind:    e.Kind.String(),
			Detail:  e.Detail,
		})
	}
}
