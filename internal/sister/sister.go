// Package sister finds the auxiliary file (typically a subtitle) that belongs
// to a primary file (typically a video).
//
// Resolution walks three tiers and stops at the first hit:
//
//  1. Exact: the primary's path with each indexed extension substituted.
//  2. Episode: the first candidate carrying the same SxxEyy tag as the primary.
//  3. Fuzzy: the candidate scoring highest against the primary (with the
//     bucket's extension substituted), provided the score clears the
//     threshold. ScopePath (the default) compares full paths; ScopeName
//     compares base names only.
//
// Buckets are probed in index order and candidates in discovery order, so the
// same inputs always produce the same Match.
package sister

import (
	"fmt"
	"log/slog"
	"strings"

	"submerge/internal/candidates"
	"submerge/internal/episode"
	"submerge/internal/logging"
	"submerge/internal/pathref"
	"submerge/internal/textutil"
)

// DefaultThreshold is the fuzzy score a candidate must exceed.
const DefaultThreshold = 75

// Tier identifies which strategy produced a Match.
type Tier int

const (
	TierNone Tier = iota
	TierExact
	TierEpisode
	TierFuzzy
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierEpisode:
		return "episode"
	case TierFuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

// Match is the result of a resolution. Score is set only for fuzzy matches.
type Match struct {
	Tier     Tier
	Path     pathref.Path
	Score    int
	HasScore bool
}

// Found reports whether a sister file was resolved.
func (m Match) Found() bool {
	return m.Tier != TierNone
}

// Scope selects the text the fuzzy tier compares.
type Scope string

const (
	ScopePath Scope = "path"
	ScopeName Scope = "name"
)

// ParseScope accepts "path" or "name"; empty is ScopePath.
func ParseScope(value string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(value))) {
	case "", ScopePath:
		return ScopePath, nil
	case ScopeName:
		return ScopeName, nil
	default:
		return "", fmt.Errorf("unsupported fuzzy scope %q (want path or name)", value)
	}
}

func (s Scope) text(p pathref.Path) string {
	if s == ScopeName {
		return p.Base()
	}
	return p.String()
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithThreshold overrides DefaultThreshold.
func WithThreshold(threshold int) Option {
	return func(r *Resolver) {
		r.threshold = threshold
	}
}

// WithScope overrides ScopePath.
func WithScope(scope Scope) Option {
	return func(r *Resolver) {
		r.scope = scope
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// Resolver is stateless apart from its configuration and safe for concurrent
// use.
type Resolver struct {
	threshold int
	scope     Scope
	logger    *slog.Logger
}

// NewResolver builds a Resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{threshold: DefaultThreshold, scope: ScopePath}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "sister")
	return r
}

// Threshold returns the configured fuzzy threshold.
func (r *Resolver) Threshold() int {
	return r.threshold
}

// Resolve returns the sister file for primary from idx, or a TierNone match.
func (r *Resolver) Resolve(primary pathref.Path, idx *candidates.Index) Match {
	logger := r.logger.With(logging.Subject(primary.String()))

	if m, ok := r.exact(primary, idx); ok {
		logger.Debug("sister file resolved", logging.String(logging.FieldTier, m.Tier.String()), logging.String("match", m.Path.String()))
		return m
	}
	logger.Debug("no exact match, trying episode tag")

	if m, ok := r.byEpisode(primary, idx); ok {
		logger.Debug("sister file resolved", logging.String(logging.FieldTier, m.Tier.String()), logging.String("match", m.Path.String()))
		return m
	}

	m, best := r.fuzzy(primary, idx)
	if m.Found() {
		logger.Debug("sister file resolved",
			logging.String(logging.FieldTier, m.Tier.String()),
			logging.String("match", m.Path.String()),
			logging.Int(logging.FieldScore, m.Score),
		)
		return m
	}
	logger.Debug("no sister file found",
		logging.Int("best_score", best),
		logging.Int("threshold", r.threshold),
		logging.String("scope", string(r.scope)),
	)
	return Match{Tier: TierNone}
}

func (r *Resolver) exact(primary pathref.Path, idx *candidates.Index) (Match, bool) {
	for _, bucket := range idx.Buckets() {
		if found, ok := idx.Lookup(bucket.Ext, primary.WithExt(bucket.Ext.String())); ok {
			return Match{Tier: TierExact, Path: found}, true
		}
	}
	return Match{}, false
}

func (r *Resolver) byEpisode(primary pathref.Path, idx *candidates.Index) (Match, bool) {
	tag, ok := episode.Extract(primary.String())
	if !ok {
		return Match{}, false
	}
	var match Match
	idx.Each(func(_ candidates.Extension, candidate pathref.Path) bool {
		if other, ok := episode.Extract(candidate.String()); ok && other == tag {
			match = Match{Tier: TierEpisode, Path: candidate}
			return false
		}
		return true
	})
	return match, match.Found()
}

// fuzzy returns the best fuzzy match (TierNone when nothing clears the
// threshold) and the best score seen.
func (r *Resolver) fuzzy(primary pathref.Path, idx *candidates.Index) (Match, int) {
	var (
		bestPath  pathref.Path
		bestScore int
	)
	for _, bucket := range idx.Buckets() {
		query := r.scope.text(primary.WithExt(bucket.Ext.String()))
		for _, candidate := range bucket.Paths() {
			score := textutil.Score(query, r.scope.text(candidate))
			if score > bestScore {
				bestScore = score
				bestPath = candidate
			}
		}
	}
	if bestScore > r.threshold {
		return Match{Tier: TierFuzzy, Path: bestPath, Score: bestScore, HasScore: true}, bestScore
	}
	return Match{Tier: TierNone}, bestScore
}
