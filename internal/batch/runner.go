package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"submerge/internal/candidates"
	"submerge/internal/config"
	"submerge/internal/digest"
	"submerge/internal/history"
	"submerge/internal/ledger"
	"submerge/internal/logging"
	"submerge/internal/pathref"
	"submerge/internal/sister"
	"submerge/internal/transfer"
)

// DefaultPattern selects the videos a run looks at when Request.Pattern is
// empty.
const DefaultPattern = "*.mkv"

const (
	roleBatch = "batch"
	roleAudit = "audit"
)

// ErrArchiveBusy is recorded when another process holds an archive
// directory's lock.
var ErrArchiveBusy = errors.New("archive directory locked by another batch")

// Pair is a video together with the subtitle files that belong to it.
// Companions are extra files that travel with Sister (the .sub stream of a
// VobSub .idx).
type Pair struct {
	Primary    pathref.Path
	Sister     pathref.Path
	Companions []pathref.Path
	Match      sister.Match
}

// Files returns every subtitle file of the pair, sister first.
func (p Pair) Files() []pathref.Path {
	out := make([]pathref.Path, 0, 1+len(p.Companions))
	out = append(out, p.Sister)
	return append(out, p.Companions...)
}

// Merger combines a resolved pair into a new container. Implementations live
// outside this module.
type Merger interface {
	Merge(ctx context.Context, pair Pair) error
}

// MergerFunc adapts a function to Merger.
type MergerFunc func(ctx context.Context, pair Pair) error

// Merge calls f.
func (f MergerFunc) Merge(ctx context.Context, pair Pair) error {
	return f(ctx, pair)
}

// Request describes one batch.
type Request struct {
	Inputs    []string
	Pattern   string
	Recursive bool
	DryRun    bool
}

// PairResult is the fate of one resolved pair.
type PairResult struct {
	Pair     Pair
	Merged   bool
	Archived bool
}

// Report is returned by Run.
type Report struct {
	BatchID    string
	LogPath    string
	StartedAt  time.Time
	FinishedAt time.Time
	Summary    ledger.Summary
	Pairs      []PairResult
}

// Option configures a Runner.
type Option func(*Runner)

// WithMerger sets the merge step. Without one a run only pairs and archives.
func WithMerger(m Merger) Option {
	return func(r *Runner) {
		r.merger = m
	}
}

// WithHistory records every finished run in store.
func WithHistory(store *history.Store) Option {
	return func(r *Runner) {
		r.history = store
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTransfer replaces the transfer built from the configuration.
func WithTransfer(t *transfer.Transfer) Option {
	return func(r *Runner) {
		r.transfer = t
	}
}

// Runner executes batches and audits against one configuration.
type Runner struct {
	cfg      *config.Config
	logger   *slog.Logger
	merger   Merger
	history  *history.Store
	transfer *transfer.Transfer
}

// New constructs a Runner.
func New(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{cfg: cfg, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// run carries the per-batch logger and the components built with it.
type run struct {
	id       string
	log      *logging.BatchLog
	logger   *slog.Logger
	hasher   *digest.Hasher
	resolver *sister.Resolver
	transfer *transfer.Transfer
}

func (r *Runner) begin(role string) (*run, error) {
	id := uuid.NewString()
	// The batch file keeps at least info records whatever the console level.
	fileLevel := "info"
	if r.cfg.Logging.Level == "debug" {
		fileLevel = "debug"
	}
	blog, err := logging.OpenBatchLog(r.logger, r.cfg.Paths.LogDir, id, fileLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewComponentLogger(blog.Logger, role)
	if blog.Path != "" {
		logging.CleanupOldLogs(logger, r.cfg.Logging.RetentionDays, logging.RetentionTarget{
			Dir:     r.cfg.Paths.LogDir,
			Pattern: logging.BatchLogPattern,
			Exclude: []string{blog.Path},
		})
	}

	hasher := digest.New(
		digest.WithChunkSize(r.cfg.Hashing.ChunkSize),
		digest.WithLogger(logger),
	)
	tr := r.transfer
	if tr == nil {
		tr = transfer.New(hasher,
			transfer.WithAlgorithm(r.cfg.HashAlgorithm()),
			transfer.WithMaxAttempts(r.cfg.Transfer.MaxAttempts),
			transfer.WithOverwrite(r.cfg.Transfer.Overwrite),
			transfer.WithLogger(logger),
		)
	}
	return &run{
		id:     id,
		log:    blog,
		logger: logger,
		hasher: hasher,
		resolver: sister.NewResolver(
			sister.WithThreshold(r.cfg.Matching.FuzzyThreshold),
			sister.WithScope(r.cfg.FuzzyScope()),
			sister.WithLogger(logger),
		),
		transfer: tr,
	}, nil
}

func (rn *run) close() {
	if err := rn.log.Close(); err != nil {
		rn.logger.Debug("batch log close failed", logging.Error(err))
	}
}

// Run executes one batch. Per-file problems are recorded in the report's
// summary; the returned error is reserved for failures that stop the batch
// as a whole (no inputs, unusable log directory, cancellation).
func (r *Runner) Run(ctx context.Context, req Request) (Report, error) {
	rn, err := r.begin(roleBatch)
	if err != nil {
		return Report{}, err
	}
	defer rn.close()

	report := Report{BatchID: rn.id, LogPath: rn.log.Path, StartedAt: time.Now()}
	pattern := req.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	rn.logger.Info("batch started",
		logging.String("inputs", strings.Join(req.Inputs, ", ")),
		logging.String("pattern", pattern),
		logging.Bool("dry_run", req.DryRun),
		logging.String(logging.FieldEventType, "batch_started"),
	)

	videos, err := r.Discover(req.Inputs, pattern, req.Recursive)
	if err != nil {
		return report, err
	}

	led := ledger.New(roleBatch, rn.logger)
	pairs := r.resolve(rn, videos, led)

	var runErr error
	switch {
	case req.DryRun:
		for _, p := range pairs {
			led.RecordSuccess(p.Primary)
			report.Pairs = append(report.Pairs, PairResult{Pair: p})
		}
	default:
		report.Pairs, runErr = r.process(ctx, rn, pairs, led)
	}

	report.FinishedAt = time.Now()
	report.Summary = led.Summary()
	r.record(ctx, rn, req.Inputs, report)

	rn.logger.Info("batch finished",
		logging.Int("successes", report.Summary.Successes),
		logging.Int("failures", report.Summary.Failures),
		logging.Duration("duration", report.FinishedAt.Sub(report.StartedAt)),
		logging.String(logging.FieldEventType, "batch_finished"),
	)
	return report, runErr
}

// Discover lists the videos a batch over inputs would process. Archive
// directories are never entered.
func (r *Runner) Discover(inputs []string, pattern string, recursive bool) ([]pathref.Path, error) {
	skip := make([]string, 0, len(inputs)+1)
	if r.cfg.Paths.ArchiveDir != "" {
		skip = append(skip, r.cfg.Paths.ArchiveDir)
	}
	for _, input := range inputs {
		skip = append(skip, r.cfg.ArchiveDirFor(input))
	}
	return candidates.Discover(inputs, pattern, recursive, skip...)
}

// record persists the batch. A failed write is logged, never returned.
func (r *Runner) record(ctx context.Context, rn *run, inputs []string, report Report) {
	if r.history == nil {
		return
	}
	b := history.Batch{
		ID:         report.BatchID,
		Source:     strings.Join(inputs, ", "),
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
	}
	b.FromSummary(report.Summary)
	for _, pr := range report.Pairs {
		hp := history.Pair{
			Primary:  pr.Pair.Primary.String(),
			Sister:   pr.Pair.Sister.String(),
			Tier:     pr.Pair.Match.Tier.String(),
			Archived: pr.Archived,
		}
		if pr.Pair.Match.HasScore {
			score := pr.Pair.Match.Score
			hp.Score = &score
		}
		b.Pairs = append(b.Pairs, hp)
	}
	if err := r.history.RecordBatch(context.WithoutCancel(ctx), b); err != nil {
		logging.WarnWithContext(rn.logger, "batch history not recorded", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, fmt.Sprintf("check %s is writable", r.history.Path())),
			logging.String(logging.FieldImpact, "batch will be missing from history"),
		)
	}
}
