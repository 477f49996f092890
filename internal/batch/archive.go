package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"submerge/internal/ledger"
	"submerge/internal/logging"
	"submerge/internal/pathref"
	"submerge/internal/preflight"
)

const archiveLockName = ".submerge.lock"

// archiveGroup is the set of pairs that land in one archive directory.
type archiveGroup struct {
	dir   string
	pairs []int
}

// process merges and archives pairs in order. Pairs are grouped by archive
// directory so each directory is locked once.
func (r *Runner) process(ctx context.Context, rn *run, pairs []Pair, led *ledger.Ledger) ([]PairResult, error) {
	results := make([]PairResult, len(pairs))
	for i, p := range pairs {
		results[i].Pair = p
	}

	for _, group := range r.groupByArchive(pairs) {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		unlock, err := r.lockArchive(group.dir)
		if err == nil {
			err = preflight.RequireFreeSpace(group.dir, largestFile(pairs, group.pairs))
			if err != nil {
				unlock()
			}
		}
		if err != nil {
			logging.WarnWithContext(rn.logger, "archive directory unavailable; pairs skipped", "archive_unavailable",
				logging.String("archive_dir", group.dir),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the archive directory and any other running batch"),
				logging.String(logging.FieldImpact, "videos left unprocessed"),
			)
			for _, i := range group.pairs {
				led.RecordFailure(pairs[i].Primary, err)
			}
			continue
		}

		for _, i := range group.pairs {
			if err := ctx.Err(); err != nil {
				unlock()
				return results, err
			}
			results[i].Merged, results[i].Archived = r.processPair(ctx, rn, pairs[i], group.dir, led)
		}
		unlock()
	}
	return results, nil
}

func (r *Runner) processPair(ctx context.Context, rn *run, pair Pair, archive string, led *ledger.Ledger) (merged, archived bool) {
	logger := rn.logger.With(logging.Subject(pair.Primary.String()))
	if r.merger != nil {
		if err := r.merger.Merge(ctx, pair); err != nil {
			logging.WarnWithContext(logger, "merge failed; originals left in place", "merge_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "inspect the merge tool output for this video"),
				logging.String(logging.FieldImpact, "video not merged or archived"),
			)
			led.RecordFailure(pair.Primary, ledger.Mark(ledger.KindMerge, err))
			return false, false
		}
		merged = true
	}

	files := append([]pathref.Path{pair.Primary}, pair.Files()...)
	for _, file := range files {
		outcome, err := rn.transfer.MoveVerified(ctx, file.String(), archive, 0)
		if err != nil {
			led.RecordFailure(file, err)
			return merged, false
		}
		if !outcome.OK() {
			led.RecordError(file, outcome.Kind, fmt.Sprintf("digest mismatch after %d attempts", outcome.Attempts))
			return merged, false
		}
	}
	logger.Info("pair archived",
		logging.String("archive_dir", archive),
		logging.String(logging.FieldEventType, "pair_archived"),
	)
	led.RecordSuccess(pair.Primary)
	return merged, true
}

func (r *Runner) groupByArchive(pairs []Pair) []archiveGroup {
	var groups []archiveGroup
	pos := make(map[string]int)
	for i, p := range pairs {
		dir := r.cfg.ArchiveDirFor(p.Primary.Dir().String())
		g, ok := pos[dir]
		if !ok {
			g = len(groups)
			pos[dir] = g
			groups = append(groups, archiveGroup{dir: dir})
		}
		groups[g].pairs = append(groups[g].pairs, i)
	}
	return groups
}

// lockArchive creates dir and takes its advisory lock without blocking.
func (r *Runner) lockArchive(dir string) (func(), error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	lock := flock.New(filepath.Join(dir, archiveLockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", dir, err)
	}
	if !ok {
		return nil, ledger.Mark(ledger.KindConflict, fmt.Errorf("%s: %w", dir, ErrArchiveBusy))
	}
	return func() { _ = lock.Unlock() }, nil
}

// largestFile returns the size of the biggest file in the selected pairs.
// Every move frees its source before the next starts, so the largest file
// bounds the extra space a group needs.
func largestFile(pairs []Pair, selected []int) uint64 {
	var largest int64
	for _, i := range selected {
		for _, p := range append([]pathref.Path{pairs[i].Primary}, pairs[i].Files()...) {
			if info, err := os.Stat(p.String()); err == nil && info.Size() > largest {
				largest = info.Size()
			}
		}
	}
	return uint64(largest)
}
