package batch

import (
	"errors"
	"fmt"
	"slices"

	"submerge/internal/candidates"
	"submerge/internal/ledger"
	"submerge/internal/logging"
	"submerge/internal/pathref"
	"submerge/internal/sister"
)

var (
	// ErrNoSister is recorded for videos without a sister file.
	ErrNoSister = errors.New("no sister file found")
	// ErrIncompleteVobSub is recorded when only one half of an .idx/.sub pair
	// exists.
	ErrIncompleteVobSub = errors.New("vobsub subtitle is missing its companion file")
)

// Resolve pairs every video with its sister file using a resolver and
// configuration taken from r. Videos without one are recorded in led.
func (r *Runner) Resolve(videos []pathref.Path, led *ledger.Ledger) []Pair {
	rn := &run{
		logger: logging.NewComponentLogger(r.logger, roleBatch),
		resolver: sister.NewResolver(
			sister.WithThreshold(r.cfg.Matching.FuzzyThreshold),
			sister.WithScope(r.cfg.FuzzyScope()),
			sister.WithLogger(r.logger),
		),
	}
	return r.resolve(rn, videos, led)
}

func (r *Runner) resolve(rn *run, videos []pathref.Path, led *ledger.Ledger) []Pair {
	exts := r.cfg.SubtitleExtensions()
	indexes := make(map[string]*candidates.Index)
	archives := r.archivesBySubtitleDir(videos)

	var pairs []Pair
	for _, video := range videos {
		dir := r.cfg.SubtitleDirFor(video.Dir().String())
		idx, ok := indexes[dir]
		if !ok {
			var err error
			idx, err = r.index(dir, exts, archives[dir])
			if err != nil {
				led.RecordFailure(video, err)
				continue
			}
			indexes[dir] = idx
		}

		match := rn.resolver.Resolve(video, idx)
		if !match.Found() {
			led.RecordFailure(video, ledger.Mark(ledger.KindNotFound, ErrNoSister))
			continue
		}
		pair, err := completeVobSub(Pair{Primary: video, Sister: match.Path, Match: match}, idx)
		if err != nil {
			led.RecordFailure(video, err)
			continue
		}
		rn.logger.Info("sister file paired",
			logging.Subject(video.String()),
			logging.String("sister", pair.Sister.String()),
			logging.String(logging.FieldTier, match.Tier.String()),
		)
		pairs = append(pairs, pair)
	}
	return pairs
}

// archivesBySubtitleDir maps each subtitle directory to the archive
// directories of every video scanned against it.
func (r *Runner) archivesBySubtitleDir(videos []pathref.Path) map[string][]string {
	out := make(map[string][]string)
	for _, video := range videos {
		videoDir := video.Dir().String()
		dir := r.cfg.SubtitleDirFor(videoDir)
		archive := r.cfg.ArchiveDirFor(videoDir)
		if !slices.Contains(out[dir], archive) {
			out[dir] = append(out[dir], archive)
		}
	}
	return out
}

// index enumerates candidates under dir, leaving out the skip directories
// so files archived by earlier batches are never matched again.
func (r *Runner) index(dir string, exts []candidates.Extension, skip []string) (*candidates.Index, error) {
	paths, err := candidates.Discover([]string{dir}, "*", r.cfg.Matching.Recursive, skip...)
	if err != nil && !errors.Is(err, candidates.ErrNoInputs) {
		return nil, fmt.Errorf("index %s: %w", dir, err)
	}
	raw := make([]string, len(paths))
	for i, p := range paths {
		raw[i] = p.String()
	}
	return candidates.FromPaths(raw, exts)
}

// completeVobSub attaches the other half of an .idx/.sub pair. The .idx is
// always the sister and the .sub its companion.
func completeVobSub(pair Pair, idx *candidates.Index) (Pair, error) {
	switch candidates.ExtensionOf(pair.Sister.String()) {
	case candidates.IDX:
		sub, ok := idx.Lookup(candidates.SUB, pair.Sister.WithExt(candidates.SUB.String()))
		if !ok {
			return pair, ledger.Mark(ledger.KindUnsupported, fmt.Errorf("%s: %w", pair.Sister.Base(), ErrIncompleteVobSub))
		}
		pair.Companions = []pathref.Path{sub}
	case candidates.SUB:
		index, ok := idx.Lookup(candidates.IDX, pair.Sister.WithExt(candidates.IDX.String()))
		if !ok {
			return pair, ledger.Mark(ledger.KindUnsupported, fmt.Errorf("%s: %w", pair.Sister.Base(), ErrIncompleteVobSub))
		}
		pair.Companions = []pathref.Path{pair.Sister}
		pair.Sister = index
	}
	return pair, nil
}
