package batch

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"submerge/internal/candidates"
	"submerge/internal/digest"
	"submerge/internal/ledger"
	"submerge/internal/logging"
	"submerge/internal/pathref"
)

// AuditRequest selects the files an audit hashes.
type AuditRequest struct {
	Inputs    []string
	Pattern   string
	Recursive bool
}

// FileDigest is one hashed file.
type FileDigest struct {
	Path   pathref.Path
	Size   int64
	Digest digest.Digest
}

// AuditReport is returned by Audit. Files are in discovery order; each
// duplicate group lists paths with identical content in discovery order.
type AuditReport struct {
	BatchID    string
	LogPath    string
	StartedAt  time.Time
	FinishedAt time.Time
	Summary    ledger.Summary
	Files      []FileDigest
	Duplicates [][]pathref.Path
}

type auditResult struct {
	done bool
	file FileDigest
	err  error
}

// Audit hashes every matching file with at most audit.workers hashes in
// flight. On cancellation no new files are started, in-flight hashes finish,
// and the partial report is returned with the context's error.
func (r *Runner) Audit(ctx context.Context, req AuditRequest) (AuditReport, error) {
	rn, err := r.begin(roleAudit)
	if err != nil {
		return AuditReport{}, err
	}
	defer rn.close()

	report := AuditReport{BatchID: rn.id, LogPath: rn.log.Path, StartedAt: time.Now()}
	pattern := req.Pattern
	if pattern == "" {
		pattern = "*"
	}
	paths, err := candidates.Discover(req.Inputs, pattern, req.Recursive)
	if err != nil {
		return report, err
	}

	alg := r.cfg.HashAlgorithm()
	workers := max(r.cfg.Audit.Workers, 1)
	rn.logger.Info("audit started",
		logging.Int("files", len(paths)),
		logging.Int("workers", workers),
		logging.String(logging.FieldAlgorithm, alg.String()),
		logging.String(logging.FieldEventType, "audit_started"),
	)

	results := make([]auditResult, len(paths))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, p := range paths {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = hashOne(rn.hasher, p, alg)
			return nil
		})
	}
	_ = g.Wait()

	led := ledger.New(roleAudit, rn.logger)
	groups := make(map[string][]pathref.Path)
	var order []string
	for _, res := range results {
		if !res.done {
			continue
		}
		if res.err != nil {
			led.RecordFailure(res.file.Path, res.err)
			continue
		}
		led.RecordSuccess(res.file.Path)
		report.Files = append(report.Files, res.file)
		key := res.file.Digest.String()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], res.file.Path)
	}
	for _, key := range order {
		if len(groups[key]) > 1 {
			report.Duplicates = append(report.Duplicates, groups[key])
		}
	}

	report.FinishedAt = time.Now()
	report.Summary = led.Summary()
	r.recordAudit(ctx, rn, req.Inputs, report)

	rn.logger.Info("audit finished",
		logging.Int("hashed", len(report.Files)),
		logging.Int("failures", report.Summary.Failures),
		logging.Int("duplicate_groups", len(report.Duplicates)),
		logging.String(logging.FieldEventType, "audit_finished"),
	)
	return report, ctx.Err()
}

func hashOne(h *digest.Hasher, p pathref.Path, alg digest.Algorithm) auditResult {
	res := auditResult{done: true, file: FileDigest{Path: p}}
	info, err := os.Stat(p.String())
	if err != nil {
		res.err = err
		return res
	}
	res.file.Size = info.Size()
	res.file.Digest, res.err = h.Hash(p.String(), alg)
	return res
}

func (r *Runner) recordAudit(ctx context.Context, rn *run, inputs []string, report AuditReport) {
	r.record(ctx, rn, inputs, Report{
		BatchID:    report.BatchID,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Summary:    report.Summary,
	})
}
