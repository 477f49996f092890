package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// BatchLogPattern matches the files written by OpenBatchLog.
const BatchLogPattern = "batch-*.log"

// batchIDHandler stamps batch_id onto every record.
type batchIDHandler struct {
	base    slog.Handler
	batchID string
}

func newBatchIDHandler(base slog.Handler, batchID string) slog.Handler {
	if base == nil {
		return slog.DiscardHandler
	}
	return &batchIDHandler{base: base, batchID: batchID}
}

func (h *batchIDHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *batchIDHandler) Handle(ctx context.Context, record slog.Record) error {
	record.AddAttrs(slog.String(FieldBatchID, h.batchID))
	return h.base.Handle(ctx, record)
}

func (h *batchIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &batchIDHandler{base: h.base.WithAttrs(attrs), batchID: h.batchID}
}

func (h *batchIDHandler) WithGroup(name string) slog.Handler {
	return &batchIDHandler{base: h.base.WithGroup(name), batchID: h.batchID}
}

// BatchLog is a per-batch JSON log file teed from a base logger.
type BatchLog struct {
	Logger *slog.Logger
	Path   string
	file   *os.File
}

// Close flushes and closes the log file.
func (b *BatchLog) Close() error {
	if b == nil || b.file == nil {
		return nil
	}
	if err := b.file.Sync(); err != nil {
		_ = b.file.Close()
		return err
	}
	return b.file.Close()
}

// OpenBatchLog creates dir/batch-<utc timestamp>-<batchID>.log and returns a
// logger writing to both base and the file. Records in the file always carry
// batch_id. An empty dir yields base unchanged.
func OpenBatchLog(base *slog.Logger, dir, batchID, level string) (*BatchLog, error) {
	if base == nil {
		base = NewNop()
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return &BatchLog{Logger: base.With(String(FieldBatchID, batchID))}, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	name := fmt.Sprintf("batch-%s-%s.log", time.Now().UTC().Format("20060102T150405Z"), batchID)
	path := filepath.Join(dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open batch log: %w", err)
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(level))
	fileHandler := newBatchIDHandler(newJSONHandler(file, levelVar, false), batchID)
	logger := TeeLogger(base.With(String(FieldBatchID, batchID)), fileHandler)
	return &BatchLog{Logger: logger, Path: path, file: file}, nil
}
