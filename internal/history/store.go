// Package history persists batch outcomes in SQLite so past runs can be
// listed and inspected after their console output is gone.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a batch id is unknown.
var ErrNotFound = errors.New("batch not found")

// Store manages batch history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history dir: %w", err)
	}

	// Pragmas go in the DSN so every pooled connection enforces cascades.
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: path}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordBatch stores b with its entries and pairs in one transaction.
func (s *Store) RecordBatch(ctx context.Context, b Batch) error {
	if strings.TrimSpace(b.ID) == "" {
		return errors.New("record batch: empty id")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO batches (id, role, source, started_at, finished_at, successes, failures)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID,
		b.Role,
		nullableString(b.Source),
		formatTime(b.StartedAt),
		formatTime(b.FinishedAt),
		b.Successes,
		b.Failures,
	)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	for _, e := range b.Entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO entries (batch_id, subject, name, kind, detail) VALUES (?, ?, ?, ?, ?)`,
			b.ID, e.Subject, e.Name, e.Kind, nullableString(e.Detail),
		); err != nil {
			return fmt.Errorf("insert entry %s: %w", e.Name, err)
		}
	}
	for _, p := range b.Pairs {
		var score any
		if p.Score != nil {
			score = *p.Score
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pairs (batch_id, primary_path, sister_path, tier, score, archived) VALUES (?, ?, ?, ?, ?, ?)`,
			b.ID, p.Primary, p.Sister, p.Tier, score, boolToInt(p.Archived),
		); err != nil {
			return fmt.Errorf("insert pair %s: %w", p.Primary, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Recent lists the newest batches first without entries or pairs. A limit
// below one returns every batch.
func (s *Store) Recent(ctx context.Context, limit int) ([]Batch, error) {
	query := `SELECT id, role, source, started_at, finished_at, successes, failures
              FROM batches ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var out []Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// Batch loads one batch including its entries and pairs. The id may be a
// unique prefix.
func (s *Store) Batch(ctx context.Context, id string) (*Batch, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, source, started_at, finished_at, successes, failures
         FROM batches WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY id LIMIT 2`,
		id, escapeLike(id)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("get batch: %w", err)
	}
	var matches []*Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		matches = append(matches, b)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	var b *Batch
	switch {
	case len(matches) == 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case len(matches) == 1:
		b = matches[0]
	default:
		for _, m := range matches {
			if m.ID == id {
				b = m
			}
		}
		if b == nil {
			return nil, fmt.Errorf("batch id prefix %q is ambiguous", id)
		}
	}

	if b.Entries, err = s.entries(ctx, b.ID); err != nil {
		return nil, err
	}
	if b.Pairs, err = s.pairs(ctx, b.ID); err != nil {
		return nil, err
	}
	return b, nil
}

// Prune deletes batches that started before cutoff and reports how many were
// removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM batches WHERE started_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune batches: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) entries(ctx context.Context, batchID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT subject, name, kind, detail FROM entries WHERE batch_id = ? ORDER BY name`, batchID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e      Entry
			detail sql.NullString
		)
		if err := rows.Scan(&e.Subject, &e.Name, &e.Kind, &detail); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Detail = detail.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) pairs(ctx context.Context, batchID string) ([]Pair, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT primary_path, sister_path, tier, score, archived FROM pairs WHERE batch_id = ? ORDER BY rowid`, batchID)
	if err != nil {
		return nil, fmt.Errorf("list pairs: %w", err)
	}
	defer rows.Close()

	var out []Pair
	for rows.Next() {
		var (
			p        Pair
			score    sql.NullInt64
			archived int
		)
		if err := rows.Scan(&p.Primary, &p.Sister, &p.Tier, &score, &archived); err != nil {
			return nil, fmt.Errorf("scan pair: %w", err)
		}
		if score.Valid {
			v := int(score.Int64)
			p.Score = &v
		}
		p.Archived = archived != 0
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanBatch(scanner interface{ Scan(dest ...any) error }) (*Batch, error) {
	var (
		b                 Batch
		source            sql.NullString
		started, finished string
	)
	if err := scanner.Scan(&b.ID, &b.Role, &source, &started, &finished, &b.Successes, &b.Failures); err != nil {
		return nil, fmt.Errorf("scan batch: %w", err)
	}
	b.Source = source.String
	var err error
	if b.StartedAt, err = parseTimeString(started); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if b.FinishedAt, err = parseTimeString(finished); err != nil {
		return nil, fmt.Errorf("parse finished_at: %w", err)
	}
	return &b, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

// formatTime uses a fixed-width layout so lexical order matches time order.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func escapeLike(value string) string {
	r := strings.NewReplacer(`%`, `\%`, `_`, `\_`)
	return r.Replace(value)
}
