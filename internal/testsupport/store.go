package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"submerge/internal/history"
)

// MustOpenHistory opens a history.Store in a temp directory and registers
// cleanup.
func MustOpenHistory(t testing.TB) *history.Store {
	t.Helper()

	store, err := history.Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
