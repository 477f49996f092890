package logs

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"submerge/internal/logging"
)

// ErrNoLogs is returned when no batch log matches.
var ErrNoLogs = errors.New("no batch log found")

// Find returns the batch log in dir whose batch ID starts with prefix. An
// empty prefix selects the newest log.
func Find(dir, prefix string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, logging.BatchLogPattern))
	if err != nil {
		return "", fmt.Errorf("list batch logs: %w", err)
	}
	// Names embed a UTC timestamp, so lexical order is chronological.
	sort.Strings(matches)

	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		if len(matches) == 0 {
			return "", fmt.Errorf("%s: %w", dir, ErrNoLogs)
		}
		return matches[len(matches)-1], nil
	}

	var found []string
	for _, path := range matches {
		if strings.HasPrefix(batchID(filepath.Base(path)), prefix) {
			found = append(found, path)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("batch %s: %w", prefix, ErrNoLogs)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("batch id prefix %q matches %d logs", prefix, len(found))
	}
}

// batchID extracts the ID from batch-<timestamp>-<id>.log.
func batchID(name string) string {
	name = strings.TrimSuffix(strings.TrimPrefix(name, "batch-"), ".log")
	_, id, ok := strings.Cut(name, "-")
	if !ok {
		return ""
	}
	return id
}
