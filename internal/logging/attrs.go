package logging

import (
	"log/slog"
	"time"
)

// Attr is re-exported so callers need not import log/slog for attributes.
type Attr = slog.Attr

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func String(key, value string) Attr { return slog.String(key, value) }

// Subject names the file a record is about.
func Subject(path string) Attr { return slog.String(FieldSubject, path) }

// Alert marks a record that should stand out when scanning a batch log.
func Alert(value string) Attr { return slog.String(FieldAlert, value) }

// Error attaches err under the "error" key. A nil error is omitted.
func Error(err error) Attr {
	if err == nil {
		return Attr{}
	}
	return slog.Any("error", err)
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewComponentLogger tags logger with component. A nil logger discards.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}
