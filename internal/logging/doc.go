// Package logging assembles the slog loggers used across submerge.
//
// New builds a console or JSON logger from configuration. OpenBatchLog tees a
// run's records into its own JSON file stamped with the batch ID, and
// CleanupOldLogs prunes those files once they age out. WarnWithContext and
// ErrorWithContext make sure operator-facing records carry an event type and
// a hint about what to check.
package logging
