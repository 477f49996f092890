package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldBatchID identifies the batch a log line belongs to.
	FieldBatchID = "batch_id"
	// FieldSubject is the file a log line is about.
	FieldSubject = "subject"
	// FieldEventType is a stable machine-readable event name.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
	// FieldTier is the sister-file matching tier that produced a result.
	FieldTier = "tier"
	// FieldScore is a fuzzy similarity score.
	FieldScore = "score"
	// FieldAttempt is a 1-based transfer attempt number.
	FieldAttempt = "attempt"
	// FieldAlgorithm is the digest algorithm.
	FieldAlgorithm = "algorithm"
)
