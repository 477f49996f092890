// Package logs locates and reads the per-batch JSON log files written under
// paths.log_dir.
//
// Find resolves a batch ID, or a unique prefix of one, to its file. Tail keeps
// memory bounded by holding only the requested trailing lines, and Parse
// decodes a line into a Record for display.
package logs
