// Package batch drives whole runs over a set of videos: discover the inputs,
// resolve each video's sister subtitle, hand the pair to an external Merger,
// then move the originals into the archive directory with verified
// transfers.
//
// A run is sequential. Every outcome lands in a ledger.Ledger, and the
// resulting summary is written to the history store when one is configured.
// Each run gets a UUID and its own JSON log file under the configured log
// directory.
//
// Audit is the parallel counterpart. It hashes every discovered file on a
// bounded errgroup pool. Workers return values, and those values are folded
// into the ledger on the calling goroutine. Files with identical content are
// reported as duplicate groups.
package batch
