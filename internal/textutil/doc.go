// Package textutil provides text normalization and string similarity scoring
// for matching subtitle filenames against video filenames.
//
// The primary use cases are:
//   - Normalizing filenames (Unicode NFC, case folding, punctuation to spaces)
//   - Scoring two names with partial-ratio similarity on a 0–100 scale
//
// Partial ratio aligns the shorter string against every equally long window of
// the longer one and reports the best indel similarity, so a subtitle name
// carrying extra release tags still scores well against the bare video name.
package textutil
