// Package digest computes content digests for single files and whole
// directory trees.
//
// File digests stream the file through the selected hash in fixed-size
// chunks. Directory digests are salted with the directory's own name and then
// fold in every direct child's digest in byte-wise name order, so the result
// is independent of traversal order but distinguishes two otherwise identical
// trees whose roots are named differently.
//
// Compare is the integrity oracle used by the transfer package: it never
// consults size or modification time.
package digest
