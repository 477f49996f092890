// Package candidates groups auxiliary (subtitle) files by extension so the
// sister-file resolver can probe them repeatedly without rescanning disk.
//
// An Index is built once per batch, either by walking a directory (Build) or
// by classifying an enumeration supplied by the caller (FromPaths). Buckets
// keep the order of the extension list they were built with, and each bucket
// keeps candidates in discovery order, so every consumer iterates in a fixed,
// reproducible order. An Index is never mutated after construction and is safe
// for concurrent readers.
package candidates
