// Package pathref canonicalizes filesystem paths before they are compared or
// hashed.
//
// Every path that crosses a package boundary in submerge is resolved once:
// made absolute and clean, then passed through filepath.EvalSymlinks when it
// exists. Symlinks are always followed, so two spellings of the
// same file compare equal everywhere downstream.
package pathref
