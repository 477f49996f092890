// Package preflight provides readiness checks for the filesystem paths
// submerge reads from and writes to.
//
// These checks run in two contexts:
//   - The batch runner calls CheckFreeSpace before archiving so a batch never
//     starts a copy the destination volume cannot hold.
//   - The CLI "submerge check" command uses RunAll to display path health.
//
// Paths left unset in the configuration are skipped.
package preflight
