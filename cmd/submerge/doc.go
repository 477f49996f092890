// Package main hosts the submerge CLI entrypoint and command graph.
//
// Commands translate terminal invocations into calls on the internal
// packages: batch runs and audits, sister-file matching, verified copies and
// moves, digests, batch history and configuration scaffolding. Configuration
// resolution and logger construction live here so subcommands stay small.
package main
