// Package config loads and validates submerge configuration.
//
// Defaults are overlaid by a TOML file and then by SUBMERGE_* environment
// variables; user paths, including tilde shortcuts, are expanded. Downstream code
// receives parsed values (digest algorithm, subtitle extensions, logger
// options) instead of raw strings.
package config
