// Package config loads, validates, and normalizes jobsync configuration.
//
// Configuration comes from a TOML file (default ~/.config/jobsync/config.toml)
// layered over built-in defaults. Paths are tilde-expanded and made absolute
// during normalization so downstream packages never deal with relative or
// home-anchored paths.
package config
