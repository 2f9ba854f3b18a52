// Package config loads, normalizes, and validates stemsplit configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// STEMSPLIT_DEMUCS_BINARY and STEMSPLIT_DEVICE. The Config type centralizes the
// knobs the shell and CLI need so tool invocation, state directories, and
// notification settings are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
