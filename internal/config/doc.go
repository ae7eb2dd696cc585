// Package config loads, normalizes, and validates batterylog configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// BATTERYLOG_STATE_DIR. The Config type centralizes the live store locations,
// logging, extraction, and history settings the CLI needs.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
