// Package config loads, normalizes, and validates creators configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts and environment variables), reads TOML files, and honours
// environment fallbacks such as PASTA_BASE_URL and CREATORS_CORRECTIONS_DIR.
// The Config type centralizes every knob the daemon and CLI need.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
