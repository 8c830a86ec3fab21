// Package config loads, normalizes, and validates stickerd configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the STICKERD_DATA_ROOT environment
// fallback. The Config type centralizes every knob the CLI and the query
// server need, so the packs root and the app-store links stamped into saved
// manifests are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
