// Package config loads, normalizes, and validates formcheck configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// OPENAI_API_KEY and ALLOWED_VIDEO_DOMAINS. The Config type centralizes every
// knob the server and CLI need so that sampling bounds, overlay styling, and
// external service credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
