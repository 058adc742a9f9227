// Package config loads, normalizes, and validates printq configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files (or YAML when the file ends in .yaml/.yml), and honours
// environment fallbacks for backend credentials such as PRINTQ_POSTGRES_DSN.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a canonical store backend name, and clear validation errors.
package config
