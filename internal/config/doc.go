// Package config loads, normalizes, and validates skein configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files describing the datasets to pack, the
// output corpus location, and the external phonemizer invocation. Always
// obtain settings through this package so downstream code receives sanitized
// paths and clear validation errors before any packing starts.
package config
