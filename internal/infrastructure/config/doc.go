// Package config loads config.yaml, applies ECONEXT_* environment overrides
// and validates the result.
//
// Only the device host is required; every other field has a default, see
// Default. Keep passwords in the environment rather than the file.
package config
