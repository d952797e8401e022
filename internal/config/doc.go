// Package config loads, validates, and defaults lavra's TOML configuration.
package config
