// Package logging builds slog loggers with lavra's console and JSON output
// formats and provides the shared structured-field helpers used across the
// daemon and CLI.
package logging
