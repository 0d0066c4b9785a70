// Package logging assembles structured slog loggers and formatting helpers used
// across formcheck.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so request handlers and the
// analysis pipeline tag log lines with the request correlation ID. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
package logging
