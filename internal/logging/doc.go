// Package logging assembles structured slog loggers and formatting helpers used
// across printq.
//
// It owns the console and JSON handlers, level parsing, and output plumbing,
// and exposes context-aware helpers so request handlers and queue operations
// tag log lines with the same request identifiers. A no-op logger is provided
// for tests and wiring code that cannot fail.
package logging
