// Package logging assembles structured slog loggers and formatting helpers used
// across stemsplit.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so runner code can tag log lines
// with job IDs and operation names. While the terminal shell owns the screen,
// loggers built with FileOnly write to the log file only. The package also
// provides a no-op logger for tests and wiring code that cannot fail, plus a
// ProgressSampler that keeps percentage logs readable.
package logging
