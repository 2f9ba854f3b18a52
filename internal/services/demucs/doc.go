// Package demucs mediates access to the Demucs command-line separator.
//
// It builds the argument list for a separation.Request, streams the tool's
// output line by line, turns "progress N%" lines into percentages, and
// classifies failures with the services error markers (missing input, missing
// tool, non-zero exit). Prefer this package over ad-hoc exec.Command usage so
// progress reporting and diagnostics stay consistent between the shell and the
// CLI.
package demucs
