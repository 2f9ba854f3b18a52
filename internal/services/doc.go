// Package services defines shared utilities consumed by the job runner and the
// external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job identifiers and operation names for
//     logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the small taxonomy surfaced to users (missing input, missing tool,
//     install failure, tool failure, unexpected).
//
// Use these helpers when wiring new tool integrations so failures reach the
// presentation layer with a consistent kind and message.
package services
