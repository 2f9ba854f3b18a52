// Package separation holds the value types that describe one stem separation
// run: the immutable Request, the Mode and Format choices, the progress and
// completion events, and the final Result shown to the user.
//
// Nothing here launches processes; see internal/services/demucs for the tool
// client and internal/runner for the job lifecycle.
package separation
