// Package runner owns the lifecycle of a separation job.
//
// Start validates admission (one job per Runner, one separating process per
// state directory via a file lock), then runs the separator on a single worker
// goroutine and returns immediately. The worker never touches caller state:
// it publishes progress and a single completion Event on the job's channel,
// which the owning goroutine consumes with Drain or Callbacks.Apply. The
// channel is closed after the completion event. Panics inside the worker are
// recovered and reported as unexpected failures.
package runner
