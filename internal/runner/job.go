package runner

import (
	"sync/atomic"
	"time"

	"stemsplit/internal/separation"
)

// eventBuffer lets the worker run ahead of a slow owner without blocking on
// every progress line.
const eventBuffer = 64

// Job is a handle on one running separation.
type Job struct {
	ID        string
	Request   separation.Request
	StartedAt time.Time

	events   chan Event
	progress atomic.Int32
}

func newJob(id string, req separation.Request, startedAt time.Time) *Job {
	job := &Job{
		ID:        id,
		Request:   req,
		StartedAt: startedAt,
		events:    make(chan Event, eventBuffer),
	}
	job.progress.Store(-1)
	return job
}

// Events returns the channel the owner drains. It is closed after the
// completion event.
func (j *Job) Events() <-chan Event {
	return j.events
}

// Progress returns the last reported percentage, or -1 before the first one.
func (j *Job) Progress() int {
	return int(j.progress.Load())
}
