package runner

import "stemsplit/internal/separation"

// EventKind distinguishes progress updates from the terminal event.
type EventKind int

const (
	EventProgress EventKind = iota + 1
	EventCompleted
)

// Event is one message from a job worker to its owner.
type Event struct {
	Kind     EventKind
	JobID    string
	Progress separation.ProgressEvent
	Result   separation.Result
}

// Callbacks receive events on the goroutine that drains the job.
type Callbacks struct {
	OnProgress func(percent int)
	OnComplete func(result separation.Result)
}

// Apply dispatches a single event to the matching callback.
func (c Callbacks) Apply(ev Event) {
	switch ev.Kind {
	case EventProgress:
		if c.OnProgress != nil {
			c.OnProgress(ev.Progress.Percent)
		}
	case EventCompleted:
		if c.OnComplete != nil {
			c.OnComplete(ev.Result)
		}
	}
}

// Drain consumes events until the channel closes, invoking callbacks on the
// calling goroutine, and returns the completion result.
func Drain(events <-chan Event, cb Callbacks) separation.Result {
	var result separation.Result
	for ev := range events {
		if ev.Kind == EventCompleted {
			result = ev.Result
		}
		cb.Apply(ev)
	}
	return result
}
