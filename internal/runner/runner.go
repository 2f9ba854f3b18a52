package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"stemsplit/internal/logging"
	"stemsplit/internal/notifications"
	"stemsplit/internal/separation"
	"stemsplit/internal/services"
)

var (
	// ErrBusy is returned when the runner already has a job in flight.
	ErrBusy = errors.New("a separation is already running")
	// ErrLocked is returned when another process holds the separation lock.
	ErrLocked = errors.New("another stemsplit process is separating")
)

// Separator performs the actual separation. onProgress must not be invoked
// concurrently with itself.
type Separator interface {
	Separate(ctx context.Context, req separation.Request, onProgress func(int)) ([]string, error)
}

// Recorder persists job lifecycle rows.
type Recorder interface {
	RecordStart(ctx context.Context, id string, req separation.Request, startedAt time.Time) error
	RecordFinish(ctx context.Context, id string, result separation.Result, finishedAt time.Time) error
}

// Option configures the runner.
type Option func(*Runner)

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithLockFile serializes separations across processes using a file lock.
func WithLockFile(path string) Option {
	return func(r *Runner) {
		if path != "" {
			r.lockPath = path
			r.lock = flock.New(path)
		}
	}
}

// WithRecorder records each job in the history store.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) {
		r.recorder = rec
	}
}

// WithNotifier publishes job outcomes.
func WithNotifier(n notifications.Service) Option {
	return func(r *Runner) {
		if n != nil {
			r.notifier = n
		}
	}
}

// WithIDGenerator overrides job id generation (primarily for tests).
func WithIDGenerator(gen func() string) Option {
	return func(r *Runner) {
		if gen != nil {
			r.newID = gen
		}
	}
}

// Runner admits at most one job at a time.
type Runner struct {
	separator Separator
	logger    *slog.Logger
	recorder  Recorder
	notifier  notifications.Service
	newID     func() string
	now       func() time.Time

	lockPath string
	lock     *flock.Flock

	mu     sync.Mutex
	active *Job
}

// New constructs a runner around separator.
func New(separator Separator, opts ...Option) (*Runner, error) {
	if separator == nil {
		return nil, errors.New("runner requires a separator")
	}
	r := &Runner{
		separator: separator,
		logger:    logging.NewNop(),
		notifier:  notifications.NewService(nil),
		newID:     uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "runner")
	return r, nil
}

// Active returns the job in flight, if any.
func (r *Runner) Active() *Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Start launches req on a worker goroutine and returns without waiting for
// it. The caller must drain Job.Events.
func (r *Runner) Start(ctx context.Context, req separation.Request) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		return nil, ErrBusy
	}
	if err := r.acquireLock(); err != nil {
		return nil, err
	}

	job := newJob(r.newID(), req, r.now())
	r.active = job
	go r.run(ctx, job)
	return job, nil
}

func (r *Runner) acquireLock() error {
	if r.lock == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.lockPath), 0o755); err != nil {
		return fmt.Errorf("ensure lock directory: %w", err)
	}
	ok, err := r.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	return nil
}

func (r *Runner) release(job *Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == job {
		r.active = nil
	}
	if r.lock != nil {
		if err := r.lock.Unlock(); err != nil {
			r.logger.Warn("failed to release separation lock", logging.String("lock", r.lockPath), logging.Error(err))
		}
	}
}

func (r *Runner) run(ctx context.Context, job *Job) {
	defer close(job.events)

	ctx = services.WithOperation(services.WithJobID(ctx, job.ID), "separate")
	logger := logging.WithContext(ctx, r.logger)
	bookkeeping := context.WithoutCancel(ctx)

	logger.Info("separation started",
		logging.String("input_path", job.Request.InputPath()),
		logging.String("output_dir", job.Request.OutputDir()),
		logging.String("mode", string(job.Request.Mode())),
		logging.String("format", string(job.Request.Format())),
	)
	if r.recorder != nil {
		if err := r.recorder.RecordStart(bookkeeping, job.ID, job.Request, job.StartedAt); err != nil {
			logger.Warn("history record failed", logging.Error(err))
		}
	}

	result := r.execute(ctx, job, logger)
	finished := r.now()
	elapsed := finished.Sub(job.StartedAt)

	if result.Success {
		logger.Info("separation completed",
			logging.String("output_dir", result.OutputDir),
			logging.Int("stems", len(result.Stems)),
			logging.Duration("elapsed", elapsed),
		)
		if err := r.notifier.NotifySeparationCompleted(bookkeeping, job.Request.InputPath(), result.OutputDir, len(result.Stems), elapsed); err != nil {
			logger.Warn("completion notification failed", logging.Error(err))
		}
	} else {
		logger.Error("separation failed",
			logging.String("error_kind", string(result.Kind)),
			logging.String("error_message", result.Message),
		)
		if err := r.notifier.NotifySeparationFailed(bookkeeping, job.Request.InputPath(), result.Message); err != nil {
			logger.Warn("failure notification failed", logging.Error(err))
		}
	}
	if r.recorder != nil {
		if err := r.recorder.RecordFinish(bookkeeping, job.ID, result, finished); err != nil {
			logger.Warn("history update failed", logging.Error(err))
		}
	}

	r.release(job)
	job.events <- Event{Kind: EventCompleted, JobID: job.ID, Result: result}
}

func (r *Runner) execute(ctx context.Context, job *Job, logger *slog.Logger) (result separation.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("separation panicked",
				logging.Any("panic", rec),
				logging.String("stack", string(debug.Stack())),
			)
			result = separation.Failed(services.Wrap(services.ErrUnexpected, "separate", fmt.Sprintf("panic: %v", rec), nil))
		}
	}()

	sampler := logging.NewProgressSampler(5)
	stems, err := r.separator.Separate(ctx, job.Request, func(percent int) {
		percent = separation.ClampPercent(percent)
		job.progress.Store(int32(percent))
		if sampler.ShouldLog(percent) {
			logger.Info("separation progress", logging.Int(logging.FieldProgressPercent, percent))
		}
		job.events <- Event{Kind: EventProgress, JobID: job.ID, Progress: separation.ProgressEvent{Percent: percent}}
	})
	if err != nil {
		return separation.Failed(err)
	}
	return separation.Succeeded(job.Request.OutputDir(), stems)
}
