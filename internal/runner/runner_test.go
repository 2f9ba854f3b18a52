package runner_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"stemsplit/internal/runner"
	"stemsplit/internal/separation"
	"stemsplit/internal/services"
	"stemsplit/internal/services/demucs"
)

type fakeExecutor struct {
	mu    sync.Mutex
	lines []string
	err   error
	calls int
}

func (f *fakeExecutor) Run(_ context.Context, _ string, _ []string, onLine func(string)) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	for _, line := range f.lines {
		onLine(line)
	}
	return f.err
}

func (f *fakeExecutor) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recorder struct {
	mu       sync.Mutex
	started  []string
	finished []separation.Result
}

func (r *recorder) RecordStart(_ context.Context, id string, _ separation.Request, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, id)
	return nil
}

func (r *recorder) RecordFinish(_ context.Context, _ string, result separation.Result, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, result)
	return nil
}

type separatorFunc func(ctx context.Context, req separation.Request, onProgress func(int)) ([]string, error)

func (f separatorFunc) Separate(ctx context.Context, req separation.Request, onProgress func(int)) ([]string, error) {
	return f(ctx, req, onProgress)
}

func newClient(t *testing.T, exec demucs.Executor) *demucs.Client {
	t.Helper()
	client, err := demucs.New("demucs", "htdemucs", "cpu", demucs.WithExecutor(exec))
	if err != nil {
		t.Fatalf("demucs.New: %v", err)
	}
	return client
}

func newRequest(t *testing.T, input string) separation.Request {
	t.Helper()
	req, err := separation.NewRequest(input, filepath.Join(t.TempDir(), "out"), separation.TwoStem, separation.WAV)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return req
}

func existingInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "song.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

type tally struct {
	progress    []int
	completions []separation.Result
}

func drain(t *testing.T, job *runner.Job) tally {
	t.Helper()
	var got tally
	done := make(chan struct{})
	go func() {
		defer close(done)
		runner.Drain(job.Events(), runner.Callbacks{
			OnProgress: func(p int) { got.progress = append(got.progress, p) },
			OnComplete: func(r separation.Result) { got.completions = append(got.completions, r) },
		})
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out draining job events")
	}
	return got
}

func TestMissingInputFailsWithoutLaunch(t *testing.T) {
	exec := &fakeExecutor{}
	r, err := runner.New(newClient(t, exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	job, err := r.Start(context.Background(), newRequest(t, filepath.Join(t.TempDir(), "missing.mp3")))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	got := drain(t, job)

	if exec.Calls() != 0 {
		t.Fatalf("expected zero launches, got %d", exec.Calls())
	}
	if len(got.progress) != 0 {
		t.Fatalf("expected no progress, got %v", got.progress)
	}
	if len(got.completions) != 1 || got.completions[0].Success {
		t.Fatalf("expected one failure completion, got %+v", got.completions)
	}
	if got.completions[0].Kind != services.KindInputMissing {
		t.Fatalf("unexpected kind %q", got.completions[0].Kind)
	}
	if !strings.Contains(got.completions[0].Message, "missing.mp3") {
		t.Fatalf("expected descriptive message, got %q", got.completions[0].Message)
	}
}

func TestProgressThenSingleSuccess(t *testing.T) {
	exec := &fakeExecutor{lines: []string{"progress 10%", "progress 55%", "progress 100%"}}
	rec := &recorder{}
	r, err := runner.New(newClient(t, exec), runner.WithRecorder(rec), runner.WithIDGenerator(func() string { return "job-1" }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req := newRequest(t, existingInput(t))
	job, err := r.Start(context.Background(), req)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if job.ID != "job-1" {
		t.Fatalf("unexpected job id %q", job.ID)
	}
	got := drain(t, job)

	if !reflect.DeepEqual(got.progress, []int{10, 55, 100}) {
		t.Fatalf("unexpected progress %v", got.progress)
	}
	if len(got.completions) != 1 || !got.completions[0].Success {
		t.Fatalf("expected exactly one success, got %+v", got.completions)
	}
	if !strings.Contains(got.completions[0].Message, req.OutputDir()) {
		t.Fatalf("expected output dir in message, got %q", got.completions[0].Message)
	}
	if job.Progress() != 100 {
		t.Fatalf("expected last progress 100, got %d", job.Progress())
	}
	if exec.Calls() != 1 {
		t.Fatalf("expected one launch, got %d", exec.Calls())
	}
	if len(rec.started) != 1 || len(rec.finished) != 1 || !rec.finished[0].Success {
		t.Fatalf("unexpected history calls: %+v", rec)
	}
}

func TestNonZeroExitSingleFailure(t *testing.T) {
	exec := &fakeExecutor{lines: []string{"disk full"}, err: &demucs.ExitError{Code: 1}}
	r, _ := runner.New(newClient(t, exec))

	job, err := r.Start(context.Background(), newRequest(t, existingInput(t)))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	got := drain(t, job)

	if len(got.completions) != 1 {
		t.Fatalf("expected exactly one completion, got %d", len(got.completions))
	}
	res := got.completions[0]
	if res.Success || res.Kind != services.KindToolFailed {
		t.Fatalf("unexpected result %+v", res)
	}
	if !strings.Contains(res.Message, "disk full") {
		t.Fatalf("expected diagnostic in message, got %q", res.Message)
	}
}

func TestStartRejectsOverlappingJobs(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	sep := separatorFunc(func(ctx context.Context, req separation.Request, onProgress func(int)) ([]string, error) {
		close(entered)
		<-release
		return nil, nil
	})
	r, _ := runner.New(sep)

	first, err := r.Start(context.Background(), newRequest(t, "/a.wav"))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-entered
	if _, err := r.Start(context.Background(), newRequest(t, "/b.wav")); !errors.Is(err, runner.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if r.Active() != first {
		t.Fatal("expected first job to be active")
	}

	close(release)
	drain(t, first)
	if r.Active() != nil {
		t.Fatal("expected runner to be idle after completion")
	}
	second, err := r.Start(context.Background(), newRequest(t, "/c.wav"))
	if err != nil {
		t.Fatalf("expected new job to be admitted, got %v", err)
	}
	drain(t, second)
}

func TestPanicIsReportedAsUnexpected(t *testing.T) {
	sep := separatorFunc(func(context.Context, separation.Request, func(int)) ([]string, error) {
		panic("boom")
	})
	r, _ := runner.New(sep)
	job, err := r.Start(context.Background(), newRequest(t, "/a.wav"))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	got := drain(t, job)
	if len(got.completions) != 1 || got.completions[0].Kind != services.KindUnexpected {
		t.Fatalf("expected one unexpected failure, got %+v", got.completions)
	}
	if !strings.Contains(got.completions[0].Message, "boom") {
		t.Fatalf("expected panic value in message, got %q", got.completions[0].Message)
	}
}

func TestLockFileExcludesSecondRunner(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "state", "stemsplit.lock")
	release := make(chan struct{})
	entered := make(chan struct{})
	blocking := separatorFunc(func(context.Context, separation.Request, func(int)) ([]string, error) {
		close(entered)
		<-release
		return nil, nil
	})
	first, _ := runner.New(blocking, runner.WithLockFile(lockPath))
	second, _ := runner.New(separatorFunc(func(context.Context, separation.Request, func(int)) ([]string, error) {
		return nil, nil
	}), runner.WithLockFile(lockPath))

	job, err := first.Start(context.Background(), newRequest(t, "/a.wav"))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-entered
	if _, err := second.Start(context.Background(), newRequest(t, "/b.wav")); !errors.Is(err, runner.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	close(release)
	drain(t, job)

	job2, err := second.Start(context.Background(), newRequest(t, "/b.wav"))
	if err != nil {
		t.Fatalf("expected lock to be free, got %v", err)
	}
	drain(t, job2)
}

func TestCallbacksApplyIgnoresNilHandlers(t *testing.T) {
	runner.Callbacks{}.Apply(runner.Event{Kind: runner.EventProgress, Progress: separation.ProgressEvent{Percent: 5}})
	runner.Callbacks{}.Apply(runner.Event{Kind: runner.EventCompleted})
}
