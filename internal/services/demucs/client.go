package demucs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"stemsplit/internal/separation"
	"stemsplit/internal/services"
)

const (
	defaultModel  = "htdemucs"
	defaultDevice = "cpu"

	// diagnosticLines bounds how much tool output is kept for failure messages.
	diagnosticLines = 20
	// diagnosticLineRunes caps a single diagnostic line.
	diagnosticLineRunes = 240
)

// Executor abstracts command execution for testability. onLine receives each
// stdout and stderr line as it is produced.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onLine func(string)) error
}

// ExitError reports that the tool ran and exited with a non-zero status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithBufferedProgress defers progress parsing until the tool has exited
// successfully. A failed run then reports no progress at all.
func WithBufferedProgress(buffered bool) Option {
	return func(c *Client) {
		c.buffered = buffered
	}
}

// Client wraps Demucs CLI interactions.
type Client struct {
	binary   string
	model    string
	device   string
	buffered bool
	exec     Executor
}

// New constructs a Demucs client. Empty model and device fall back to
// htdemucs on the CPU.
func New(binary, model, device string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("demucs binary required")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultModel
	}
	device = strings.TrimSpace(device)
	if device == "" {
		device = defaultDevice
	}
	client := &Client{
		binary: binary,
		model:  model,
		device: device,
		exec:   commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Binary returns the configured executable.
func (c *Client) Binary() string { return c.binary }

// Model returns the configured separation model.
func (c *Client) Model() string { return c.model }

// BuildArgs returns the Demucs argument list for req. Two-stem mode and mp3
// output each contribute exactly one extra flag.
func (c *Client) BuildArgs(req separation.Request) []string {
	args := make([]string, 0, 9)
	if req.Mode() == separation.TwoStem {
		args = append(args, "--two-stems=vocals")
	}
	args = append(args, "-n", c.model, req.InputPath(), "-d", c.device, "-o", req.OutputDir())
	if req.Format() == separation.MP3 {
		args = append(args, "--mp3")
	}
	return args
}

// Separate runs Demucs for req and returns the stem files it produced.
// onProgress is invoked once per progress line, in output order, and never
// concurrently with itself.
func (c *Client) Separate(ctx context.Context, req separation.Request, onProgress func(int)) ([]string, error) {
	info, err := os.Stat(req.InputPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrInputMissing, "validate input", fmt.Sprintf("input file %q does not exist", req.InputPath()), nil)
		}
		return nil, services.Wrap(services.ErrInputMissing, "validate input", fmt.Sprintf("input file %q is not readable", req.InputPath()), err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrInputMissing, "validate input", fmt.Sprintf("input %q is a directory, not an audio file", req.InputPath()), nil)
	}
	if err := os.MkdirAll(req.OutputDir(), 0o755); err != nil {
		return nil, services.Wrap(services.ErrUnexpected, "prepare output", fmt.Sprintf("create output directory %q", req.OutputDir()), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, services.Wrap(services.ErrUnexpected, "launch", "cancelled before start", err)
	}

	var (
		mu       sync.Mutex
		tail     = newLineTail(diagnosticLines)
		buffered []string
	)
	onLine := func(line string) {
		mu.Lock()
		defer mu.Unlock()
		percent, ok := ParseProgress(line)
		if !ok {
			tail.add(line)
		}
		if c.buffered {
			buffered = append(buffered, line)
			return
		}
		if ok && onProgress != nil {
			onProgress(percent)
		}
	}

	runErr := c.exec.Run(ctx, c.binary, c.BuildArgs(req), onLine)
	if runErr != nil {
		return nil, classifyRunError(c.binary, runErr, tail.String())
	}

	if c.buffered && onProgress != nil {
		for _, line := range buffered {
			if percent, ok := ParseProgress(line); ok {
				onProgress(percent)
			}
		}
	}

	stems, err := CollectStems(req.OutputDir(), c.model, req)
	if err != nil {
		return nil, services.Wrap(services.ErrUnexpected, "collect stems", "inspect output directory", err)
	}
	return stems, nil
}

func classifyRunError(binary string, err error, diagnostics string) error {
	var exitErr *ExitError
	switch {
	case errors.As(err, &exitErr):
		detail := diagnostics
		if detail == "" {
			detail = "no diagnostic output"
		}
		return services.Wrap(services.ErrToolFailed, "demucs", exitErr.Error(), errors.New(detail))
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		return services.Wrap(services.ErrToolNotFound, "launch", fmt.Sprintf("%s is not installed or not executable", binary), err)
	default:
		return services.Wrap(services.ErrUnexpected, "demucs", "run failed", err)
	}
}

// CollectStems lists the stem files Demucs wrote for req under
// <outputDir>/<model>/<track>. A missing directory yields no stems.
func CollectStems(outputDir, model string, req separation.Request) ([]string, error) {
	dir := filepath.Join(outputDir, model, req.TrackName())
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	ext := "." + string(req.Format())
	stems := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		stems = append(stems, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(stems)
	return stems, nil
}

// lineTail keeps the last n non-blank lines.
type lineTail struct {
	max   int
	lines []string
}

func newLineTail(max int) *lineTail {
	return &lineTail{max: max}
}

func (t *lineTail) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if runes := []rune(line); len(runes) > diagnosticLineRunes {
		line = string(runes[:diagnosticLineRunes]) + "..."
	}
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

func (t *lineTail) String() string {
	return strings.Join(t.lines, "\n")
}
