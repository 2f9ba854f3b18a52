package demucs

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

const maxLineBytes = 1024 * 1024

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader) {
		defer wg.Done()
		if err := scanOutput(r, onLine); err != nil {
			once.Do(func() {
				scanErr = err
			})
			// Keep the pipe empty so the child can run to exit.
			_, _ = io.Copy(io.Discard, r)
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("wait command: %w", err)
	}
	if scanErr != nil {
		return fmt.Errorf("scan output: %w", scanErr)
	}
	return nil
}

// scanOutput feeds r to onLine one line at a time. A line longer than
// maxLineBytes keeps only its tail instead of aborting the scan.
func scanOutput(r io.Reader, onLine func(string)) error {
	for {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		scanner.Split(scanLinesOrCarriage)
		for scanner.Scan() {
			if onLine != nil {
				onLine(scanner.Text())
			}
		}
		err := scanner.Err()
		if !errors.Is(err, bufio.ErrTooLong) {
			return err
		}
		// The dropped buffer held no delimiter, so the next scanner resumes
		// mid-line.
	}
}

// scanLinesOrCarriage splits on '\n' or '\r' so progress bars that redraw in
// place still arrive as separate lines.
func scanLinesOrCarriage(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
