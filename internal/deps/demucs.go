package deps

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

const probeTimeout = 30 * time.Second

// Executor runs a command to completion and returns its combined output.
type Executor interface {
	CombinedOutput(ctx context.Context, binary string, args ...string) (string, error)
}

type commandExecutor struct{}

func (commandExecutor) CombinedOutput(ctx context.Context, binary string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, binary, args...).CombinedOutput() //nolint:gosec
	return string(out), err
}

// DefaultExecutor runs real processes.
func DefaultExecutor() Executor {
	return commandExecutor{}
}

// DetectDemucs reports whether binary is usable. A PATH hit is enough;
// otherwise the binary is run with --help and must mention "usage".
func DetectDemucs(ctx context.Context, exec Executor, binary string) bool {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return false
	}
	if status := CheckBinaries([]Requirement{{Name: "Demucs", Command: binary}}); status[0].Available {
		return true
	}
	if exec == nil {
		exec = commandExecutor{}
	}
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	out, err := exec.CombinedOutput(probeCtx, binary, "--help")
	if err != nil && !isExitError(err) {
		return false
	}
	return strings.Contains(strings.ToLower(out), "usage")
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}
