package deps

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"stemsplit/internal/logging"
	"stemsplit/internal/services"
)

// installPackages are installed in order; museval is needed by Demucs'
// evaluation imports.
var installPackages = []string{"demucs", "museval"}

// Installer installs Demucs with "<python> -m pip install".
type Installer struct {
	python string
	exec   Executor
	logger *slog.Logger
}

// NewInstaller builds an installer for the given interpreter.
func NewInstaller(python string, exec Executor, logger *slog.Logger) *Installer {
	python = strings.TrimSpace(python)
	if python == "" {
		python = "python3"
	}
	if exec == nil {
		exec = commandExecutor{}
	}
	return &Installer{
		python: python,
		exec:   exec,
		logger: logging.NewComponentLogger(logger, "installer"),
	}
}

// Install runs each pip install once. Any failure stops the sequence and is
// tagged with services.ErrInstallFailed.
func (i *Installer) Install(ctx context.Context) error {
	for _, pkg := range installPackages {
		args := []string{"-m", "pip", "install", pkg}
		i.logger.Info("installing python package", logging.String("package", pkg), logging.String("python", i.python))
		out, err := i.exec.CombinedOutput(ctx, i.python, args...)
		if err != nil {
			detail := lastLines(out, 5)
			i.logger.Error("pip install failed", logging.String("package", pkg), logging.Error(err), logging.String("output", detail))
			message := fmt.Sprintf("pip install %s", pkg)
			if detail != "" {
				message = fmt.Sprintf("%s: %s", message, detail)
			}
			return services.Wrap(services.ErrInstallFailed, "install", message, err)
		}
	}
	return nil
}

func lastLines(text string, n int) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
