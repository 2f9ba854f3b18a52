package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"stemsplit/internal/config"
)

// Requirement defines an external dependency stemsplit relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the tools the configuration points at.
func Requirements(cfg *config.Config) []Requirement {
	demucsBinary, python := "demucs", "python3"
	if cfg != nil {
		demucsBinary, python = cfg.Demucs.Binary, cfg.Demucs.PythonBinary
	}
	return []Requirement{
		{Name: "Demucs", Command: demucsBinary, Description: "Stem separation"},
		{Name: "Python", Command: python, Description: "Installs Demucs via pip", Optional: true},
		{Name: "FFmpeg", Command: "ffmpeg", Description: "Decodes mp3 input for Demucs", Optional: true},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		switch {
		case cmd == "":
			status.Detail = "command not configured"
		default:
			if resolved, err := exec.LookPath(cmd); err != nil {
				status.Detail = fmt.Sprintf("binary %q not found", cmd)
			} else {
				status.Available = true
				status.Command = resolved
			}
		}
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the statuses of unavailable non-optional requirements.
func MissingRequired(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
