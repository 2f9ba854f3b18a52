package separation

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"stemsplit/internal/services"
)

// ProgressEvent carries a percentage in [0,100] parsed from tool output.
type ProgressEvent struct {
	Percent int
}

// Result is the terminal outcome of a run.
type Result struct {
	Success   bool
	Kind      services.Kind
	Message   string
	OutputDir string
	Stems     []string
}

// Succeeded builds the success result for the given output directory.
func Succeeded(outputDir string, stems []string) Result {
	return Result{
		Success:   true,
		Message:   fmt.Sprintf("Separation completed. Files saved to: %s", outputDir),
		OutputDir: outputDir,
		Stems:     stems,
	}
}

// Failed converts an error into a failure result. The error text becomes the
// user-facing message and the marker decides the kind.
func Failed(err error) Result {
	msg := "separation failed"
	if err != nil {
		msg = err.Error()
	}
	return Result{
		Success: false,
		Kind:    services.KindOf(err),
		Message: "Error: " + msg,
	}
}

// StemLabel turns a stem file path into a display label ("no_vocals.wav" →
// "No Vocals").
func StemLabel(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	return cases.Title(language.Und).String(base)
}

// ClampPercent bounds a parsed percentage to [0,100].
func ClampPercent(value int) int {
	switch {
	case value < 0:
		return 0
	case value > 100:
		return 100
	default:
		return value
	}
}
