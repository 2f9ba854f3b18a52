package separation

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Mode selects how many stems the separation produces.
type Mode string

const (
	// TwoStem splits into vocals and the accompaniment.
	TwoStem Mode = "two-stem"
	// FourStem splits into vocals, drums, bass, and other.
	FourStem Mode = "four-stem"
)

// Format selects the encoding of the stem files.
type Format string

const (
	WAV Format = "wav"
	MP3 Format = "mp3"
)

// ParseMode accepts the user-facing spellings of a separation mode.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "2", "two", "two-stem", "two-stems", "vocals":
		return TwoStem, nil
	case "4", "four", "four-stem", "four-stems":
		return FourStem, nil
	default:
		return "", fmt.Errorf("unknown separation mode %q", value)
	}
}

// ParseFormat accepts wav or mp3 (case-insensitive, optional leading dot).
func ParseFormat(value string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(value)), ".") {
	case "", "wav":
		return WAV, nil
	case "mp3":
		return MP3, nil
	default:
		return "", fmt.Errorf("unknown output format %q", value)
	}
}

// Stems lists the stem names Demucs writes for the mode.
func (m Mode) Stems() []string {
	if m == FourStem {
		return []string{"vocals", "drums", "bass", "other"}
	}
	return []string{"vocals", "no_vocals"}
}

// Request describes one separation run. It is built once through NewRequest
// and never mutated afterwards.
type Request struct {
	inputPath string
	outputDir string
	mode      Mode
	format    Format
}

// NewRequest validates the shape of the arguments and returns an immutable
// request. File existence is checked by the runner, not here.
func NewRequest(inputPath, outputDir string, mode Mode, format Format) (Request, error) {
	inputPath = strings.TrimSpace(inputPath)
	outputDir = strings.TrimSpace(outputDir)
	if inputPath == "" {
		return Request{}, errors.New("input path is required")
	}
	if outputDir == "" {
		return Request{}, errors.New("output directory is required")
	}
	switch mode {
	case TwoStem, FourStem:
	case "":
		mode = TwoStem
	default:
		return Request{}, fmt.Errorf("unknown separation mode %q", mode)
	}
	switch format {
	case WAV, MP3:
	case "":
		format = WAV
	default:
		return Request{}, fmt.Errorf("unknown output format %q", format)
	}
	return Request{
		inputPath: filepath.Clean(inputPath),
		outputDir: filepath.Clean(outputDir),
		mode:      mode,
		format:    format,
	}, nil
}

func (r Request) InputPath() string { return r.inputPath }
func (r Request) OutputDir() string { return r.outputDir }
func (r Request) Mode() Mode        { return r.mode }
func (r Request) Format() Format    { return r.format }

// TrackName is the input file name without its extension. Demucs uses it as
// the directory name for the stems.
func (r Request) TrackName() string {
	base := filepath.Base(r.inputPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
