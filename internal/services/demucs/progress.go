package demucs

import (
	"regexp"
	"strconv"

	"stemsplit/internal/separation"
)

var progressPattern = regexp.MustCompile(`progress\s(\d+)%`)

// ParseProgress extracts the percentage from a "progress N%" line. Values
// above 100 are clamped.
func ParseProgress(line string) (int, bool) {
	match := progressPattern.FindStringSubmatch(line)
	if len(match) < 2 {
		return 0, false
	}
	value, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return separation.ClampPercent(value), true
}
