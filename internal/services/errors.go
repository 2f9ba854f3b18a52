package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInputMissing  = errors.New("input file missing")
	ErrToolNotFound  = errors.New("separation tool not found")
	ErrInstallFailed = errors.New("tool installation failed")
	ErrToolFailed    = errors.New("separation tool failed")
	ErrUnexpected    = errors.New("unexpected error")
)

// Kind names the failure class of an error for display and persistence.
type Kind string

const (
	KindNone          Kind = ""
	KindInputMissing  Kind = "input_missing"
	KindToolNotFound  Kind = "tool_not_found"
	KindInstallFailed Kind = "install_failed"
	KindToolFailed    Kind = "tool_failed"
	KindUnexpected    Kind = "unexpected"
)

// Wrap builds an error message that includes operation context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if marker == nil {
		marker = ErrUnexpected
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// KindOf maps an error to its failure class. Errors carrying no marker are
// reported as unexpected.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInputMissing):
		return KindInputMissing
	case errors.Is(err, ErrToolNotFound):
		return KindToolNotFound
	case errors.Is(err, ErrInstallFailed):
		return KindInstallFailed
	case errors.Is(err, ErrToolFailed):
		return KindToolFailed
	default:
		return KindUnexpected
	}
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
