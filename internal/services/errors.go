package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool      = errors.New("external tool error")
	ErrDependencyMissing = errors.New("dependency missing")
	ErrEmptyInput        = errors.New("empty input")
	ErrValidation        = errors.New("validation error")
	ErrConfiguration     = errors.New("configuration error")
	ErrNotFound          = errors.New("not found")
	ErrTransient         = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// MediaToolError reports a non-zero exit from the external media tool. The
// tool's diagnostic output is kept verbatim in Stderr.
type MediaToolError struct {
	Message string
	Stderr  string
	Err     error
}

func (e *MediaToolError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr == "" {
		return e.Message
	}
	return e.Message + ". " + stderr
}

func (e *MediaToolError) Unwrap() error { return e.Err }

func (e *MediaToolError) Is(target error) bool { return target == ErrExternalTool }

// DependencyMissingError reports an optional engine dependency that could not
// be loaded. Remedy is a human instruction such as "pip install TTS".
type DependencyMissingError struct {
	Dependency string
	Remedy     string
	Err        error
}

func (e *DependencyMissingError) Error() string {
	msg := fmt.Sprintf("%s is not installed", e.Dependency)
	if e.Remedy != "" {
		msg += ". Install with: " + e.Remedy
	}
	return msg
}

func (e *DependencyMissingError) Unwrap() error { return e.Err }

func (e *DependencyMissingError) Is(target error) bool { return target == ErrDependencyMissing }

// EmptyInputError is returned when an engine receives no usable text.
type EmptyInputError struct {
	Message string
}

func (e *EmptyInputError) Error() string {
	if e.Message == "" {
		return "empty input"
	}
	return e.Message
}

func (e *EmptyInputError) Is(target error) bool { return target == ErrEmptyInput }

// Remedy returns the install hint carried by a dependency error, if any.
func Remedy(err error) (string, bool) {
	var depErr *DependencyMissingError
	if errors.As(err, &depErr) && depErr.Remedy != "" {
		return depErr.Remedy, true
	}
	return "", false
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
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
