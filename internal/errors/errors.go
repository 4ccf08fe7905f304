package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected failure modes
var (
	ErrUnknownRoot      = errors.New("unknown root pitch class")
	ErrInvalidTempo     = errors.New("tempo must be positive")
	ErrInvalidDuration  = errors.New("duration must be positive")
	ErrInvalidMeter     = errors.New("meter numerator must be at least 1")
	ErrEmptyPalette     = errors.New("palette contains no colors")
	ErrUnsupportedImage = errors.New("unsupported or corrupted image")
	ErrFileNotFound     = errors.New("file not found")
)

// ParamError represents an invalid composition parameter supplied by the
// caller. Identity parameters (root, tempo, duration) fail fast rather
// than being clamped; heuristic parameters (mode, instrument) degrade to
// documented defaults instead and never produce this error.
type ParamError struct {
	Param string // "root", "tempo", "duration", "meter"
	Value string
	Cause error
}

func (e *ParamError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %v", e.Param, e.Value, e.Cause)
	}
	return fmt.Sprintf("invalid %s: %v", e.Param, e.Cause)
}

func (e *ParamError) Unwrap() error {
	return e.Cause
}

// NewParamError creates a ParamError
func NewParamError(param, value string, cause error) *ParamError {
	return &ParamError{Param: param, Value: value, Cause: cause}
}
