package models

import (
	"errors"
	"fmt"
)

// ErrEmptySelection reports that an operator was handed a mask with no selected
// pixels. It is a diagnostic, not a failure: the accompanying result is an
// unmodified copy of the input.
var ErrEmptySelection = errors.New("nothing selected")

// LoadError wraps a failure to read or decode an image or mask.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewLoadError builds a LoadError from a formatted message.
func NewLoadError(source, format string, args ...interface{}) *LoadError {
	return &LoadError{Source: source, Err: fmt.Errorf(format, args...)}
}

// ProcessingError wraps a failure inside a pixel transform.
type ProcessingError struct {
	Operation string
	Err       error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

func IsProcessingError(err error) bool {
	var pe *ProcessingError
	return errors.As(err, &pe)
}
