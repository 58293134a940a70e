// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")

	// Model errors.
	ErrNotFitted = errors.New("model not fitted")
)

// LoadError reports a missing, empty, or malformed input file.
// It is fatal; nothing about it is transient, so callers never retry.
type LoadError struct {
	Err  error
	Path string
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to load %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("failed to load %s", e.Path)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// SchemaError reports a reference to a column that does not exist,
// or a column whose contents do not match the expected kind.
type SchemaError struct {
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("column %q: %s", e.Column, e.Reason)
}

// InvalidProportionError reports a split fraction outside the open interval (0, 1).
type InvalidProportionError struct {
	Proportion float64
}

func (e *InvalidProportionError) Error() string {
	return fmt.Sprintf("split proportion %v is outside (0, 1)", e.Proportion)
}

// InsufficientDataError reports a degenerate training partition: too few
// rows for the requested feature sample, or a single-class target.
type InsufficientDataError struct {
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return "insufficient training data: " + e.Reason
}

// UnseenCategoryError reports a prediction-time category value that was
// absent from the fitted model's learned level set for a feature. It is
// surfaced rather than silently coerced to missing or a default.
type UnseenCategoryError struct {
	Feature string
	Value   string
}

func (e *UnseenCategoryError) Error() string {
	return fmt.Sprintf("feature %q: category %q was not seen at fit time", e.Feature, e.Value)
}
