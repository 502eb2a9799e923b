package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest signals a malformed request that is not a filter literal problem.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrFilterValue signals a filter literal that cannot be parsed.
	ErrFilterValue = errors.New("invalid filter value")
	// ErrDimensionMismatch signals a vector whose length differs from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingUnavailable signals a transient embedding provider failure.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
)

// FilterValueError names the filter field whose literal could not be parsed.
type FilterValueError struct {
	Field string
	Value string
}

func (e *FilterValueError) Error() string {
	return fmt.Sprintf("%s: field %q has invalid value %q", ErrFilterValue.Error(), e.Field, e.Value)
}

func (e *FilterValueError) Unwrap() error { return ErrFilterValue }

// NewFilterValueError creates a filter value error for the given field.
func NewFilterValueError(field, value string) error {
	return &FilterValueError{Field: field, Value: value}
}

// DimensionMismatchError is fatal: the embedding model and the index disagree.
type DimensionMismatchError struct {
	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %d, got %d", ErrDimensionMismatch.Error(), e.Expected, e.Got)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(expected, got int) error {
	return &DimensionMismatchError{Expected: expected, Got: got}
}

// EmbeddingUnavailableError is retryable; Cause carries the provider failure.
type EmbeddingUnavailableError struct {
	Cause error
}

func (e *EmbeddingUnavailableError) Error() string {
	if e.Cause == nil {
		return ErrEmbeddingUnavailable.Error()
	}
	return fmt.Sprintf("%s: %v", ErrEmbeddingUnavailable.Error(), e.Cause)
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is / errors.As.
func (e *EmbeddingUnavailableError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrEmbeddingUnavailable}
	}
	return []error{ErrEmbeddingUnavailable, e.Cause}
}

// NewEmbeddingUnavailable wraps a provider failure as retryable.
func NewEmbeddingUnavailable(cause error) error {
	return &EmbeddingUnavailableError{Cause: cause}
}

// IsRetryable reports whether err is worth another attempt after backoff.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrEmbeddingUnavailable)
}
