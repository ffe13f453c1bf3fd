package submissions

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Domain errors for submission operations.
var (
	ErrValidation        = errors.New("invalid split request")
	ErrNotFound          = errors.New("submission not found")
	ErrInvalidPipelineID = errors.New("invalid pipeline id")
	ErrRateLimited       = errors.New("rate limit exceeded")
	ErrPersistence       = errors.New("failed to persist submission")
	ErrDuplicate         = errors.New("submission already exists")
)

// RateLimitError reports when the caller may retry.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s, retry after %s", ErrRateLimited, e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

func validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// MapHTTPStatus maps submission domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidPipelineID):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}
