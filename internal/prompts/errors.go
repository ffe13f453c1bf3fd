package prompts

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors for settings operations.
var (
	ErrNotFound        = errors.New("settings not found")
	ErrInvalidTemplate = errors.New("invalid prompt template")
	ErrInvalidPricing  = errors.New("invalid pricing")
)

func invalidTemplate(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidTemplate, msg)
}

func invalidPricing(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidPricing, err)
}

// MapHTTPStatus maps settings domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidTemplate) || errors.Is(err, ErrInvalidPricing) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
