package auth

import (
	"errors"
	"net/http"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid bearer token")
	ErrNoSubject    = errors.New("token has no subject")
)

// MapHTTPStatus maps auth errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrMissingToken) || errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrNoSubject) {
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}
