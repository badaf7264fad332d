// Package apperr defines the error kinds shared by the Friendify services
// and how they map onto HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
)

// Error kinds. Services wrap these with fmt.Errorf("%w: ...") so callers can
// match them with errors.Is while keeping the detailed message.
var (
	// ErrValidation is returned when a required input is missing or blank.
	ErrValidation = errors.New("validation failed")

	// ErrSelfRequest is returned when a user sends a friend request to themselves.
	ErrSelfRequest = errors.New("you cannot add yourself")

	// ErrNotFound is returned when a referenced user or request does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUpstreamAuth is returned when Spotify rejects the authorization code
	// or the client credentials.
	ErrUpstreamAuth = errors.New("spotify authorization failed")

	// ErrUpstreamProfile is returned when the Spotify profile cannot be read
	// or carries no user id.
	ErrUpstreamProfile = errors.New("spotify profile unavailable")

	// ErrStore is returned when the data store cannot be reached or a query fails.
	ErrStore = errors.New("store error")
)

// Status returns the HTTP status code for err.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrSelfRequest),
		errors.Is(err, ErrUpstreamAuth),
		errors.Is(err, ErrUpstreamProfile):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
