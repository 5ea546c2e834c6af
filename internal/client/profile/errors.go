package profile

import "errors"

var (
	// ErrMissingToken is returned when no CSRF token is available at submit time.
	ErrMissingToken = errors.New("csrf token not found")
	// ErrNotAuthenticated is returned by actions outside the authenticated state.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSaving is returned when an update is already in flight.
	ErrSaving = errors.New("update already in progress")
)
