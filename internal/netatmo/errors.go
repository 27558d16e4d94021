package netatmo

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCredentials means the rc file does not hold enough credentials
	// to obtain a token. No network request is made in this state.
	ErrNoCredentials = errors.New("credentials not configured - run the config command first")

	// ErrStationNotFound is returned when a station name cannot be
	// resolved against a fresh directory fetch.
	ErrStationNotFound = errors.New("station not found")
)

// AuthError is an explicit rejection from the OAuth2 token endpoint.
type AuthError struct {
	Grant  string // "password" or "refresh_token"
	Reason string // upstream error code, e.g. "invalid_grant"
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s grant rejected: %s", e.Grant, e.Reason)
}

// APIError is the error envelope of the data endpoints.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}
