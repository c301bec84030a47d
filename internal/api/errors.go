package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Error types for common failure scenarios.
var (
	// ErrInvalidCredentials indicates the login form was rejected.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrSessionInvalid indicates the held token was rejected by the
	// backend (expired or garbage). The caller demotes to anonymous.
	ErrSessionInvalid = errors.New("session invalid or expired")

	// ErrForbidden indicates the authenticated user lacks the required role.
	ErrForbidden = errors.New("forbidden")
)

// RegistrationError is a user-visible registration failure with the backend's
// explanation (e.g. "Email already registered").
type RegistrationError struct {
	Detail string
}

func (e *RegistrationError) Error() string {
	if e.Detail == "" {
		return "registration failed"
	}
	return "registration failed: " + e.Detail
}

// HTTPError represents an unexpected HTTP-level failure (non-2xx response
// with no more specific mapping).
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// errorDetail extracts the backend's {"detail": "..."} error body.
// Returns "" when the body is not in that shape.
func errorDetail(r io.Reader) string {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return ""
	}
	return body.Detail
}

// statusError maps a non-2xx response to the client error taxonomy.
func statusError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrSessionInvalid
	case http.StatusForbidden:
		return ErrForbidden
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}
}
