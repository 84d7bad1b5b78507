// Package errs contains sentinel and typed errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
)

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidToken indicates no stored token matches the presented one.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnauthorized indicates failed admin authentication.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNameTaken indicates a unique constraint violation (e.g., provider name taken).
	ErrNameTaken = errors.New("name already taken")

	// ErrNoProvider indicates no provider config exists to dispatch with.
	ErrNoProvider = errors.New("no provider config set")
)

// ValidationError reports malformed caller input (bad token shape, message size, selector).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation: " + e.Reason }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// RateLimitError reports that a token exhausted its hourly window.
// Limit is the configured per-token requests-per-hour value.
type RateLimitError struct {
	Limit int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d per hour", e.Limit)
}

// DispatchError reports a transport-level failure talking to the provider
// (unreachable endpoint, timeout). Distinct from ProviderError: the outcome
// of the delivery is unknown.
type DispatchError struct {
	Err error
}

func (e *DispatchError) Error() string { return "dispatch failed: " + e.Err.Error() }

func (e *DispatchError) Unwrap() error { return e.Err }

// ProviderError reports a non-success response from the provider, carrying
// its raw status and body.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider rejected: status %d: %s", e.StatusCode, e.Body)
}
