// Package common defines shared constants and sentinel errors used across
// the server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// ErrNotFound is returned when the principal's user record or the
	// requested aggregate does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the aggregate exists but belongs to a
	// different principal. It is deliberately distinct from ErrNotFound.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthenticated is returned when a request carries a token the
	// identity provider no longer accepts, or reaches a protected route
	// without a principal.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUpstream marks identity-provider or object-storage failures that
	// are unrelated to the caller's input. Fail closed: never treat it as
	// granted access.
	ErrUpstream = errors.New("upstream failure")

	// ErrValidation marks a malformed request shape.
	ErrValidation = errors.New("validation error")
)
