// Package errors provides error handling for pricefeed.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Typed sentinel errors for boundary checks
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrTimeout) {
//	    // handle timeout
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is            = crdb.Is
	IsAny         = crdb.IsAny
	As            = crdb.As
	Unwrap        = crdb.Unwrap
	UnwrapAll     = crdb.UnwrapAll
	GetAllDetails = crdb.GetAllDetails
	GetAllHints   = crdb.GetAllHints
)

// Common sentinel errors for use across pricefeed.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")

	// ErrTimeout indicates an operation timed out
	ErrTimeout = New("operation timed out")

	// ErrNoMapping indicates a supplier has no registered acquisition
	// mapping (endpoint mapping or scraping strategy). This is a
	// configuration error and is raised to the caller immediately.
	ErrNoMapping = New("no supplier mapping")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsTimeoutError checks if an error is or wraps ErrTimeout.
func IsTimeoutError(err error) bool {
	return err != nil && Is(err, ErrTimeout)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}
