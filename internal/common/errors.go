// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Storage errors.
	ErrNotFound = errors.New("not found")

	// Accounting errors. The ledger rejects the single transaction and
	// keeps the position unchanged; these are never fatal.
	ErrNegativeQuantity = errors.New("transaction would drive quantity negative")
	ErrZeroQuantity     = errors.New("transaction would make quantity exactly zero")

	// Contract violations. These indicate programmer error and fail the
	// run instead of being recovered.
	ErrUnsortedStream = errors.New("transaction stream is not sorted")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
