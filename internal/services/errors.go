package services

import "errors"

// Auth outcome errors. Callers match them with errors.Is; the wrapped
// chain carries the oops code and the underlying cause for logging.
var (
	// ErrDuplicateUser is returned when the email is already registered.
	ErrDuplicateUser = errors.New("user already exists")

	// ErrInvalidCredentials covers an unknown email and a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrStorage is returned when the credential store fails.
	ErrStorage = errors.New("storage failure")

	// ErrTimeout is returned when a store call or hashing slot times out.
	ErrTimeout = errors.New("operation timed out")

	// ErrValidation is returned for missing or unacceptable input.
	ErrValidation = errors.New("validation failed")

	// ErrUserNotFound is returned by Profile for an unknown id.
	ErrUserNotFound = errors.New("user not found")
)
