package repository

import "errors"

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned by Create when the store-level unique
	// constraint on email rejects the insert.
	ErrDuplicateEmail = errors.New("email already registered")
)
