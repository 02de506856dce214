package store

import "errors"

// Predefined errors for the store layer.
var (
	// ErrNotFound indicates that a requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates a unique key violation, e.g. a second settlement
	// for the same driver and month.
	ErrConflict = errors.New("conflict")

	// ErrStatusMismatch is returned by guarded writes when the row is not in
	// one of the expected statuses at commit time.
	ErrStatusMismatch = errors.New("status mismatch")
)

// StatusMismatchError carries the status observed under the row lock.
type StatusMismatchError struct {
	Current string
}

func (e *StatusMismatchError) Error() string {
	return "status mismatch: current status is " + e.Current
}

func (e *StatusMismatchError) Unwrap() error {
	return ErrStatusMismatch
}
