// Package apperror holds the error kinds shared by every domain. Domain
// packages wrap these so callers can classify failures with errors.Is.
package apperror

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state transition")
	ErrConflict     = errors.New("concurrent update conflict")
	ErrCalculation  = errors.New("calculation failed")
)

// IsNotFound reports whether err is any domain not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports whether err is a lock or concurrent-update conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
