// Package errors holds the sentinel errors shared across layers. Callers wrap
// them with fmt.Errorf("...: %w") and test them with errors.Is.
package errors

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidInput     = errors.New("invalid input")
	ErrAccountSuspended = errors.New("account suspended")
)
