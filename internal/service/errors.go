package service

import "errors"

// ErrValidation marks input rejected before anything is stored.
var ErrValidation = errors.New("validation failed")

// ValidationError carries the user-facing message for a rejected request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(msg string) error {
	return &ValidationError{Message: msg}
}
