package metabolic

import "errors"

// ErrInvalidInput is matched by every error the calculator returns.
var ErrInvalidInput = errors.New("invalid input")

type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return e.Field + ": " + e.Reason
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field, reason string) error {
	return &InputError{Field: field, Reason: reason}
}
