package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates that the caller is not allowed to perform the action.
var ErrForbidden = errors.New("forbidden")

// ErrMissingInput indicates that a required engine input was entirely absent,
// e.g. ratios were requested without any balance-sheet snapshot. The engine
// fails fast rather than emitting an all-undefined result that looks complete.
var ErrMissingInput = errors.New("required input missing")

// ErrInvalidAggregate indicates that an aggregate input was structurally invalid,
// e.g. a negative value in a field that must be non-negative.
var ErrInvalidAggregate = errors.New("invalid aggregate input")

// MissingInputError carries which input was absent. It unwraps to ErrMissingInput.
type MissingInputError struct {
	Input string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("required input missing: %s", e.Input)
}

func (e *MissingInputError) Unwrap() error {
	return ErrMissingInput
}

// InvalidAggregateError identifies the offending field and value. It unwraps to
// ErrInvalidAggregate.
type InvalidAggregateError struct {
	Field  string
	Detail string
}

func (e *InvalidAggregateError) Error() string {
	return fmt.Sprintf("invalid aggregate input: field %s: %s", e.Field, e.Detail)
}

func (e *InvalidAggregateError) Unwrap() error {
	return ErrInvalidAggregate
}
