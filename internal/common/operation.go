package common

import "errors"

// OperationError carries a user-facing message next to the sentinel that
// classifies the failure. errors.Is matches the wrapped sentinel.
type OperationError struct {
	Err     error
	Message string
	Field   string
}

func (e *OperationError) Error() string {
	return e.Message
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// NewOperationError wraps kind with a message.
func NewOperationError(kind error, message string) *OperationError {
	return &OperationError{Err: kind, Message: message}
}

// ValidationFailed reports invalid input for the named field.
func ValidationFailed(field, message string) *OperationError {
	return &OperationError{Err: ErrorValidation, Message: message, Field: field}
}

// Kind returns the sentinel classifying err, or ErrorInternal when err does
// not wrap any of the known sentinels.
func Kind(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrorInternal
}

// Message returns the user-facing text of err. Errors that are not an
// OperationError yield fallback so internal details never leak.
func Message(err error, fallback string) string {
	var op *OperationError
	if errors.As(err, &op) && op.Message != "" {
		return op.Message
	}
	return fallback
}

var kinds = []error{
	ErrorValidation,
	ErrorConflict,
	ErrorNotFound,
	ErrorAlreadyExists,
	ErrorInvalidCredentials,
	ErrorInvalidCode,
	ErrorExpired,
	ErrorUnauthorized,
	ErrorForbidden,
	ErrorInternal,
}
