package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/accounts/internal/common"
	"github.com/dmitrijs2005/accounts/internal/logging"
	validation "github.com/go-ozzo/ozzo-validation"
)

const msgInternal = "Internal server error"

// internalError logs cause and returns the generic store failure. Errors
// that already carry a classification pass through untouched.
func internalError(ctx context.Context, log logging.Logger, op string, cause error) error {
	var opErr *common.OperationError
	if errors.As(cause, &opErr) {
		return cause
	}
	log.Error(ctx, op+" failed", "error", cause)
	return &common.OperationError{Err: common.ErrorInternal, Message: msgInternal}
}

type field struct {
	name  string
	value string
}

// requireFields fails with message on the first empty field.
func requireFields(message string, fields ...field) error {
	for _, f := range fields {
		if err := validation.Validate(f.value, validation.Required); err != nil {
			return common.ValidationFailed(f.name, message)
		}
	}
	return nil
}

// validatePassword applies the rules every newly chosen password follows.
func validatePassword(email, password string) error {
	if err := validation.Validate(password, validation.Length(minPasswordLen, 0)); err != nil {
		return common.ValidationFailed("password", "Password must be at least 6 characters")
	}
	differs := validation.By(func(v interface{}) error {
		if strings.EqualFold(v.(string), email) {
			return errors.New("equal to email")
		}
		return nil
	})
	if err := validation.Validate(password, differs); err != nil {
		return common.ValidationFailed("password", "Email and password must be different")
	}
	return nil
}
