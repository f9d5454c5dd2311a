package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	appErrors "github.com/noah-isme/vaccination-api/pkg/errors"
)

// txRunner executes fn inside a database transaction.
type txRunner interface {
	WithinTx(ctx context.Context, label string, fn func(exec sqlx.ExtContext) error) error
}

// internal maps an unexpected failure to a redacted 500 unless it already
// carries a domain error.
func internal(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "operation timed out")
	}
	return appErrors.Internal(err, message)
}

// validationError turns validator output into a readable 400.
func validationError(err error, message string) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fields := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, fe.Field())
		}
		message = message + ": " + strings.Join(fields, ", ")
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// requireID validates a path identifier.
func requireID(validate *validator.Validate, id, name string) error {
	if strings.TrimSpace(id) == "" {
		return appErrors.Clone(appErrors.ErrValidation, name+" is required")
	}
	if err := validate.Var(id, "uuid"); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid "+name)
	}
	return nil
}
