// Package validator adapts go-playground/validator to Echo's Validator interface.
package validator

import (
	domainerrors "staan/internal/domain/errors"

	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the validator instance used for request DTOs.
type CustomValidator struct {
	validate *validator.Validate
}

// New builds the validator Echo consults for every Bind+Validate pair.
func New() *CustomValidator {
	return &CustomValidator{validate: validator.New()}
}

// Validate implements echo.Validator. Failures map to the shared
// validation error with the offending fields in the details.
func (v *CustomValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	return nil
}
