package httputil

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	apperrors "github.com/vsinha/fgplan/pkg/errors"
)

// Validate runs the request's ozzo rules and converts field errors into a
// Validation error carrying one detail per field.
func Validate(v validation.Validatable) error {
	err := v.Validate()
	if err == nil {
		return nil
	}
	var fields validation.Errors
	if apperrors.As(err, &fields) {
		return apperrors.FromValidation(fields)
	}
	return apperrors.BadRequest(err.Error())
}

// DecodeAndValidate decodes a JSON body and validates it
func DecodeAndValidate(r *http.Request, v validation.Validatable) error {
	if err := DecodeJSON(r, v); err != nil {
		return err
	}
	return Validate(v)
}
