package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Standard error types
var (
	ErrNotFound       = errors.New("resource not found")
	ErrBadRequest     = errors.New("bad request")
	ErrConflict       = errors.New("resource conflict")
	ErrInternal       = errors.New("internal server error")
	ErrValidation     = errors.New("validation error")
	ErrMissingColumns = errors.New("missing required columns")
	ErrMissingInput   = errors.New("missing planning input")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Common error constructors

func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "CONFLICT",
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// MissingColumns reports an uploaded table that lacks required columns.
// Columns are the canonical names, e.g. "RM Code".
func MissingColumns(table string, columns []string) *AppError {
	return &AppError{
		Err:        ErrMissingColumns,
		Code:       "MISSING_COLUMNS",
		Message:    fmt.Sprintf("%s is missing columns: %s", table, strings.Join(columns, ", ")),
		StatusCode: http.StatusUnprocessableEntity,
		Details:    map[string]string{"table": table, "columns": strings.Join(columns, ", ")},
	}
}

// MissingInput reports planning prerequisites that have not been loaded yet.
func MissingInput(parts []string) *AppError {
	return &AppError{
		Err:        ErrMissingInput,
		Code:       "MISSING_INPUT",
		Message:    fmt.Sprintf("please load: %s", strings.Join(parts, ", ")),
		StatusCode: http.StatusUnprocessableEntity,
		Details:    map[string]string{"missing": strings.Join(parts, ", ")},
	}
}

// FromValidation flattens a field error map, such as the one produced by
// ozzo-validation, into a Validation error.
func FromValidation(fields map[string]error) *AppError {
	details := make(map[string]string, len(fields))
	for k, err := range fields {
		details[k] = err.Error()
	}
	return Validation(details)
}

// StatusCode returns the HTTP status for err, 500 for anything that is not an AppError.
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
