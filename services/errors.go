package services

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Stable error codes returned to API clients alongside the HTTP status.
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeAuthorization = "AUTHORIZATION_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
)

type ServiceError struct {
	Code    string
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func NewValidationError(msg string) *ServiceError {
	return &ServiceError{Code: CodeValidation, Message: msg}
}

func NewAuthorizationError(msg string) *ServiceError {
	return &ServiceError{Code: CodeAuthorization, Message: msg}
}

func NewNotFoundError(msg string) *ServiceError {
	return &ServiceError{Code: CodeNotFound, Message: msg}
}

func NewConflictError(msg string) *ServiceError {
	return &ServiceError{Code: CodeConflict, Message: msg}
}

// HTTPStatus maps the taxonomy onto response codes. Conflict is the one fatal
// case: it means the direct-chat uniqueness race could not be resolved by
// re-reading, which points at a storage fault rather than bad input.
func (e *ServiceError) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return fiber.StatusBadRequest
	case CodeAuthorization:
		return fiber.StatusForbidden
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeConflict:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}

// AsServiceError unwraps err into a *ServiceError, or nil if it is not one.
func AsServiceError(err error) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return nil
}
