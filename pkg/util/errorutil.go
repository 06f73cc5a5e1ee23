package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Stable error codes returned to procedure callers.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeUnavailable  = "UNAVAILABLE"
	CodeInternal     = "INTERNAL"
)

const internalMessage = "internal server error"

// DomainError is the only failure shape a caller ever sees. Err carries the
// cause for logging and is never serialized.
type DomainError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Fields     map[string]string `json:"fields,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the same request may succeed later.
func (e *DomainError) Retryable() bool {
	return e.Code == CodeUnavailable
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, fields map[string]string) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Fields: fields}
}

func NewBadRequest(message string, fields map[string]string) *DomainError {
	return NewDomainError(CodeBadRequest, message, http.StatusBadRequest, fields)
}

func NewUnauthorized(message string) *DomainError {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewNotFound(resource string) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound, nil)
}

func NewConflict(message string) *DomainError {
	return NewDomainError(CodeConflict, message, http.StatusConflict, nil)
}

func NewUnavailable(err error) *DomainError {
	return &DomainError{
		Code:       CodeUnavailable,
		Message:    "service temporarily unavailable, please retry",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewInternalError(err error) *DomainError {
	return &DomainError{
		Code:       CodeInternal,
		Message:    internalMessage,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError. Anything it does not
// recognise becomes INTERNAL with the generic message.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fromStatus(fiberErr.Code, fiberErr.Message)
	}
	return NewInternalError(err)
}

func fromStatus(status int, message string) *DomainError {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusRequestEntityTooLarge:
		return NewBadRequest(message, nil)
	case http.StatusUnauthorized:
		return NewUnauthorized(message)
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return NewDomainError(CodeNotFound, message, status, nil)
	case http.StatusConflict:
		return NewConflict(message)
	case http.StatusServiceUnavailable, http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return NewUnavailable(errors.New(message))
	}
	return NewInternalError(errors.New(message))
}
