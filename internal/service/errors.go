package service

import (
	"errors"
	"fmt"
)

// Service errors checked by the API layer with errors.Is.
var (
	// ErrAPIKeyNotFound is returned when a key to revoke matches no stored key.
	// API layer should map this to HTTP 404 Not Found.
	ErrAPIKeyNotFound = errors.New("API key not found")

	// ErrInvalidAPIKey is returned when a presented key is malformed, unknown or inactive.
	// API layer should map this to HTTP 403 Forbidden.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrEmptyQuery is returned when a lookup name or question is blank.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrSummaryParse is returned when the model's lookup summary is not the expected JSON.
	ErrSummaryParse = errors.New("failed to parse the summary")
)

// ServiceError records which service operation failed.
type ServiceError struct {
	Service   string
	Operation string
	Err       error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s service %s: %v", e.Service, e.Operation, e.Err)
}

// Unwrap returns the wrapped error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError wraps err with the service and operation names.
func NewServiceError(service, operation string, err error) *ServiceError {
	return &ServiceError{Service: service, Operation: operation, Err: err}
}
