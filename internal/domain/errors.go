// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidFormat is returned when data is not in the expected format.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrEmptyContent is returned when required content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidAPIKey is returned when an API key does not have the dud- shape.
	ErrInvalidAPIKey = errors.New("invalid API key format")

	// ErrInvalidContextID is returned when an isolation tag is empty or malformed.
	ErrInvalidContextID = errors.New("invalid context id")

	// ErrUnsupportedMediaType is returned when an upload's content type is not accepted.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrTextTooLong is returned when speech input exceeds MaxSpeechTextLength.
	ErrTextTooLong = errors.New("text too long")
)
