package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dudoxx/dudoxx-api/internal/api/shared"
	"github.com/dudoxx/dudoxx-api/internal/domain"
	"github.com/dudoxx/dudoxx-api/internal/platform/storage"
	"github.com/dudoxx/dudoxx-api/internal/provider"
	"github.com/dudoxx/dudoxx-api/internal/service"
	"github.com/dudoxx/dudoxx-api/internal/service/auth"
	"github.com/dudoxx/dudoxx-api/internal/store"
	"github.com/dudoxx/dudoxx-api/internal/task"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found
	case errors.Is(err, task.ErrTaskNotFound),
		errors.Is(err, service.ErrAPIKeyNotFound),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound

	// Authentication and authorization
	case errors.Is(err, service.ErrInvalidAPIKey),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrTaskMismatch):
		return http.StatusForbidden

	// Bad requests
	case errors.Is(err, domain.ErrUnsupportedMediaType),
		errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, domain.ErrInvalidContextID),
		errors.Is(err, domain.ErrTextTooLong),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, domain.ErrInvalidAPIKey),
		errors.Is(err, service.ErrEmptyQuery),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Provider categories
	case errors.Is(err, provider.ErrMalformedInput):
		return http.StatusBadRequest
	case errors.Is(err, provider.ErrRateLimited):
		return http.StatusServiceUnavailable
	case errors.Is(err, provider.ErrTransient):
		return http.StatusGatewayTimeout
	case errors.Is(err, provider.ErrAuth),
		errors.Is(err, provider.ErrUpstream),
		errors.Is(err, service.ErrSummaryParse):
		return http.StatusBadGateway

	case errors.Is(err, task.ErrRunnerStopped):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing message for err that reveals
// nothing about internals.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, task.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, service.ErrAPIKeyNotFound):
		return "API key not found"
	case errors.Is(err, storage.ErrNotFound):
		return "File not found"
	case errors.Is(err, store.ErrNotFound):
		return "Not found"

	case errors.Is(err, service.ErrInvalidAPIKey):
		return "Invalid API Key"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Download link expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrTaskMismatch):
		return "Invalid download token"

	case errors.Is(err, domain.ErrUnsupportedMediaType):
		return "Unsupported file type"
	case errors.Is(err, domain.ErrEmptyContent):
		return "Uploaded file is empty"
	case errors.Is(err, domain.ErrInvalidContextID):
		return "Invalid context_id"
	case errors.Is(err, domain.ErrTextTooLong):
		return fmt.Sprintf("Text must be at most %d characters", domain.MaxSpeechTextLength)
	case errors.Is(err, domain.ErrInvalidAPIKey):
		return "Invalid API key format"
	case errors.Is(err, service.ErrEmptyQuery):
		return "Query cannot be empty"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request"

	case errors.Is(err, provider.ErrMalformedInput):
		return "The provider rejected the input"
	case errors.Is(err, provider.ErrRateLimited):
		return "The provider is rate limiting requests, try again later"
	case errors.Is(err, provider.ErrTransient):
		return "The provider did not respond in time"
	case errors.Is(err, service.ErrSummaryParse):
		return "Failed to parse the summary"
	case errors.Is(err, provider.ErrAuth),
		errors.Is(err, provider.ErrUpstream):
		return "The provider request failed"

	case errors.Is(err, task.ErrRunnerStopped):
		return "Server is shutting down"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the mapped status and message for err. A non-empty
// userMessage replaces the mapped message. Provider rate limits carry the
// provider's Retry-After hint when one was sent.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, userMessage string) {
	status := MapErrorToStatusCode(err)
	if userMessage == "" {
		userMessage = GetSafeErrorMessage(err)
	}

	var opts []shared.ResponseOption
	var perr *provider.Error
	if errors.As(err, &perr) && perr.RetryAfter > 0 {
		opts = append(opts, shared.WithRetryAfter(perr.RetryAfter))
	}
	if status == http.StatusForbidden {
		opts = append(opts, shared.WithElevatedLogLevel())
	}

	shared.RespondWithErrorAndLog(w, r, status, userMessage, err, opts...)
}

// HandleValidationError writes a 400 with a sanitized description of err.
func HandleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
}

// SanitizeValidationError turns validator errors into a short message naming
// the first offending field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("Invalid %s: %s", strings.ToLower(fe.Field()), getValidationTagMessage(fe.Tag()))
	}
	return "Invalid request body"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
