package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Error categories. Every *Error wraps exactly one of these.
var (
	// ErrAuth means the provider rejected our credentials or permissions.
	ErrAuth = errors.New("provider rejected credentials")

	// ErrRateLimited means the provider throttled the request or quota is exhausted.
	ErrRateLimited = errors.New("provider rate limit exceeded")

	// ErrTransient covers network failures, timeouts and provider-side 5xx responses.
	ErrTransient = errors.New("transient provider failure")

	// ErrMalformedInput means the provider rejected what we sent (bad audio, oversize text, unreadable PDF).
	ErrMalformedInput = errors.New("provider rejected input")

	// ErrUpstream is any other provider failure, including unparseable responses.
	ErrUpstream = errors.New("provider failure")
)

// Non-category sentinels that adapters wrap inside a category.
var (
	// ErrInvalidConfig is returned when an adapter is constructed with unusable settings.
	ErrInvalidConfig = errors.New("invalid provider configuration")

	// ErrInvalidResponse is returned when a response cannot be parsed.
	ErrInvalidResponse = errors.New("invalid response from provider")

	// ErrContentBlocked is returned when a model refuses the content.
	ErrContentBlocked = errors.New("content blocked by provider safety filters")
)

var categories = []error{ErrAuth, ErrRateLimited, ErrTransient, ErrMalformedInput, ErrUpstream}

// Error is a classified provider failure.
type Error struct {
	// Provider names the service, e.g. "openai" or "deepgram".
	Provider string
	// Op is the operation that failed, e.g. "transcribe".
	Op string
	// Category is one of ErrAuth, ErrRateLimited, ErrTransient, ErrMalformedInput or ErrUpstream.
	Category error
	// RetryAfter is the provider's suggested backoff, when it sent one.
	RetryAfter time.Duration
	// Err is the underlying SDK or transport error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Category)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Provider, e.Op, e.Category, e.Err)
}

// Unwrap exposes both the category and the cause to errors.Is/errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Category}
	}
	return []error{e.Category, e.Err}
}

// NewError builds a classified error. A nil or unknown category becomes ErrUpstream.
func NewError(providerName, op string, category, err error) *Error {
	if !isCategory(category) {
		category = ErrUpstream
	}
	return &Error{Provider: providerName, Op: op, Category: category, Err: err}
}

func isCategory(err error) bool {
	for _, c := range categories {
		if err == c {
			return true
		}
	}
	return false
}

// CategoryForStatus maps an HTTP status code returned by a provider to a category.
func CategoryForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ErrAuth
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status == http.StatusRequestTimeout, status >= 500:
		return ErrTransient
	case status >= 400:
		return ErrMalformedInput
	default:
		return ErrUpstream
	}
}

// CategoryForTransport classifies an error that happened before any HTTP
// status was received. Timeouts and network errors are transient.
func CategoryForTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrTransient
	}
	return ErrUpstream
}

// CategoryOf returns the category err belongs to, or nil when err is not a
// classified provider error.
func CategoryOf(err error) error {
	for _, c := range categories {
		if errors.Is(err, c) {
			return c
		}
	}
	return nil
}

// CategoryName is a short label for logs and metrics.
func CategoryName(err error) string {
	switch CategoryOf(err) {
	case ErrAuth:
		return "auth"
	case ErrRateLimited:
		return "rate_limit"
	case ErrTransient:
		return "transient"
	case ErrMalformedInput:
		return "malformed_input"
	case ErrUpstream:
		return "upstream"
	default:
		return "unclassified"
	}
}
