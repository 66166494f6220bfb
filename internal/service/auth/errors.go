package auth

import "errors"

// Download token errors
var (
	// ErrInvalidToken indicates the token format is invalid or signature doesn't match
	ErrInvalidToken = errors.New("invalid download token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("download token has expired")

	// ErrTokenNotYetValid indicates the token is not yet valid (nbf claim in the future)
	ErrTokenNotYetValid = errors.New("download token not yet valid")

	// ErrMissingToken indicates a token was expected but not provided
	ErrMissingToken = errors.New("download token is missing")

	// ErrWrongTokenType indicates a validly signed token issued for another purpose
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrTaskMismatch indicates the token grants access to a different task
	ErrTaskMismatch = errors.New("download token does not match task")
)
