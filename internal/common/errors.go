// Package common defines shared constants and sentinel errors used across
// the medchat server and client. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors.
	ErrorValidation    = errors.New("validation error")
	ErrorAlreadyExists = errors.New("username already registered")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")

	// Chat errors.
	ErrSessionNotFound     = errors.New("session not found")
	ErrServiceUnavailable  = errors.New("AI service not available")
	ErrMessageProcessing   = errors.New("error processing message")
	ErrInsecureDefaultConf = errors.New("insecure default configuration")
)
