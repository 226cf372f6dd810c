package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAccessDenied indicates the principal may not see the requested file.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthenticated indicates the request carries no valid principal.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// The fallback parser and keyword refinement are disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
