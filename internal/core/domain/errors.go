package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidSpec indicates an API specification could not be parsed
	ErrInvalidSpec = errors.New("invalid api specification")

	// ErrEmbeddingUnavailable indicates no embedding service is configured
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIngestInProgress indicates an ingestion run already holds the lock
	ErrIngestInProgress = errors.New("ingestion already in progress")

	// ErrInvalidProvider indicates an unknown AI provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates an AI service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)
