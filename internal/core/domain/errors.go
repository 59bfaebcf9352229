package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a document or chunk ID is already taken.
	// Duplicate IDs are rejected synchronously; records are never
	// overwritten in place.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates a malformed caller argument, such as a
	// non-positive k passed to a vector search.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfiguration indicates bad chunking or index parameters.
	// Rejected before any work starts.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrIndexNotReady indicates an operation was attempted before the
	// vector index was constructed, or after it was closed.
	ErrIndexNotReady = errors.New("index not ready")

	// ErrCapacityExceeded indicates an insert beyond the index's build-time
	// element bound. The caller must rebuild with a larger bound.
	ErrCapacityExceeded = errors.New("index capacity exceeded")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Ingestion is impossible without it; queries degrade to a
	// passthrough of the raw query instead.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
