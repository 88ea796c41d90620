package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// Typed errors below wrap one of these so callers can use errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or missing input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIO indicates the store or the embedding provider could not be reached.
	// Operations failing with ErrIO may be retried with backoff.
	ErrIO = errors.New("i/o failure")

	// ErrEmbedding indicates the vectorizer failed on an input.
	ErrEmbedding = errors.New("embedding failed")

	// ErrDimensionMismatch indicates two vectors of different dimensions were compared.
	// This is an internal invariant violation, not a caller mistake.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// FieldError names one invalid field and why it was rejected.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports every field of a request that failed validation.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// Add records another invalid field.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// ErrOrNil returns e if any field was recorded, otherwise nil.
func (e *ValidationError) ErrOrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NotFoundError reports a referenced tenant or document that does not exist.
type NotFoundError struct {
	Kind string // "tenant" or "document"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// IOError reports an unavailable store or embedding provider, including timeouts.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() []error { return []error{ErrIO, e.Err} }

// Retryable reports that the failed operation may succeed if repeated.
func (e *IOError) Retryable() bool { return true }

// EmbeddingError reports that the vectorizer failed on one input.
// Ingestion aborts before any write when this occurs.
type EmbeddingError struct {
	Chunk int // -1 for the query text
	Err   error
}

func (e *EmbeddingError) Error() string {
	if e.Chunk < 0 {
		return fmt.Sprintf("embedding query: %v", e.Err)
	}
	return fmt.Sprintf("embedding chunk %d: %v", e.Chunk, e.Err)
}

func (e *EmbeddingError) Unwrap() []error { return []error{ErrEmbedding, e.Err} }

// IsRetryable reports whether err, or any error it wraps, is retryable.
func IsRetryable(err error) bool {
	var r interface{ Retryable() bool }
	return errors.As(err, &r) && r.Retryable()
}
