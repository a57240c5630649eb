package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// HasErrorCode reports whether err (or anything it wraps) is a DomainError
// with the given code.
func HasErrorCode(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Common domain error codes
const (
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeUnsupportedFormat    = "UNSUPPORTED_FORMAT"
	ErrCodeExtractionFailed     = "EXTRACTION_FAILED"
	ErrCodeEmbeddingUnavailable = "EMBEDDING_UNAVAILABLE"
	ErrCodeEmbeddingRejected    = "EMBEDDING_REJECTED"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrInvalidDocumentCategory = NewDomainError(ErrCodeValidation, "invalid document category")
	ErrInvalidMemoryCategory   = NewDomainError(ErrCodeValidation, "invalid memory category")
	ErrInvalidChunkConfig      = NewDomainError(ErrCodeValidation, "chunk overlap must be smaller than window size")
	ErrInvalidTopK             = NewDomainError(ErrCodeValidation, "topK must be at least 1")
	ErrEmptyContent            = NewDomainError(ErrCodeValidation, "content cannot be empty")
	ErrMissingUserID           = NewDomainError(ErrCodeValidation, "user id is required")
)

// Not found errors
var (
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
	ErrMemoryNotFound   = NewDomainError(ErrCodeNotFound, "memory not found")
)

// Access errors
var (
	ErrMemoryAccessDenied = NewDomainError(ErrCodeForbidden, "memory belongs to another user")
)

// Extraction errors
var (
	ErrUnsupportedFormat = NewDomainError(ErrCodeUnsupportedFormat, "document format is not supported")
	ErrExtractionFailed  = NewDomainError(ErrCodeExtractionFailed, "text extraction failed")
)

// Embedding errors. Unavailable is transient and retried by the ingestion
// pipeline; rejected is terminal for the input that caused it.
var (
	ErrEmbeddingUnavailable = NewDomainError(ErrCodeEmbeddingUnavailable, "embedding provider unavailable")
	ErrEmbeddingRejected    = NewDomainError(ErrCodeEmbeddingRejected, "embedding input rejected")
)
