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

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	ErrCodeReadFailure   = "READ_ERROR"
	ErrCodeStoreFailure  = "STORE_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrMissingFilename       = NewDomainError(ErrCodeValidation, "filename is required")
	ErrMissingContentHash    = NewDomainError(ErrCodeValidation, "content hash is required")
	ErrUnsupportedFileType   = NewDomainError(ErrCodeValidation, "unsupported file type")
	ErrEmptyDocument         = NewDomainError(ErrCodeValidation, "document is empty")
	ErrInvalidMetadataSchema = NewDomainError(ErrCodeValidation, "unknown chunk metadata schema version")
)

// Not found errors
var (
	ErrDocumentNotFound   = NewDomainError(ErrCodeNotFound, "document not found")
	ErrReindexJobNotFound = NewDomainError(ErrCodeNotFound, "reindex job not found")
	ErrArchiveNotFound    = NewDomainError(ErrCodeNotFound, "archived document bytes not found")
)

// ErrDuplicateDocument signals that a document with the same content hash is
// already registered. Callers treat it as "already present", not as a failure.
var ErrDuplicateDocument = NewDomainError(ErrCodeAlreadyExists, "document with this content hash already registered")

// Store errors
var (
	// ErrReadFailure is fatal for an ingestion: the input bytes could not be
	// fully consumed, so no content identity exists for them.
	ErrReadFailure = NewDomainError(ErrCodeReadFailure, "failed to read document content")

	// ErrChunkStoreInsert is fatal for an ingestion: the registry is never
	// written for content the chunk store did not accept.
	ErrChunkStoreInsert = NewDomainError(ErrCodeStoreFailure, "failed to write chunks to chunk store")
)

// IsNotFound reports whether err is a not-found domain error.
func IsNotFound(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == ErrCodeNotFound
}

// IsDuplicate reports whether err signals an already-registered content hash.
func IsDuplicate(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == ErrCodeAlreadyExists
}

// NewReadError wraps a low-level read failure as a fatal ReadError.
func NewReadError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeReadFailure, "failed to read document content", err)
}

// NewChunkStoreError wraps a chunk store insert failure.
func NewChunkStoreError(err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeStoreFailure, "failed to write chunks to chunk store", err)
}
