package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Core not-found conditions raised by the collaboration service.
// Callers match them with errors.Is.
var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrSuggestionNotFound = errors.New("suggestion not found")
	ErrVersionNotFound    = errors.New("version not found")
)

// SessionNotFound wraps ErrSessionNotFound with the offending id
func SessionNotFound(sessionID string) error {
	return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
}

func DocumentNotFound(documentID string) error {
	return fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
}

func SuggestionNotFound(suggestionID string) error {
	return fmt.Errorf("%w: %s", ErrSuggestionNotFound, suggestionID)
}

func VersionNotFound(documentID string, version uint64) error {
	return fmt.Errorf("%w: document %s version %d", ErrVersionNotFound, documentID, version)
}

// APIError is the error shape returned by HTTP handlers
type APIError struct {
	Status   int    `json:"-"`
	Message  string `json:"error"`
	Internal error  `json:"-"`
}

// Error returns the error message
func (e *APIError) Error() string {
	if e.Internal != nil {
		return e.Message + ": " + e.Internal.Error()
	}
	return e.Message
}

// Unwrap returns the original error
func (e *APIError) Unwrap() error {
	return e.Internal
}

// New creates a new API error
func New(status int, message string, err error) *APIError {
	return &APIError{
		Status:   status,
		Message:  message,
		Internal: err,
	}
}

func BadRequest(message string, err error) *APIError {
	return New(http.StatusBadRequest, message, err)
}

func Unauthorized(message string, err error) *APIError {
	return New(http.StatusUnauthorized, message, err)
}

func Forbidden(message string, err error) *APIError {
	return New(http.StatusForbidden, message, err)
}

func NotFound(message string, err error) *APIError {
	return New(http.StatusNotFound, message, err)
}

func Conflict(message string, err error) *APIError {
	return New(http.StatusConflict, message, err)
}

func UnprocessableEntity(message string, err error) *APIError {
	return New(http.StatusUnprocessableEntity, message, err)
}

func Internal(err error) *APIError {
	return New(http.StatusInternalServerError, "Internal server error", err)
}

// NewValidationError wraps a request-binding failure
func NewValidationError(err error) *APIError {
	return New(http.StatusBadRequest, "Invalid input", err)
}

// FromCore maps the service's sentinel errors onto API errors
func FromCore(err error) *APIError {
	switch {
	case errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrDocumentNotFound),
		errors.Is(err, ErrSuggestionNotFound),
		errors.Is(err, ErrVersionNotFound):
		return NotFound("Resource not found", err)
	default:
		return Internal(err)
	}
}
