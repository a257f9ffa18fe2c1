package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorKind tags a pipeline failure so the request layer can pick a status
// code without inspecting messages.
type ErrorKind string

const (
	KindUnknown    ErrorKind = "internal_error"
	KindValidation ErrorKind = "validation_error"
	KindExtraction ErrorKind = "extraction_error"
	KindIndexing   ErrorKind = "indexing_error"
	KindRetrieval  ErrorKind = "retrieval_error"
	KindGeneration ErrorKind = "generation_error"
)

// AppError wraps a cause with its kind and the operation that failed.
type AppError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *AppError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError wraps err with kind. A nil err yields nil.
func NewError(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{Kind: kind, Op: op, Err: err}
}

// Errorf creates a new tagged error from a format string.
func Errorf(kind ErrorKind, format string, args ...any) error {
	return &AppError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost AppError in the chain.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// StatusForKind maps an error kind to its HTTP status.
func StatusForKind(kind ErrorKind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindExtraction:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Detail    string    `json:"detail"`
	ErrorCode ErrorKind `json:"error_code,omitempty"`
}

// RespondWithError sends a standardized error response
func RespondWithError(c *gin.Context, statusCode int, errorCode ErrorKind, detail string) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Detail:    detail,
		ErrorCode: errorCode,
	})
}

// RespondWithBadRequest sends a 400 Bad Request error
func RespondWithBadRequest(c *gin.Context, detail string) {
	RespondWithError(c, http.StatusBadRequest, KindValidation, detail)
}

// RespondWithAppError maps err to a status by kind and prefixes the detail.
func RespondWithAppError(c *gin.Context, prefix string, err error) {
	kind := KindOf(err)
	detail := err.Error()
	if prefix != "" {
		detail = prefix + ": " + detail
	}
	RespondWithError(c, StatusForKind(kind), kind, detail)
}
