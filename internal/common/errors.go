package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInternal           = errors.New("internal error")
	ErrDatabase           = errors.New("database error")
	ErrValidation         = errors.New("validation failed")
	ErrConfig             = errors.New("invalid configuration")
	ErrRender             = errors.New("page render failed")
	ErrExtract            = errors.New("text extraction failed")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrArtifactMismatch   = errors.New("model artifact mismatch")
)

// Error codes used with AppError.
const (
	CodeConfig    = "CONFIG_ERROR"
	CodeRender    = "RENDER_ERROR"
	CodeExtract   = "EXTRACT_ERROR"
	CodeBackend   = "BACKEND_UNAVAILABLE"
	CodeArtifact  = "ARTIFACT_MISMATCH"
	CodeDatabase  = "DATABASE_ERROR"
	CodeNotFound  = "NOT_FOUND"
	CodeBadInput  = "INVALID_INPUT"
	CodeInternal  = "INTERNAL_ERROR"
	CodeTimeout   = "TIMEOUT"
	CodeCancelled = "CANCELLED"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func ConfigError(message string) error {
	return NewAppError(CodeConfig, message, ErrConfig)
}

// DatabaseError wraps a driver error so it matches both ErrDatabase and err.
func DatabaseError(op string, err error) error {
	return NewAppError(CodeDatabase, op, fmt.Errorf("%w: %w", ErrDatabase, err))
}

func ArtifactMismatchErrorf(format string, args ...interface{}) error {
	return NewAppError(CodeArtifact, fmt.Sprintf(format, args...), ErrArtifactMismatch)
}

// ErrorCode extracts the AppError code from err, or CodeInternal.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// IsBackendUnavailable reports whether err means an optional tool is missing.
func IsBackendUnavailable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}
