package tools

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/docprobe/docprobe/internal/loader"
	"github.com/docprobe/docprobe/pkg/profile"
)

// Error codes for MCP tool responses.
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeProfileError = "PROFILE_ERROR"
)

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// WrapProfileError converts aggregation and loading failures into coded
// errors so clients can branch on the code.
func WrapProfileError(err error) error {
	if err == nil {
		return nil
	}

	var coded *CodedError

	var decodeErr *loader.DecodeError
	var depthErr *profile.DepthExceededError
	switch {
	case errors.As(err, &decodeErr):
		coded = &CodedError{
			Code:    ErrCodeInvalidInput,
			Message: decodeErr.Error(),
			Cause:   err,
		}
	case errors.As(err, &depthErr):
		coded = &CodedError{
			Code:    ErrCodeProfileError,
			Message: depthErr.Error(),
			Cause:   err,
		}
	default:
		coded = &CodedError{
			Code:    ErrCodeProfileError,
			Message: err.Error(),
			Cause:   err,
		}
	}

	slog.Warn("profile error",
		slog.String("code", coded.Code),
		slog.String("message", coded.Message),
	)

	return coded
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &CodedError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}
