// Package errors provides structured error handling for logexport.
//
// Errors carry an ErrorType that drives how callers react: the orchestrator
// records per-entry failures by type, and only configuration-scan failures are
// allowed to fail an invocation.
package errors

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/aws/smithy-go"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeNotFound represents resource not found errors
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeConflict represents conflict errors, e.g. an export already in flight
	ErrorTypeConflict ErrorType = "conflict"
	// ErrorTypeRateLimit represents throttling errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeTimeout represents timeout errors
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeConnection represents connection errors
	ErrorTypeConnection ErrorType = "connection"
	// ErrorTypePermission represents permission errors
	ErrorTypePermission ErrorType = "permission"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsRetryable returns true if the error is retryable
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeTimeout, ErrorTypeConnection:
		return true
	default:
		return false
	}
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	return GetType(err) == errType
}

// GetType returns the type of the outermost structured error in the chain,
// or ErrorTypeInternal when err carries none.
func GetType(err error) ErrorType {
	var e *Error
	if !errors.As(err, &e) {
		return ErrorTypeInternal
	}
	return e.Type
}

// Classify maps an AWS API error to an ErrorType. Errors that are already
// structured keep their type.
func Classify(err error) ErrorType {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorTypeTimeout
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return ErrorTypeConnection
	}

	switch apiErr.ErrorCode() {
	case "ResourceNotFoundException", "NoSuchBucket", "NotFound", "QueueDoesNotExist",
		"AWS.SimpleQueueService.NonExistentQueue":
		return ErrorTypeNotFound
	case "LimitExceededException", "ResourceAlreadyExistsException", "OperationAbortedException",
		"ConditionalCheckFailedException", "TransactionConflictException":
		return ErrorTypeConflict
	case "AccessDeniedException", "AccessDenied", "UnauthorizedOperation", "UnrecognizedClientException",
		"ExpiredTokenException", "InvalidSignatureException", "Forbidden":
		return ErrorTypePermission
	case "InvalidParameterException", "ValidationException", "InvalidParameterValue",
		"InvalidOperationException", "SerializationException":
		return ErrorTypeValidation
	case "ThrottlingException", "ProvisionedThroughputExceededException", "RequestLimitExceeded",
		"TooManyRequestsException", "Throttling":
		return ErrorTypeRateLimit
	case "ServiceUnavailableException", "InternalServerError", "InternalFailure", "ServiceUnavailable":
		return ErrorTypeConnection
	}

	if apiErr.ErrorFault() == smithy.FaultServer {
		return ErrorTypeConnection
	}
	return ErrorTypeInternal
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
