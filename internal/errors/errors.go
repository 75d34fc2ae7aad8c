package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeAI         ErrorType = "ai"
	ErrorTypeTool       ErrorType = "tool"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Cause   error          `json:"-"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func newAppError(typ ErrorType, code, message string, cause error) *AppError {
	return &AppError{
		Type:    typ,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Error constructors for different types
func NewValidationError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeValidation, code, message, cause)
}

func NewIOError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeIO, code, message, cause)
}

func NewAIError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeAI, code, message, cause)
}

func NewToolError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeTool, code, message, cause)
}

func NewNetworkError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeNetwork, code, message, cause)
}

func NewConfigError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeConfig, code, message, cause)
}

func NewInternalError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeInternal, code, message, cause)
}

// WithContext adds context to an error
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Invocation failures. Every flow invocation either succeeds or fails with
// exactly one of these.
func NewInvalidInputError(flow string, cause error) *AppError {
	return NewValidationError(ErrCodeInvalidInput, "input does not match the flow schema", cause).
		WithContext("flow", flow)
}

func NewEmptyResultError(flow string) *AppError {
	return NewAIError(ErrCodeEmptyResult, "generation backend returned an empty answer", nil).
		WithContext("flow", flow)
}

func NewOutputSchemaViolationError(flow, raw string, cause error) *AppError {
	return NewAIError(ErrCodeOutputSchemaViolation, "answer does not match the flow output schema", cause).
		WithContext("flow", flow).
		WithContext(ContextKeyRawPayload, raw)
}

func NewToolExecutionError(tool string, cause error) *AppError {
	return NewToolError(ErrCodeToolExecution, fmt.Sprintf("tool %s failed", tool), cause).
		WithContext("tool", tool)
}

func NewBackendUnavailableError(message string, cause error) *AppError {
	return NewNetworkError(ErrCodeBackendUnavailable, message, cause)
}

// AsAppError returns the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether any AppError in err's chain carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// RawPayload returns the unvalidated backend answer attached to an
// output schema violation.
func RawPayload(err error) (string, bool) {
	appErr, ok := AsAppError(err)
	if !ok || appErr.Code != ErrCodeOutputSchemaViolation {
		return "", false
	}
	raw, ok := appErr.Context[ContextKeyRawPayload].(string)
	return raw, ok
}

const ContextKeyRawPayload = "rawPayload"

// Common error codes
const (
	ErrCodeFileNotFound    = "FILE_NOT_FOUND"
	ErrCodeFileNotReadable = "FILE_NOT_READABLE"
	ErrCodeInvalidFormat   = "INVALID_FORMAT"
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeMissingAPIKey   = "MISSING_API_KEY"
	ErrCodeInvalidConfig   = "INVALID_CONFIG"
	ErrCodeStorageFailed   = "STORAGE_FAILED"
	ErrCodeInternal        = "INTERNAL_ERROR"

	ErrCodeInvalidInput          = "INVALID_INPUT"
	ErrCodeEmptyResult           = "EMPTY_RESULT"
	ErrCodeOutputSchemaViolation = "OUTPUT_SCHEMA_VIOLATION"
	ErrCodeToolExecution         = "TOOL_EXECUTION_FAILED"
	ErrCodeBackendUnavailable    = "BACKEND_UNAVAILABLE"
	ErrCodeToolNotFound          = "TOOL_NOT_FOUND"
	ErrCodeFlowNotFound          = "FLOW_NOT_FOUND"
)
