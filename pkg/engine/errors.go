package engine

import (
	"errors"
	"fmt"
)

// ErrorClass is the classification of a pipeline error.
type ErrorClass string

const (
	// ErrorClassValidation indicates input that failed sanitization, catalog
	// lookup or admission policy. Reported before any filesystem work.
	ErrorClassValidation ErrorClass = "validation"

	// ErrorClassExecution indicates an external tool that could not be
	// started or exited unsuccessfully.
	ErrorClassExecution ErrorClass = "execution"

	// ErrorClassFileState indicates a file that should exist after an earlier
	// step is missing, or could not be rewritten.
	ErrorClassFileState ErrorClass = "file_state"

	// ErrorClassConflict indicates the target already exists, or a requested
	// name collides with something importable.
	ErrorClassConflict ErrorClass = "conflict"
)

// EngineError represents a classified error with context.
// nolint:revive // EngineError is intentionally named to distinguish from standard errors
type EngineError struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Step is the pipeline step that failed, if any.
	Step StepName `json:"step,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`

	// Details contains additional context-specific information.
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}
	if e.Step != "" {
		return fmt.Sprintf("[%s] %s (step=%s)", e.Class, msg, e.Step)
	}
	return fmt.Sprintf("[%s] %s", e.Class, msg)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// UserMessage is the text shown to an observer: the message and its cause,
// without the class and step decoration.
func (e *EngineError) UserMessage() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}
	return e.Message
}

// NewValidationError creates a new validation error.
func NewValidationError(message string, err error) *EngineError {
	return &EngineError{Class: ErrorClassValidation, Message: message, Code: ErrCodeInvalidName, Err: err}
}

// NewExecutionError creates a new execution error.
func NewExecutionError(message string, err error) *EngineError {
	return &EngineError{Class: ErrorClassExecution, Message: message, Code: ErrCodeNonZeroExit, Err: err}
}

// NewFileStateError creates a new file state error.
func NewFileStateError(message string, err error) *EngineError {
	return &EngineError{Class: ErrorClassFileState, Message: message, Code: ErrCodeFileMissing, Err: err}
}

// NewConflictError creates a new conflict error.
func NewConflictError(message string, err error) *EngineError {
	return &EngineError{Class: ErrorClassConflict, Message: message, Code: ErrCodeTargetExists, Err: err}
}

// WithStep adds step context to an error.
func (e *EngineError) WithStep(step StepName) *EngineError {
	e.Step = step
	return e
}

// WithCode sets the error code.
func (e *EngineError) WithCode(code string) *EngineError {
	e.Code = code
	return e
}

// WithDetail adds a detail field to the error context.
func (e *EngineError) WithDetail(key string, value interface{}) *EngineError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsValidation returns true if the error is classified as validation.
func IsValidation(err error) bool {
	return classOf(err) == ErrorClassValidation
}

// IsExecution returns true if the error is classified as execution.
func IsExecution(err error) bool {
	return classOf(err) == ErrorClassExecution
}

// IsFileState returns true if the error is classified as file state.
func IsFileState(err error) bool {
	return classOf(err) == ErrorClassFileState
}

// IsConflict returns true if the error is classified as a conflict.
func IsConflict(err error) bool {
	return classOf(err) == ErrorClassConflict
}

func classOf(err error) ErrorClass {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class
	}
	return ""
}

// Error codes.
const (
	ErrCodeInvalidName    = "INVALID_NAME"
	ErrCodeUnknownPackage = "UNKNOWN_PACKAGE"
	ErrCodeSpawnFailed    = "SPAWN_FAILED"
	ErrCodeNonZeroExit    = "NON_ZERO_EXIT"
	ErrCodeFileMissing    = "FILE_MISSING"
	ErrCodeBlockNotFound  = "BLOCK_NOT_FOUND"
	ErrCodeWriteFailed    = "WRITE_FAILED"
	ErrCodeTargetExists   = "TARGET_EXISTS"
	ErrCodeModuleConflict = "MODULE_CONFLICT"
	ErrCodePolicyDenied   = "POLICY_DENIED"
	ErrCodeCancelled      = "CANCELLED"
)
