package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/openfroyo/confsync/pkg/model"
)

// ErrorClass represents the classification of an error.
type ErrorClass string

const (
	// ErrorClassTransient indicates a temporary failure that may succeed when
	// the import is run again. Examples: remote system unavailable.
	ErrorClassTransient ErrorClass = "transient"

	// ErrorClassConflict indicates a remote state conflict.
	// Examples: an entity created by someone else between plan and apply.
	ErrorClassConflict ErrorClass = "conflict"

	// ErrorClassPermanent indicates a non-recoverable error.
	// Examples: invalid document, remote system rejected a mutation.
	ErrorClassPermanent ErrorClass = "permanent"
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

	// Resource is the reference of the entity that caused the error, if any.
	Resource string `json:"resource,omitempty"`

	// Operation is the operation being performed when the error occurred.
	Operation string `json:"operation,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`

	// Details contains additional context-specific information.
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Class, e.Message)
	switch {
	case e.Resource != "" && e.Operation != "":
		msg = fmt.Sprintf("%s (resource=%s, operation=%s)", msg, e.Resource, e.Operation)
	case e.Resource != "":
		msg = fmt.Sprintf("%s (resource=%s)", msg, e.Resource)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
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

// NewTransientError creates a new transient error.
func NewTransientError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassTransient,
		Message: message,
		Err:     err,
	}
}

// NewConflictError creates a new conflict error.
func NewConflictError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassConflict,
		Message: message,
		Err:     err,
	}
}

// NewPermanentError creates a new permanent error.
func NewPermanentError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassPermanent,
		Message: message,
		Err:     err,
	}
}

// WithResource adds resource context to an error.
func (e *EngineError) WithResource(ref model.Reference) *EngineError {
	e.Resource = ref.String()
	return e
}

// WithOperation adds operation context to an error.
func (e *EngineError) WithOperation(operation OperationType) *EngineError {
	e.Operation = string(operation)
	return e
}

// WithCode adds an error code to an error.
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

// IsTransient returns true if the error is classified as transient.
func IsTransient(err error) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class == ErrorClassTransient
	}
	return false
}

// IsConflict returns true if the error is classified as a conflict.
func IsConflict(err error) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class == ErrorClassConflict
	}
	return false
}

// IsPermanent returns true if the error is classified as permanent.
func IsPermanent(err error) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class == ErrorClassPermanent
	}
	return false
}

// Common error codes.
const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeCycle        = "DEPENDENCY_CYCLE"
	ErrCodeGateway      = "GATEWAY_FAILED"
	ErrCodeInvalidState = "INVALID_PLAN_STATE"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrCancelled is returned by Plan.Confirm when the operator declines the
// plan. Nothing has been applied.
var ErrCancelled = errors.New("import cancelled")

// ValidationError carries every finding of a failed validation.
type ValidationError struct {
	Findings []Finding
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	counts := make([]string, 0, len(findingCategories))
	for _, category := range findingCategories {
		if n := len(e.ByCategory(category)); n > 0 {
			counts = append(counts, fmt.Sprintf("%d %s", n, category.Describe()))
		}
	}
	return "validation failed: " + strings.Join(counts, ", ")
}

// ByCategory returns the findings of one category in document order.
func (e *ValidationError) ByCategory(category FindingCategory) []Finding {
	var out []Finding
	for _, f := range e.Findings {
		if f.Category == category {
			out = append(out, f)
		}
	}
	return out
}

// CycleError is returned when dependency cycles remain after the breaking
// pass.
type CycleError struct {
	// Cycles lists the references of each remaining strongly connected
	// component.
	Cycles [][]model.Reference
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	parts := make([]string, len(e.Cycles))
	for i, cycle := range e.Cycles {
		parts[i] = model.FormatReferences(cycle)
	}
	return "could not break dependency cycle(s): " + strings.Join(parts, "; ")
}

// ApplyError reports the operation whose remote mutation failed. Operations
// before it have been applied.
type ApplyError struct {
	// Operation is the failing operation.
	Operation *Operation

	// Position is the index of the failing operation in the plan.
	Position int

	// Err is the classified gateway error.
	Err error
}

// Error implements the error interface.
func (e *ApplyError) Error() string {
	return fmt.Sprintf("failed to apply %s (operation %d): %v", e.Operation, e.Position+1, e.Err)
}

// Unwrap returns the underlying error.
func (e *ApplyError) Unwrap() error {
	return e.Err
}
