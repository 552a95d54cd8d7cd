// Package pipelineerr defines the structured error taxonomy shared by every
// ingestion, transform, and recommendation component, per spec section 7.
package pipelineerr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind is a closed taxonomy of error categories. Switches over Kind should
// not carry a default case — an unhandled Kind is a gap to fix, not a
// fallthrough to swallow.
type Kind string

const (
	KindValidation          Kind = "VALIDATION_ERROR"
	KindDuplicateCustomer   Kind = "DUPLICATE_CUSTOMER"
	KindInvalidProductLabel Kind = "INVALID_PRODUCT_LABEL"
	KindCustomerNotFound    Kind = "CUSTOMER_NOT_FOUND"
	KindProductNotFound     Kind = "PRODUCT_NOT_FOUND"
	KindFileNotFound        Kind = "FILE_NOT_FOUND"
	KindFileEncoding        Kind = "FILE_ENCODING"
	KindConnectorUnreachable Kind = "CONNECTOR_UNREACHABLE"
	KindPipeline            Kind = "PIPELINE_ERROR"
	KindPolicyViolation     Kind = "POLICY_VIOLATION"
	KindInternal            Kind = "INTERNAL_ERROR"
)

// Error is the single structured error type propagated internally between
// components. It is never surfaced raw across a component boundary to a
// caller of an orchestrator operation — see Result types in each package,
// which fold an Error into a Success/Reason pair instead.
type Error struct {
	ID        string
	Kind      Kind
	Operation string
	Message   string
	Cause     error
	Retryable bool
	Context   map[string]interface{}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Kind, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Operation, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs a non-retryable Error of the given kind.
func New(kind Kind, operation, message string) *Error {
	return &Error{ID: uuid.NewString(), Kind: kind, Operation: operation, Message: message}
}

// Wrap constructs an Error carrying cause as its wrapped error.
func Wrap(kind Kind, operation, message string, cause error) *Error {
	return &Error{ID: uuid.NewString(), Kind: kind, Operation: operation, Message: message, Cause: cause}
}

// AsRetryable marks the error retryable (used for connector/network failures).
func (e *Error) AsRetryable() *Error {
	e.Retryable = true
	return e
}

// WithContext attaches diagnostic context (row number, file type, batch id...).
func (e *Error) WithContext(ctx map[string]interface{}) *Error {
	e.Context = ctx
	return e
}

// Is implements errors.Is support by Kind equality.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// KindOf extracts the Kind from an error, if it is (or wraps) a *Error.
func KindOf(err error) (Kind, bool) {
	if err == nil {
		return "", false
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}
