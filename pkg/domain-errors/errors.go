// Package domainerrors provides coded errors for domain and service layers.
//
// Stores return sentinel errors (pkg/platform/sentinel) for infrastructure
// facts; services translate those into coded errors so transports can map
// them to status codes without string matching.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error. Codes are stable API; messages are not.
type Code string

const (
	// CodeNotFound: the referenced record does not exist in the ledger.
	CodeNotFound Code = "not_found"
	// CodeUnauthorized: the caller is not the record's current owner for an
	// owner-only mutation.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden: the caller lacks access to an admin surface.
	CodeForbidden Code = "forbidden"
	// CodeNotForSale: purchase attempted while the property is not listed.
	CodeNotForSale Code = "property_not_up_for_sale"
	// CodeInsufficientPayment: the attached payment is below the asking price.
	CodeInsufficientPayment Code = "sent_amount_less_than_required"
	// CodeConflict: the record already exists or is in a conflicting state.
	CodeConflict Code = "conflict"
	// CodeBadRequest: the request could not be parsed or is structurally wrong.
	CodeBadRequest Code = "bad_request"
	// CodeInvalidInput: a field failed validation at a trust boundary.
	CodeInvalidInput Code = "invalid_input"
	// CodeInvariantViolation: an aggregate rejected a state transition.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeUnavailable: a dependency (settlement, store) is unreachable.
	CodeUnavailable Code = "unavailable"
	// CodeInternal: unexpected failure; details stay server-side.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. It optionally wraps a cause for errors.Is /
// errors.As chains.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a coded error with no cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			return false
		}
	}
	return false
}

// Is is a readability alias for HasCode used at call sites that read like
// errors.Is.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code carried by err, or CodeInternal when err
// is not a coded error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
