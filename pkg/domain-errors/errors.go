// Package derrors defines coded domain errors. Stores return sentinel errors
// (pkg/platform/sentinel); services translate those facts into coded errors
// here, and the HTTP layer maps codes onto statuses. Messages on 4xx-class
// codes are safe to show to callers; Internal/Unavailable details are not.
package derrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping and retry decisions.
type Code string

const (
	// CodeValidation marks a malformed or incomplete invoice payload.
	// Terminal: the invoice is REJECTED and never retried automatically.
	CodeValidation Code = "validation_error"

	// CodePolicyViolation marks an environment/invoice-type combination the
	// policy matrix denies. Terminal REJECTED, carries the matrix reason.
	CodePolicyViolation Code = "policy_violation"

	// CodeCertificate marks a credential problem: key mismatch, expired, or
	// missing. Blocks signing; the invoice surfaces as FAILED.
	CodeCertificate Code = "certificate_error"

	// CodeRegulatorRejected marks a business rejection from the clearance
	// endpoint. Terminal REJECTED; never retried automatically.
	CodeRegulatorRejected Code = "regulator_rejected"

	// CodeUnavailable marks transport-level failure after retry exhaustion.
	CodeUnavailable Code = "unavailable"

	CodeBadRequest         Code = "bad_request"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal_error"
)

// Error is a coded domain error, optionally wrapping a cause.
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

func (e *Error) Unwrap() error { return e.cause }

// New constructs a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. A nil cause
// returns nil so call sites can wrap unconditionally.
func Wrap(cause error, code Code, message string) error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: cause}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// GetCode extracts the code from err, defaulting to CodeInternal for
// uncoded errors.
func GetCode(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Message extracts the caller-safe message from err, or empty for uncoded
// errors.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
