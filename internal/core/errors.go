package core

import (
	"errors"
	"fmt"
)

// Error represents a failure detected while executing a ledger operation.
//
// Every error carries a Code identifying the violated condition, so callers
// never receive an opaque failure. All errors are fatal to the current call:
// the operation aborts and no record or nonce mutation is committed.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Op names the ledger operation that failed (e.g. "withdraw").
	Op string

	// Principal identifies the caller, when known.
	Principal Principal

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes ledger errors.
type ErrorCode string

const (
	// ErrCodeUnauthorized indicates the authorization capability rejected the principal.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// ErrCodeReplayRejected indicates the supplied nonce did not match the expected nonce.
	ErrCodeReplayRejected ErrorCode = "REPLAY_REJECTED"

	// ErrCodeNonceOverflow indicates a principal's nonce counter reached its maximum.
	ErrCodeNonceOverflow ErrorCode = "NONCE_OVERFLOW"

	// ErrCodeValidation indicates a domain invariant was violated.
	ErrCodeValidation ErrorCode = "VALIDATION_FAILED"

	// ErrCodeNotFound indicates the referenced record does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeNotOwner indicates the caller does not own the referenced state.
	ErrCodeNotOwner ErrorCode = "NOT_OWNER"

	// ErrCodeOverflow indicates checked arithmetic hit its upper boundary.
	ErrCodeOverflow ErrorCode = "ARITHMETIC_OVERFLOW"

	// ErrCodeUnderflow indicates checked arithmetic hit its lower boundary.
	ErrCodeUnderflow ErrorCode = "ARITHMETIC_UNDERFLOW"

	// ErrCodeUnsupportedVersion indicates a snapshot with an unknown format version.
	ErrCodeUnsupportedVersion ErrorCode = "UNSUPPORTED_VERSION"

	// ErrCodeChecksumMismatch indicates a snapshot whose checksum does not verify.
	ErrCodeChecksumMismatch ErrorCode = "CHECKSUM_MISMATCH"

	// ErrCodeStorage indicates the underlying ledger store failed.
	ErrCodeStorage ErrorCode = "STORAGE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Principal != "":
		return fmt.Sprintf("%s: %s (op=%s, principal=%s)", e.Code, e.Message, e.Op, e.Principal)
	case e.Op != "":
		return fmt.Sprintf("%s: %s (op=%s)", e.Code, e.Message, e.Op)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf extracts the ErrorCode from err, or "" if err is not a ledger Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// IsUnauthorized reports whether err is an authorization rejection.
func IsUnauthorized(err error) bool { return CodeOf(err) == ErrCodeUnauthorized }

// IsReplayRejected reports whether err is a nonce mismatch.
func IsReplayRejected(err error) bool { return CodeOf(err) == ErrCodeReplayRejected }

// IsValidation reports whether err is a domain validation failure.
func IsValidation(err error) bool { return CodeOf(err) == ErrCodeValidation }

// IsNotFound reports whether err refers to a missing record.
func IsNotFound(err error) bool { return CodeOf(err) == ErrCodeNotFound }

// IsNotOwner reports whether err is an ownership rejection.
func IsNotOwner(err error) bool { return CodeOf(err) == ErrCodeNotOwner }

// IsOverflow reports whether err is a checked-arithmetic overflow.
func IsOverflow(err error) bool { return CodeOf(err) == ErrCodeOverflow }

// IsUnderflow reports whether err is a checked-arithmetic underflow.
func IsUnderflow(err error) bool { return CodeOf(err) == ErrCodeUnderflow }

// IsUnsupportedVersion reports whether err is a snapshot version rejection.
func IsUnsupportedVersion(err error) bool { return CodeOf(err) == ErrCodeUnsupportedVersion }

// IsChecksumMismatch reports whether err is a snapshot checksum rejection.
func IsChecksumMismatch(err error) bool { return CodeOf(err) == ErrCodeChecksumMismatch }

// NewValidationError creates an Error for a violated domain invariant.
func NewValidationError(op string, caller Principal, message string) *Error {
	return &Error{Code: ErrCodeValidation, Message: message, Op: op, Principal: caller}
}

// NewNotFoundError creates an Error for a missing record.
func NewNotFoundError(op string, caller Principal, id uint32) *Error {
	return &Error{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("record %d not found", id),
		Op:        op,
		Principal: caller,
	}
}

// NewNotOwnerError creates an Error for a caller that does not own the record.
func NewNotOwnerError(op string, caller Principal, id uint32) *Error {
	return &Error{
		Code:      ErrCodeNotOwner,
		Message:   fmt.Sprintf("caller does not own record %d", id),
		Op:        op,
		Principal: caller,
	}
}

func storageError(op string, err error) *Error {
	return &Error{Code: ErrCodeStorage, Message: "ledger store failed", Op: op, Err: err}
}
