// Package domainerrors carries coded errors across layers. Services return
// these so transports can map a failure to a response without string matching.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies a failure class.
type Code string

const (
	// Pool taxonomy.
	CodeNotAuthorized      Code = "not_authorized"
	CodeInvalidIdentity    Code = "invalid_identity"
	CodeAlreadyActive      Code = "already_active"
	CodeNotFound           Code = "not_found"
	CodeShelterInactive    Code = "shelter_inactive"
	CodeInvalidAmount      Code = "invalid_amount"
	CodeNoActiveShelters   Code = "no_active_shelters"
	CodeNothingToWithdraw  Code = "nothing_to_withdraw"
	CodeOverflow           Code = "overflow"
	CodeTransferFailed     Code = "transfer_failed"
	CodeAlreadyInitialized Code = "already_initialized"

	// Transport and infrastructure.
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeInternal     Code = "internal_error"
	CodeTimeout      Code = "timeout"
	CodeUnavailable  Code = "unavailable"
)

// Error is a domain error with a stable code and a human readable message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether the outermost domain error in err's chain has code.
func HasCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of the outermost domain error, or CodeInternal
// when err carries none. A nil error has no code.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
