// Package dErrors provides coded domain errors. Services translate
// infrastructure sentinels and validation failures into these so callers can
// branch on the code without string matching.
package dErrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeNotFound: the referenced entity does not exist.
	CodeNotFound Code = "not_found"
	// CodeConflict: the operation clashes with existing state.
	CodeConflict Code = "conflict"
	// CodeValidation: the input is malformed or incomplete.
	CodeValidation Code = "validation"
	// CodeInvariantViolation: a domain invariant would be broken.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeConfiguration: required configuration is absent or unusable.
	// Configuration errors are fatal and abort the run before processing.
	CodeConfiguration Code = "configuration"
	// CodeInternal: an unexpected infrastructure failure.
	CodeInternal Code = "internal"
)

// Error is a coded domain error, optionally wrapping a cause.
type Error struct {
	code  Code
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.cause }

// Code returns the classification of the error.
func (e *Error) Code() Code { return e.code }

// New builds a coded error without a cause.
func New(code Code, msg string) error {
	return &Error{code: code, msg: msg}
}

// Wrap attaches a code and message to a cause. The cause remains reachable
// via errors.Is / errors.As.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{code: code, msg: msg, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.code == code {
			return true
		}
		err = de.cause
		de = nil
	}
	return false
}
