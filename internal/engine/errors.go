package engine

import (
	"errors"
	"fmt"
)

// Error represents a rejected engine operation.
//
// Every failure leaves engine state unchanged, with one exception:
// CodeCoverUploadFailed accompanies a listing that was created without
// its cover.
//
// Error includes structured fields for diagnostics and for mapping to
// exit codes in the CLI.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op names the operation that failed ("register", "accept_request").
	Op string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// CodeUnauthenticated indicates the operation requires a session.
	CodeUnauthenticated ErrorCode = "UNAUTHENTICATED"

	// CodeForbidden indicates the session user lacks the required role.
	CodeForbidden ErrorCode = "FORBIDDEN"

	// CodeNotFoundOrForbidden indicates the listing is missing or owned by
	// someone else. The two cases are deliberately indistinguishable.
	CodeNotFoundOrForbidden ErrorCode = "NOT_FOUND_OR_FORBIDDEN"

	// CodeDuplicateEmail indicates the email is already registered.
	CodeDuplicateEmail ErrorCode = "DUPLICATE_EMAIL"

	// CodeInvalidCredentials indicates no user matches email and secret.
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"

	// CodeBookNotFound indicates the referenced listing does not exist.
	CodeBookNotFound ErrorCode = "BOOK_NOT_FOUND"

	// CodeRequestNotFound indicates the message is missing, is not a
	// request, or was not received by the session user.
	CodeRequestNotFound ErrorCode = "REQUEST_NOT_FOUND"

	// CodeCoverUploadFailed indicates the cover could not be stored. The
	// listing itself was still created.
	CodeCoverUploadFailed ErrorCode = "COVER_UPLOAD_FAILED"

	// CodeUserNotFound indicates a referenced user does not exist.
	CodeUserNotFound ErrorCode = "USER_NOT_FOUND"

	// CodeInvalidRole indicates a role other than owner or seeker.
	CodeInvalidRole ErrorCode = "INVALID_ROLE"
)

// Sentinel errors for use with errors.Is. Matching compares codes only.
var (
	ErrUnauthenticated     = &Error{Code: CodeUnauthenticated, Message: "no active session"}
	ErrForbidden           = &Error{Code: CodeForbidden, Message: "operation not permitted for role"}
	ErrNotFoundOrForbidden = &Error{Code: CodeNotFoundOrForbidden, Message: "listing not found or not owned"}
	ErrDuplicateEmail      = &Error{Code: CodeDuplicateEmail, Message: "email already registered"}
	ErrInvalidCredentials  = &Error{Code: CodeInvalidCredentials, Message: "invalid email or secret"}
	ErrBookNotFound        = &Error{Code: CodeBookNotFound, Message: "listing not found"}
	ErrRequestNotFound     = &Error{Code: CodeRequestNotFound, Message: "request not found"}
	ErrCoverUploadFailed   = &Error{Code: CodeCoverUploadFailed, Message: "cover upload failed"}
	ErrUserNotFound        = &Error{Code: CodeUserNotFound, Message: "user not found"}
	ErrInvalidRole         = &Error{Code: CodeInvalidRole, Message: "invalid role"}
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the ErrorCode carried by err, or "" if err is not an
// engine error. Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCoverFailure returns true if the error reports a listing that was
// created without its cover.
func IsCoverFailure(err error) bool {
	return CodeOf(err) == CodeCoverUploadFailed
}

// newError creates an Error for op using the sentinel's default message.
func newError(op string, sentinel *Error) *Error {
	return &Error{Code: sentinel.Code, Op: op, Message: sentinel.Message}
}

// wrapError creates an Error for op that carries cause.
func wrapError(op string, sentinel *Error, cause error) *Error {
	return &Error{Code: sentinel.Code, Op: op, Message: sentinel.Message, Err: cause}
}
