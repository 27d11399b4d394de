package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an expected business rejection.
// Unexpected faults stay plain errors and resolve to KindInternal.
type Kind string

const (
	KindInternal     Kind = "internal"
	KindBadRequest   Kind = "bad_request"
	KindUnauthorized Kind = "unauthorized"
	KindAccessDenied Kind = "access_denied"
	KindConflict     Kind = "conflict"
	KindNotFound     Kind = "not_found"
)

// Repository level sentinels
// Services wrap them into typed errors with the kind that fits the flow:
// a missing user is NotFound for the profile but Unauthorized at login
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already taken")
	ErrUsernameTaken = errors.New("username already taken")

	ErrTokenNotFound = errors.New("token not found")

	ErrLyceumNotFound = errors.New("lyceum not found")
	ErrCourseNotFound = errors.New("course not found")
	ErrImageNotFound  = errors.New("image not found")
)

// Error is a business rejection with a kind and a caller-safe message
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func BadRequest(message string) *Error   { return newError(KindBadRequest, message) }
func Unauthorized(message string) *Error { return newError(KindUnauthorized, message) }
func AccessDenied(message string) *Error { return newError(KindAccessDenied, message) }
func Conflict(message string) *Error     { return newError(KindConflict, message) }
func NotFound(message string) *Error     { return newError(KindNotFound, message) }

// Wrap keeps the cause available for errors.Is while presenting
// the kind and message to the caller
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf resolves the kind of any error. Plain errors are internal faults.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns a message safe to show to the caller.
// Internals of unexpected faults never leak.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}
