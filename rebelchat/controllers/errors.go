package controllers

import (
	"net/http"
)

// Error is a failure with the status and message the client should see.
// Body, when set, replaces the default {"error": Message} reply.
type Error struct {
	Status  int
	Message string
	Body    any
	Err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

func newError(status int, msg string, err error) *Error {
	return &Error{Status: status, Message: msg, Err: err}
}

func internalError(msg string, err error) *Error {
	return newError(http.StatusInternalServerError, msg, err)
}
