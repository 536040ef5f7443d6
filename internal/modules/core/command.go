package core

import (
	"fmt"
	"net/http"
)

// Unit is the response type for commands that return nothing.
type Unit struct{}

// CommandError carries the HTTP status a failed command maps to through
// the mediator pipeline back to the transport layer.
type CommandError struct {
	Payload    interface{}
	StatusCode int
	Reason     *string
}

type CommandErrorOption func(*CommandError)

func WithReason(reason string) CommandErrorOption {
	return func(e *CommandError) {
		e.Reason = &reason
	}
}

func NewCommandError(statusCode int, payload interface{}, opts ...CommandErrorOption) CommandError {
	e := CommandError{
		StatusCode: statusCode,
		Payload:    payload,
	}

	for _, opt := range opts {
		opt(&e)
	}

	return e
}

// Error taxonomy shared by all slices. Capacity violations are
// conflicts with a distinct reason so callers can tell them apart from
// duplicate invites.
func NewNotFoundError(err error, reason string) CommandError {
	return NewCommandError(http.StatusNotFound, err, WithReason(reason))
}

func NewForbiddenError(err error, reason string) CommandError {
	return NewCommandError(http.StatusForbidden, err, WithReason(reason))
}

func NewConflictError(err error, reason string) CommandError {
	return NewCommandError(http.StatusConflict, err, WithReason(reason))
}

func NewInvalidArgumentError(err error, reason string) CommandError {
	return NewCommandError(http.StatusBadRequest, err, WithReason(reason))
}

func NewInternalError(err error) CommandError {
	return NewCommandError(http.StatusInternalServerError, err)
}

func (r CommandError) Error() string {
	var values struct {
		Payload    interface{}
		StatusCode int
		Reason     string
	}

	values.Payload = r.Payload
	values.StatusCode = r.StatusCode

	if r.Reason != nil {
		values.Reason = *r.Reason
	}

	return fmt.Sprintf("%+v", values)
}

func (r CommandError) Unwrap() error {
	if err, ok := r.Payload.(error); ok {
		return err
	}
	return nil
}
