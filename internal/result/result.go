// Package result provides the uniform success/error shape returned by every
// public operation.
package result

import (
	"encoding/json"

	apperrors "contextcraft/internal/errors"
)

// Status is the tag of a Result.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Failure describes why an operation did not produce a value.
type Failure struct {
	Kind    apperrors.Kind `json:"kind"`
	Message string         `json:"message"`
}

func (f *Failure) Error() string {
	return f.Message
}

// Result is a tagged union: exactly one of a value or a Failure.
type Result[T any] struct {
	value   T
	failure *Failure
}

// Success wraps a value.
func Success[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Fail converts err into a failed Result. A nil err is reported as a
// transport failure rather than silently producing a zero value.
func Fail[T any](err error) Result[T] {
	if err == nil {
		return Result[T]{failure: &Failure{Kind: apperrors.KindTransportFailure, Message: "unknown failure"}}
	}
	return Result[T]{failure: &Failure{Kind: apperrors.KindOf(err), Message: err.Error()}}
}

// From builds a Result from a conventional (value, error) pair.
func From[T any](v T, err error) Result[T] {
	if err != nil {
		return Fail[T](err)
	}
	return Success(v)
}

// OK reports whether the Result carries a value.
func (r Result[T]) OK() bool {
	return r.failure == nil
}

// Status returns the tag.
func (r Result[T]) Status() Status {
	if r.failure != nil {
		return StatusError
	}
	return StatusSuccess
}

// Value returns the value and whether it is present.
func (r Result[T]) Value() (T, bool) {
	return r.value, r.failure == nil
}

// Failure returns the failure, or nil on success.
func (r Result[T]) Failure() *Failure {
	return r.failure
}

// Kind returns the failure kind, or "" on success.
func (r Result[T]) Kind() apperrors.Kind {
	if r.failure == nil {
		return ""
	}
	return r.failure.Kind
}

type envelope struct {
	Status  Status         `json:"status"`
	Data    any            `json:"data,omitempty"`
	Kind    apperrors.Kind `json:"kind,omitempty"`
	Message string         `json:"message,omitempty"`
}

func (r Result[T]) envelope() envelope {
	if r.failure != nil {
		return envelope{Status: StatusError, Kind: r.failure.Kind, Message: r.failure.Message}
	}
	return envelope{Status: StatusSuccess, Data: r.value}
}

// MarshalJSON renders {"status":"success","data":...} or
// {"status":"error","kind":...,"message":...}.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.envelope())
}

