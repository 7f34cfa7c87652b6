// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure for callers that only see the normalized result.
type Kind string

const (
	KindNoInstrumentFound Kind = "NoInstrumentFound"
	KindInvalidPrice      Kind = "InvalidPrice"
	KindInvalidQuantity   Kind = "InvalidQuantity"
	KindInvalidSide       Kind = "InvalidSide"
	KindBrokerRejected    Kind = "BrokerRejected"
	KindTransportFailure  Kind = "TransportFailure"
	KindTimeout           Kind = "Timeout"
	KindMalformedPayload  Kind = "MalformedPayload"
	KindOperationBlocked  Kind = "OperationBlocked"
	KindInvalidArgument   Kind = "InvalidArgument"
)

// Standard sentinel errors
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoInstrument     = errors.New("no instrument found")
	ErrInvalidPrice     = errors.New("invalid price")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrInvalidSide      = errors.New("invalid side")
	ErrOrderRejected    = errors.New("order rejected")
	ErrConnectionFailed = errors.New("connection failed")
	ErrTimeout          = errors.New("operation timed out")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrReadOnlyMode     = errors.New("operation blocked: read-only mode enabled")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrConfigInvalid    = errors.New("invalid configuration")
)

var sentinelKinds = []struct {
	err  error
	kind Kind
}{
	{ErrNoInstrument, KindNoInstrumentFound},
	{ErrInvalidPrice, KindInvalidPrice},
	{ErrInvalidQuantity, KindInvalidQuantity},
	{ErrInvalidSide, KindInvalidSide},
	{ErrOrderRejected, KindBrokerRejected},
	{ErrTimeout, KindTimeout},
	{ErrMalformedPayload, KindMalformedPayload},
	{ErrReadOnlyMode, KindOperationBlocked},
	{ErrInvalidArgument, KindInvalidArgument},
	{ErrConnectionFailed, KindTransportFailure},
	{ErrNotAuthenticated, KindTransportFailure},
}

func sentinelFor(kind Kind) error {
	for _, s := range sentinelKinds {
		if s.kind == kind {
			return s.err
		}
	}
	return nil
}

// KindOf reports the Kind of err. Errors that carry no classification are
// treated as transport failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var k interface{ Kind() Kind }
	if errors.As(err, &k) {
		return k.Kind()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	for _, s := range sentinelKinds {
		if errors.Is(err, s.err) {
			return s.kind
		}
	}

	return KindTransportFailure
}

// BrokerError represents an error from the broker API.
type BrokerError struct {
	Code    string
	Message string
	Err     error
	kind    Kind
}

func (e *BrokerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("broker error [%s]: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("broker error [%s]: %s", e.Code, e.Message)
}

func (e *BrokerError) Unwrap() error {
	return e.Err
}

// Kind returns the classification chosen when the error was built.
func (e *BrokerError) Kind() Kind {
	if e.kind == "" {
		return KindTransportFailure
	}
	return e.kind
}

// NewBrokerError creates a new BrokerError.
func NewBrokerError(kind Kind, code, message string, err error) *BrokerError {
	return &BrokerError{
		Code:    code,
		Message: message,
		Err:     err,
		kind:    kind,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
	kind    Kind
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// Kind returns the validation kind.
func (e *ValidationError) Kind() Kind {
	if e.kind == "" {
		return KindInvalidArgument
	}
	return e.kind
}

// Unwrap returns the sentinel for the validation kind, so
// errors.Is(err, ErrInvalidPrice) holds for a rejected price.
func (e *ValidationError) Unwrap() error {
	return sentinelFor(e.Kind())
}

// NewValidationError creates a new ValidationError.
func NewValidationError(kind Kind, field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
		kind:    kind,
	}
}

// InstrumentError is returned when no instrument matches a symbol query.
type InstrumentError struct {
	Query    string
	Exchange string
}

func (e *InstrumentError) Error() string {
	return fmt.Sprintf("no matching stock for '%s' on %s", e.Query, e.Exchange)
}

func (e *InstrumentError) Unwrap() error {
	return ErrNoInstrument
}

// NewInstrumentError creates a new InstrumentError.
func NewInstrumentError(query, exchange string) *InstrumentError {
	return &InstrumentError{Query: query, Exchange: exchange}
}

// DataError represents a data-related error.
type DataError struct {
	Endpoint string
	Message  string
	Err      error
	kind     Kind
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s]: %s: %v", e.Endpoint, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s]: %s", e.Endpoint, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// Kind returns the data error kind.
func (e *DataError) Kind() Kind {
	if e.kind == "" {
		return KindTransportFailure
	}
	return e.kind
}

// NewDataError creates a new DataError.
func NewDataError(kind Kind, endpoint, message string, err error) *DataError {
	return &DataError{
		Endpoint: endpoint,
		Message:  message,
		Err:      err,
		kind:     kind,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
