package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"instrument", NewInstrumentError("XYZ", "NSE"), KindNoInstrumentFound},
		{"wrapped instrument", fmt.Errorf("trade: %w", NewInstrumentError("XYZ", "NSE")), KindNoInstrumentFound},
		{"validation price", NewValidationError(KindInvalidPrice, "price", "abc", "not a number"), KindInvalidPrice},
		{"validation default", &ValidationError{Field: "x"}, KindInvalidArgument},
		{"broker rejected", NewBrokerError(KindBrokerRejected, "InputException", "Invalid price", nil), KindBrokerRejected},
		{"broker default", &BrokerError{Code: "x"}, KindTransportFailure},
		{"data malformed", NewDataError(KindMalformedPayload, "price_shockers", "bad json", nil), KindMalformedPayload},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), KindTimeout},
		{"sentinel timeout", ErrTimeout, KindTimeout},
		{"read only", Wrap(ErrReadOnlyMode, "trade"), KindOperationBlocked},
		{"unknown", errors.New("boom"), KindTransportFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInstrumentErrorMessage(t *testing.T) {
	err := NewInstrumentError("infy", "NSE")
	want := "no matching stock for 'infy' on NSE"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !Is(err, ErrNoInstrument) {
		t.Error("expected InstrumentError to unwrap to ErrNoInstrument")
	}
}

func TestValidationErrorUnwrapsToSentinel(t *testing.T) {
	tests := []struct {
		kind Kind
		want error
	}{
		{KindInvalidPrice, ErrInvalidPrice},
		{KindInvalidQuantity, ErrInvalidQuantity},
		{KindInvalidSide, ErrInvalidSide},
		{KindInvalidArgument, ErrInvalidArgument},
	}

	for _, tt := range tests {
		err := fmt.Errorf("build: %w", NewValidationError(tt.kind, "field", "v", "bad"))
		if !Is(err, tt.want) {
			t.Errorf("%s: expected %v in chain", tt.kind, tt.want)
		}
	}
	if Is(NewValidationError(KindInvalidPrice, "price", "-1", "must be positive"), ErrInvalidSide) {
		t.Error("price error must not match ErrInvalidSide")
	}
}

func TestWrapf(t *testing.T) {
	err := Wrapf(ErrTimeout, "encoding %s result", "trade")
	if err.Error() != "encoding trade result: operation timed out" {
		t.Errorf("Error() = %q", err.Error())
	}
	if KindOf(err) != KindTimeout {
		t.Errorf("KindOf = %s, want Timeout", KindOf(err))
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if Wrapf(nil, "context %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}
}
