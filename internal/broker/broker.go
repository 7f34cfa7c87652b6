// Package broker provides broker integration interfaces and implementations.
package broker

import (
	"context"
	"time"

	apperrors "contextcraft/internal/errors"
	"contextcraft/internal/models"
)

// DefaultTimeout bounds a single broker call when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Session is an authenticated broker session.
type Session interface {
	// Market Data
	Instruments(ctx context.Context, exchange models.Exchange) ([]models.Instrument, error)

	// Orders
	PlaceOrder(ctx context.Context, intent models.OrderIntent) (string, error)
	Orders(ctx context.Context) ([]models.Order, error)

	// Positions & Holdings
	Holdings(ctx context.Context) ([]models.Holding, error)
	Positions(ctx context.Context) (models.Positions, error)

	// Account
	Profile(ctx context.Context) (models.Profile, error)
}

// withDeadline runs fn and gives up once timeout elapses. fn keeps running in
// the background until its own transport returns; only the caller is released.
func withDeadline[T any](ctx context.Context, timeout time.Duration, op string, fn func() (T, error)) (T, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		v, err := fn()
		done <- outcome{value: v, err: err}
	}()

	select {
	case o := <-done:
		return o.value, o.err
	case <-ctx.Done():
		var zero T
		if ctx.Err() == context.DeadlineExceeded {
			return zero, apperrors.NewBrokerError(apperrors.KindTimeout, "Timeout", op+" timed out after "+timeout.String(), ctx.Err())
		}
		return zero, apperrors.NewBrokerError(apperrors.KindTransportFailure, "Cancelled", op+" cancelled", ctx.Err())
	}
}
