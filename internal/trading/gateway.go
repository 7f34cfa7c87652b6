package trading

import (
	"context"

	"contextcraft/internal/broker"
	apperrors "contextcraft/internal/errors"
	"contextcraft/internal/logging"
	"contextcraft/internal/models"
	"contextcraft/internal/result"
	"contextcraft/internal/security"
)

// Gateway submits order intents to a broker session. It never retries: a
// failed placement is reported, not repeated.
type Gateway struct {
	audit *security.AuditLogger
}

// NewGateway creates a gateway. audit may be nil.
func NewGateway(audit *security.AuditLogger) *Gateway {
	return &Gateway{audit: audit}
}

// Submit places intent with exactly one broker call.
func (g *Gateway) Submit(ctx context.Context, session broker.Session, intent models.OrderIntent) result.Result[models.Submission] {
	logger := logging.WithOperation(logging.FromContext(ctx), "submit_order")

	price := "market"
	if p, ok := intent.LimitPrice(); ok {
		price = p.String()
	}

	if session == nil {
		err := apperrors.NewBrokerError(apperrors.KindTransportFailure, "NoSession", "no broker session", apperrors.ErrNotAuthenticated)
		return result.Fail[models.Submission](err)
	}

	orderID, err := session.PlaceOrder(ctx, intent)
	if err == nil && orderID == "" {
		err = apperrors.NewBrokerError(apperrors.KindTransportFailure, "EmptyOrderID", "broker returned no order id", nil)
	}

	if g != nil && g.audit != nil {
		errMsg := ""
		if err != nil {
			errMsg = err.Error()
		}
		if auditErr := g.audit.LogOrderPlaced(ctx, orderID, intent.Symbol, string(intent.Side), intent.Quantity, price, err == nil, errMsg); auditErr != nil {
			logger.Warn().Err(auditErr).Msg("Failed to write audit event")
		}
	}

	if err != nil {
		logger.Error().
			Err(err).
			Str("symbol", intent.Symbol).
			Str("kind", string(apperrors.KindOf(err))).
			Msg("Order placement failed")
		return result.Fail[models.Submission](err)
	}

	logging.LogOrder(logger, orderID, intent.Symbol, string(intent.Side), "placed")

	return result.Success(models.Submission{
		OrderID:   orderID,
		Symbol:    intent.Symbol,
		Exchange:  intent.Exchange,
		Side:      intent.Side,
		Quantity:  intent.Quantity,
		OrderType: intent.Type(),
		Price:     price,
	})
}
