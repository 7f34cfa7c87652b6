package broker

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	apperrors "contextcraft/internal/errors"
	"contextcraft/internal/models"
)

// ZerodhaConfig holds configuration for a Kite Connect session.
type ZerodhaConfig struct {
	APIKey      string
	AccessToken string
	Timeout     time.Duration
	// BaseURI overrides the Kite API root; empty means production.
	BaseURI string
}

// ZerodhaSession implements Session over an already issued Kite access token.
type ZerodhaSession struct {
	client  *kiteconnect.Client
	timeout time.Duration
}

// NewZerodhaSession creates a session. Token exchange happens elsewhere; the
// access token is used as given.
func NewZerodhaSession(cfg ZerodhaConfig) (*ZerodhaSession, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("kite api key: %w", apperrors.ErrNotAuthenticated)
	}
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("kite access token: %w", apperrors.ErrNotAuthenticated)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := kiteconnect.New(cfg.APIKey)
	client.SetAccessToken(cfg.AccessToken)
	client.SetHTTPClient(&http.Client{Timeout: timeout})
	if cfg.BaseURI != "" {
		client.SetBaseURI(cfg.BaseURI)
	}

	return &ZerodhaSession{client: client, timeout: timeout}, nil
}

// Instruments fetches the instrument dump for one exchange, in broker order.
func (z *ZerodhaSession) Instruments(ctx context.Context, exchange models.Exchange) ([]models.Instrument, error) {
	instruments, err := withDeadline(ctx, z.timeout, "instruments", func() (kiteconnect.Instruments, error) {
		return z.client.GetInstrumentsByExchange(string(exchange))
	})
	if err != nil {
		return nil, classifyKiteError("instruments", err)
	}

	result := make([]models.Instrument, len(instruments))
	for i, inst := range instruments {
		result[i] = models.Instrument{
			Token:    uint32(inst.InstrumentToken),
			Symbol:   inst.Tradingsymbol,
			Name:     inst.Name,
			Exchange: models.Exchange(inst.Exchange),
		}
	}

	return result, nil
}

// PlaceOrder places a new order and returns the broker order ID.
func (z *ZerodhaSession) PlaceOrder(ctx context.Context, intent models.OrderIntent) (string, error) {
	params := kiteconnect.OrderParams{
		Exchange:        string(intent.Exchange),
		Tradingsymbol:   intent.Symbol,
		TransactionType: string(intent.Side),
		OrderType:       string(intent.Type()),
		Product:         string(intent.Product),
		Quantity:        intent.Quantity,
		Validity:        "DAY",
	}
	if price, ok := intent.LimitPrice(); ok {
		params.Price = price.InexactFloat64()
	}

	variety := string(intent.Variety)
	if variety == "" {
		variety = string(models.VarietyRegular)
	}

	resp, err := withDeadline(ctx, z.timeout, "place order", func() (kiteconnect.OrderResponse, error) {
		return z.client.PlaceOrder(variety, params)
	})
	if err != nil {
		return "", classifyKiteError("place order", err)
	}

	return resp.OrderID, nil
}

// Orders fetches all orders for the day.
func (z *ZerodhaSession) Orders(ctx context.Context) ([]models.Order, error) {
	orders, err := withDeadline(ctx, z.timeout, "orders", func() (kiteconnect.Orders, error) {
		return z.client.GetOrders()
	})
	if err != nil {
		return nil, classifyKiteError("orders", err)
	}

	result := make([]models.Order, len(orders))
	for i, o := range orders {
		result[i] = models.Order{
			ID:           o.OrderID,
			Symbol:       o.TradingSymbol,
			Exchange:     models.Exchange(o.Exchange),
			Side:         models.OrderSide(o.TransactionType),
			Type:         models.OrderType(o.OrderType),
			Product:      models.ProductType(o.Product),
			Quantity:     int(o.Quantity),
			Price:        o.Price,
			Status:       o.Status,
			FilledQty:    int(o.FilledQuantity),
			AveragePrice: o.AveragePrice,
			PlacedAt:     o.OrderTimestamp.Time,
		}
	}

	return result, nil
}

// Holdings fetches delivery holdings.
func (z *ZerodhaSession) Holdings(ctx context.Context) ([]models.Holding, error) {
	holdings, err := withDeadline(ctx, z.timeout, "holdings", func() (kiteconnect.Holdings, error) {
		return z.client.GetHoldings()
	})
	if err != nil {
		return nil, classifyKiteError("holdings", err)
	}

	result := make([]models.Holding, len(holdings))
	for i, h := range holdings {
		result[i] = models.Holding{
			Symbol:       h.Tradingsymbol,
			Exchange:     models.Exchange(h.Exchange),
			Quantity:     int(h.Quantity),
			AveragePrice: h.AveragePrice,
			LTP:          h.LastPrice,
			PnL:          h.PnL,
		}
	}

	return result, nil
}

// Positions fetches the net and day position books.
func (z *ZerodhaSession) Positions(ctx context.Context) (models.Positions, error) {
	positions, err := withDeadline(ctx, z.timeout, "positions", func() (kiteconnect.Positions, error) {
		return z.client.GetPositions()
	})
	if err != nil {
		return models.Positions{}, classifyKiteError("positions", err)
	}

	return models.Positions{
		Net: convertPositions(positions.Net),
		Day: convertPositions(positions.Day),
	}, nil
}

func convertPositions(in []kiteconnect.Position) []models.Position {
	out := make([]models.Position, len(in))
	for i, p := range in {
		out[i] = models.Position{
			Symbol:       p.Tradingsymbol,
			Exchange:     models.Exchange(p.Exchange),
			Product:      models.ProductType(p.Product),
			Quantity:     int(p.Quantity),
			AveragePrice: p.AveragePrice,
			LTP:          p.LastPrice,
			PnL:          p.PnL,
		}
	}
	return out
}

// Profile fetches the user profile bound to the access token.
func (z *ZerodhaSession) Profile(ctx context.Context) (models.Profile, error) {
	p, err := withDeadline(ctx, z.timeout, "profile", func() (kiteconnect.UserProfile, error) {
		return z.client.GetUserProfile()
	})
	if err != nil {
		return models.Profile{}, classifyKiteError("profile", err)
	}

	return models.Profile{
		UserID:   p.UserID,
		UserName: p.UserName,
		Email:    p.Email,
		Broker:   p.Broker,
	}, nil
}

// classifyKiteError maps Kite exceptions onto error kinds. Input and order
// exceptions are broker-side rejections; everything else is transport.
func classifyKiteError(op string, err error) error {
	if err == nil {
		return nil
	}

	var already *apperrors.BrokerError
	if apperrors.As(err, &already) {
		return err
	}

	var kerr kiteconnect.Error
	if apperrors.As(err, &kerr) {
		switch kerr.ErrorType {
		case kiteconnect.InputError, kiteconnect.OrderError:
			return apperrors.NewBrokerError(apperrors.KindBrokerRejected, kerr.ErrorType, kerr.Message, apperrors.ErrOrderRejected)
		case kiteconnect.TokenError, kiteconnect.PermissionError:
			return apperrors.NewBrokerError(apperrors.KindTransportFailure, kerr.ErrorType, kerr.Message, apperrors.ErrNotAuthenticated)
		case kiteconnect.NetworkError:
			if isTimeoutMessage(kerr.Message) {
				return apperrors.NewBrokerError(apperrors.KindTimeout, kerr.ErrorType, op+" timed out", apperrors.ErrTimeout)
			}
		}
		return apperrors.NewBrokerError(apperrors.KindTransportFailure, kerr.ErrorType, kerr.Message, apperrors.ErrConnectionFailed)
	}

	if isTimeoutMessage(err.Error()) {
		return apperrors.NewBrokerError(apperrors.KindTimeout, "Timeout", op+" timed out", err)
	}

	return apperrors.NewBrokerError(apperrors.KindTransportFailure, "Unknown", op+" failed", err)
}

func isTimeoutMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "client.timeout") || strings.Contains(msg, "deadline exceeded") || strings.Contains(msg, "timeout")
}

// Ensure ZerodhaSession implements Session.
var _ Session = (*ZerodhaSession)(nil)
