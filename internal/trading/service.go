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

// DefaultOrdersLimit is the number of orders GetRecentOrders returns by default.
const DefaultOrdersLimit = 10

// Service is the public trading surface. Every method returns a Result.
type Service struct {
	session broker.Session
	builder *Builder
	gateway *Gateway
	access  *security.AccessController
}

// ServiceConfig wires a Service.
type ServiceConfig struct {
	Session broker.Session
	Orders  OrderConfig
	Access  *security.AccessController
	Audit   *security.AuditLogger
}

// NewService creates a trading service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		session: cfg.Session,
		builder: NewBuilder(cfg.Orders),
		gateway: NewGateway(cfg.Audit),
		access:  cfg.Access,
	}
}

// Session returns the underlying broker session.
func (s *Service) Session() broker.Session {
	return s.session
}

// ResolveAndSubmitTrade resolves symbol on exchange, builds the intent and
// places it. exchange is case-insensitive and an empty one uses the
// configured exchange. Validation failures are reported before the broker is
// contacted.
func (s *Service) ResolveAndSubmitTrade(ctx context.Context, exchange models.Exchange, symbol, side string, quantity int, rawPrice any) result.Result[models.Submission] {
	logger := logging.FromContext(ctx)

	// Validate with the raw query so bad arguments never cost a broker call.
	if _, err := s.builder.Build(symbol, side, quantity, rawPrice); err != nil {
		return result.Fail[models.Submission](err)
	}

	exchange, err := ParseExchange(string(exchange))
	if err != nil {
		return result.Fail[models.Submission](err)
	}
	if exchange == "" {
		exchange = s.builder.Config.Exchange
	}
	b := NewBuilder(OrderConfig{
		Exchange: exchange,
		Product:  s.builder.Config.Product,
		Variety:  s.builder.Config.Variety,
	})

	if err := s.access.CheckPermission(ctx, security.OpPlaceOrder); err != nil {
		return result.Fail[models.Submission](err)
	}

	if s.session == nil {
		return result.Fail[models.Submission](apperrors.ErrNotAuthenticated)
	}

	instruments, err := s.session.Instruments(ctx, exchange)
	if err != nil {
		return result.Fail[models.Submission](err)
	}

	inst, err := Resolve(instruments, exchange, symbol)
	if err != nil {
		return result.Fail[models.Submission](err)
	}
	logger.Debug().
		Str("query", symbol).
		Str("tradingsymbol", inst.Symbol).
		Uint32("token", inst.Token).
		Msg("Instrument resolved")

	intent, err := b.Build(inst.Symbol, side, quantity, rawPrice)
	if err != nil {
		return result.Fail[models.Submission](err)
	}

	return s.gateway.Submit(ctx, s.session, intent)
}

// GetHoldings returns delivery holdings.
func (s *Service) GetHoldings(ctx context.Context) result.Result[[]models.Holding] {
	if s.session == nil {
		return result.Fail[[]models.Holding](apperrors.ErrNotAuthenticated)
	}
	holdings, err := s.session.Holdings(ctx)
	if holdings == nil {
		holdings = []models.Holding{}
	}
	return result.From(holdings, err)
}

// GetPositions returns net and day positions.
func (s *Service) GetPositions(ctx context.Context) result.Result[models.Positions] {
	if s.session == nil {
		return result.Fail[models.Positions](apperrors.ErrNotAuthenticated)
	}
	positions, err := s.session.Positions(ctx)
	return result.From(positions, err)
}

// GetRecentOrders returns the last limit orders of the day, oldest first.
// A non-positive limit uses DefaultOrdersLimit.
func (s *Service) GetRecentOrders(ctx context.Context, limit int) result.Result[[]models.Order] {
	if s.session == nil {
		return result.Fail[[]models.Order](apperrors.ErrNotAuthenticated)
	}
	if limit <= 0 {
		limit = DefaultOrdersLimit
	}

	orders, err := s.session.Orders(ctx)
	if err != nil {
		return result.Fail[[]models.Order](err)
	}
	if len(orders) > limit {
		orders = orders[len(orders)-limit:]
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return result.Success(orders)
}

// GetProfile returns the account profile.
func (s *Service) GetProfile(ctx context.Context) result.Result[models.Profile] {
	if s.session == nil {
		return result.Fail[models.Profile](apperrors.ErrNotAuthenticated)
	}
	profile, err := s.session.Profile(ctx)
	return result.From(profile, err)
}
