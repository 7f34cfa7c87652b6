package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"contextcraft/internal/models"
)

// PaperSession simulates order placement. Reads are served by an optional
// data session, or by the configured static instrument list.
type PaperSession struct {
	// Real session for reads
	dataSession Session

	instruments []models.Instrument
	orders      []models.Order
	// Order tracking
	orderCounter int

	mu sync.RWMutex
}

// PaperSessionConfig holds configuration for the paper session.
type PaperSessionConfig struct {
	DataSession Session
	Instruments []models.Instrument
}

// NewPaperSession creates a new paper trading session.
func NewPaperSession(cfg PaperSessionConfig) *PaperSession {
	return &PaperSession{
		dataSession: cfg.DataSession,
		instruments: cfg.Instruments,
	}
}

// Instruments returns instruments from the data session, or the static list
// filtered by exchange.
func (p *PaperSession) Instruments(ctx context.Context, exchange models.Exchange) ([]models.Instrument, error) {
	if p.dataSession != nil {
		return p.dataSession.Instruments(ctx, exchange)
	}

	var result []models.Instrument
	for _, inst := range p.instruments {
		if inst.Exchange == exchange {
			result = append(result, inst)
		}
	}
	return result, nil
}

// PlaceOrder records the order and acknowledges it immediately.
func (p *PaperSession) PlaceOrder(ctx context.Context, intent models.OrderIntent) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.orderCounter++
	orderID := fmt.Sprintf("PAPER_%d_%d", time.Now().Unix(), p.orderCounter)

	order := models.Order{
		ID:       orderID,
		Symbol:   intent.Symbol,
		Exchange: intent.Exchange,
		Side:     intent.Side,
		Type:     intent.Type(),
		Product:  intent.Product,
		Quantity: intent.Quantity,
		Status:   "OPEN",
		PlacedAt: time.Now(),
	}
	if price, ok := intent.LimitPrice(); ok {
		order.Price = price.InexactFloat64()
	}

	p.orders = append(p.orders, order)

	return orderID, nil
}

// Orders returns paper orders in placement order.
func (p *PaperSession) Orders(ctx context.Context) ([]models.Order, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	orders := make([]models.Order, len(p.orders))
	copy(orders, p.orders)
	return orders, nil
}

// Holdings delegates to the data session; a standalone paper session holds nothing.
func (p *PaperSession) Holdings(ctx context.Context) ([]models.Holding, error) {
	if p.dataSession != nil {
		return p.dataSession.Holdings(ctx)
	}
	return []models.Holding{}, nil
}

// Positions delegates to the data session.
func (p *PaperSession) Positions(ctx context.Context) (models.Positions, error) {
	if p.dataSession != nil {
		return p.dataSession.Positions(ctx)
	}
	return models.Positions{Net: []models.Position{}, Day: []models.Position{}}, nil
}

// Profile returns the data session's profile, or a fixed paper identity.
func (p *PaperSession) Profile(ctx context.Context) (models.Profile, error) {
	if p.dataSession != nil {
		return p.dataSession.Profile(ctx)
	}
	return models.Profile{UserID: "PAPER", UserName: "Paper Trader", Broker: "PAPER"}, nil
}

var _ Session = (*PaperSession)(nil)
