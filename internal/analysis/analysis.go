// Package analysis aggregates market-data endpoints into portfolio and stock
// analyses.
package analysis

import (
	"context"
	"encoding/json"

	"contextcraft/internal/marketdata"
	"contextcraft/internal/models"
	"contextcraft/internal/result"
)

// DefaultConcurrency bounds the number of in-flight provider calls per analysis.
const DefaultConcurrency = 4

// HoldingsSource supplies the holdings analysed by AnalyzePortfolioRisk.
type HoldingsSource interface {
	Holdings(ctx context.Context) ([]models.Holding, error)
}

// Aggregator fans out to market-data endpoints and assembles the results.
// It keeps no state between calls.
type Aggregator struct {
	provider    marketdata.Provider
	holdings    HoldingsSource
	concurrency int
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithConcurrency sets the fan-out limit.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// NewAggregator creates an aggregator. holdings may be nil when portfolio
// analysis is not needed.
func NewAggregator(provider marketdata.Provider, holdings HoldingsSource, opts ...Option) *Aggregator {
	a := &Aggregator{
		provider:    provider,
		holdings:    holdings,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CallEndpoint passes a single request through to the provider.
func (a *Aggregator) CallEndpoint(ctx context.Context, endpoint string, params map[string]string) result.Result[json.RawMessage] {
	body, err := a.provider.Call(ctx, endpoint, params)
	return result.From(body, err)
}
