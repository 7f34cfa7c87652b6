// Package health runs one-shot connectivity checks against the broker and
// the market-data provider.
package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"contextcraft/internal/logging"
)

// DefaultTimeout bounds a full round of checks.
const DefaultTimeout = 10 * time.Second

// Status represents the health status of a component.
type Status string

const (
	StatusHealthy   Status = "HEALTHY"
	StatusDegraded  Status = "DEGRADED"
	StatusUnhealthy Status = "UNHEALTHY"
)

// ComponentHealth represents the health of a single component.
type ComponentHealth struct {
	Name    string        `json:"name"`
	Status  Status        `json:"status"`
	Message string        `json:"message,omitempty"`
	Latency time.Duration `json:"latency_ns"`
}

// Check probes one component. A nil error means healthy; a message can
// accompany either outcome.
type Check func(ctx context.Context) (message string, err error)

// Report is the outcome of one round of checks.
type Report struct {
	Status     Status            `json:"status"`
	Market     MarketSession     `json:"market_session"`
	CheckedAt  time.Time         `json:"checked_at"`
	Components []ComponentHealth `json:"components"`
}

// Checker holds the registered component checks.
type Checker struct {
	mu       sync.RWMutex
	checks   map[string]Check
	optional map[string]bool
	timeout  time.Duration
	now      func() time.Time
}

// NewChecker creates a checker with the default timeout.
func NewChecker() *Checker {
	return &Checker{
		checks:   make(map[string]Check),
		optional: make(map[string]bool),
		timeout:  DefaultTimeout,
		now:      time.Now,
	}
}

// Register adds a required component. A failing required component makes
// the report UNHEALTHY.
func (c *Checker) Register(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// RegisterOptional adds a component whose failure only degrades the report.
func (c *Checker) RegisterOptional(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
	c.optional[name] = true
}

// Run executes every check concurrently. Components are reported in name
// order.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]Check, len(c.checks))
	for k, v := range c.checks {
		checks[k] = v
	}
	optional := make(map[string]bool, len(c.optional))
	for k, v := range c.optional {
		optional[k] = v
	}
	c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	logger := logging.FromContext(ctx)
	results := make([]ComponentHealth, 0, len(checks))
	var mu sync.Mutex

	var g errgroup.Group
	for name, check := range checks {
		g.Go(func() error {
			h := runCheck(ctx, name, check)
			if h.Status == StatusUnhealthy && optional[name] {
				h.Status = StatusDegraded
			}
			logger.Debug().
				Str("component", name).
				Str("status", string(h.Status)).
				Dur("latency", h.Latency).
				Msg("Health check completed")

			mu.Lock()
			results = append(results, h)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	now := c.now()
	report := Report{
		Status:     StatusHealthy,
		Market:     SessionAt(now),
		CheckedAt:  now,
		Components: results,
	}
	for _, h := range results {
		switch h.Status {
		case StatusUnhealthy:
			report.Status = StatusUnhealthy
		case StatusDegraded:
			if report.Status == StatusHealthy {
				report.Status = StatusDegraded
			}
		}
	}
	return report
}

func runCheck(ctx context.Context, name string, check Check) (h ComponentHealth) {
	start := time.Now()
	h.Name = name
	defer func() {
		if r := recover(); r != nil {
			h.Status = StatusUnhealthy
			h.Message = fmt.Sprintf("panic: %v", r)
		}
		h.Latency = time.Since(start)
	}()

	msg, err := check(ctx)
	if err != nil {
		h.Status = StatusUnhealthy
		h.Message = err.Error()
		return h
	}
	h.Status = StatusHealthy
	h.Message = msg
	return h
}
