// Package marketdata is a client for keyed HTTP GET market-data endpoints.
package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	apperrors "contextcraft/internal/errors"
	"contextcraft/internal/logging"
)

const (
	DefaultBaseURL = "https://stock.indianapi.in"
	DefaultTimeout = 10 * time.Second

	apiKeyHeader = "X-Api-Key"
)

// Provider fetches one endpoint and returns its JSON body.
type Provider interface {
	Call(ctx context.Context, endpoint string, params map[string]string) (json.RawMessage, error)
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client calls the market-data API. It performs a single request per call.
type Client struct {
	client *resty.Client
	apiKey string
}

// NewClient creates a market-data client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/"))
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader(apiKeyHeader, cfg.APIKey)
	}

	return &Client{
		client: client,
		apiKey: cfg.APIKey,
	}
}

// Call performs GET {base}/{endpoint}?params.
func (c *Client) Call(ctx context.Context, endpoint string, params map[string]string) (json.RawMessage, error) {
	endpoint = strings.Trim(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, apperrors.NewValidationError(apperrors.KindInvalidArgument, "endpoint", endpoint, "required")
	}
	if c.apiKey == "" {
		return nil, apperrors.NewDataError(apperrors.KindTransportFailure, endpoint, "market data API key not configured", apperrors.ErrNotAuthenticated)
	}

	logger := logging.FromContext(ctx)
	start := time.Now()

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("/" + endpoint)

	if err != nil {
		err = classifyTransportError(endpoint, err)
		logging.LogAPICall(logger, "GET", endpoint, time.Since(start), err)
		return nil, err
	}

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		err = apperrors.NewDataError(apperrors.KindTransportFailure, endpoint,
			fmt.Sprintf("API error %d: %s", resp.StatusCode(), truncate(resp.String(), 200)), nil)
		logging.LogAPICall(logger, "GET", endpoint, time.Since(start), err)
		return nil, err
	}

	body := resp.Body()
	if !json.Valid(body) {
		err = apperrors.NewDataError(apperrors.KindMalformedPayload, endpoint, "response is not JSON", apperrors.ErrMalformedPayload)
		logging.LogAPICall(logger, "GET", endpoint, time.Since(start), err)
		return nil, err
	}

	logging.LogAPICall(logger, "GET", endpoint, time.Since(start), nil)
	return json.RawMessage(body), nil
}

func classifyTransportError(endpoint string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewDataError(apperrors.KindTimeout, endpoint, "request timed out", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperrors.NewDataError(apperrors.KindTimeout, endpoint, "request timed out", err)
	}
	return apperrors.NewDataError(apperrors.KindTransportFailure, endpoint, "request failed", err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ Provider = (*Client)(nil)
