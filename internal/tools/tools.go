// Package tools exposes the trading and analysis operations as named tools
// callable with JSON arguments, for the CLI and for LLM function calling.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/go-viper/mapstructure/v2"

	"contextcraft/internal/analysis"
	apperrors "contextcraft/internal/errors"
	"contextcraft/internal/logging"
	"contextcraft/internal/models"
	"contextcraft/internal/result"
	"contextcraft/internal/trading"
)

// Executor runs tool calls against the trading service and the aggregator.
type Executor struct {
	trading  *trading.Service
	analysis *analysis.Aggregator
}

// NewExecutor creates a tool executor. Either dependency may be nil, in
// which case its tools report a failure when called.
func NewExecutor(svc *trading.Service, agg *analysis.Aggregator) *Executor {
	return &Executor{trading: svc, analysis: agg}
}

type tradeArgs struct {
	Symbol   string `mapstructure:"symbol"`
	Side     string `mapstructure:"side"`
	Quantity any    `mapstructure:"quantity"`
	Price    any    `mapstructure:"price"`
	Exchange string `mapstructure:"exchange"`
}

type ordersArgs struct {
	Limit int `mapstructure:"limit"`
}

type explainArgs struct {
	Stock string `mapstructure:"stock"`
}

type signalArgs struct {
	Stock     string  `mapstructure:"stock"`
	Condition string  `mapstructure:"condition"`
	Threshold float64 `mapstructure:"threshold"`
}

type endpointArgs struct {
	Endpoint string            `mapstructure:"endpoint"`
	Params   map[string]string `mapstructure:"params"`
}

// ExecuteTool runs toolName with JSON args and returns the Result envelope
// as JSON. The error is non-nil only when the envelope itself could not be
// produced or the tool does not exist; tool failures live in the envelope.
func (e *Executor) ExecuteTool(ctx context.Context, toolName string, args json.RawMessage) (string, error) {
	ctx, _ = logging.WithRequestID(ctx)
	logger := logging.FromContext(ctx)
	logger.Debug().Str("tool", toolName).RawJSON("args", normalizeArgs(args)).Msg("Executing tool")

	var out any
	switch toolName {
	case "trade":
		out = e.trade(ctx, args)
	case "get_holdings":
		out = withService(e, func(s *trading.Service) any { return s.GetHoldings(ctx) })
	case "get_positions":
		out = withService(e, func(s *trading.Service) any { return s.GetPositions(ctx) })
	case "get_recent_orders":
		var a ordersArgs
		if err := decodeArgs(args, &a); err != nil {
			out = result.Fail[[]models.Order](err)
			break
		}
		out = withService(e, func(s *trading.Service) any { return s.GetRecentOrders(ctx, a.Limit) })
	case "get_profile":
		out = withService(e, func(s *trading.Service) any { return s.GetProfile(ctx) })
	case "analyze_portfolio_risk":
		out = withAggregator(e, func(a *analysis.Aggregator) any { return a.AnalyzePortfolioRisk(ctx) })
	case "explain_stock":
		var a explainArgs
		if err := decodeArgs(args, &a); err != nil {
			out = result.Fail[analysis.Analysis](err)
			break
		}
		out = withAggregator(e, func(agg *analysis.Aggregator) any { return agg.ExplainStock(ctx, a.Stock) })
	case "auto_trade_signal":
		var a signalArgs
		if err := decodeArgs(args, &a); err != nil {
			out = result.Fail[analysis.Signal](err)
			break
		}
		out = withAggregator(e, func(agg *analysis.Aggregator) any {
			return agg.AutoTradeSignal(ctx, a.Stock, a.Condition, a.Threshold)
		})
	case "call_endpoint":
		var a endpointArgs
		if err := decodeArgs(args, &a); err != nil {
			out = result.Fail[json.RawMessage](err)
			break
		}
		out = withAggregator(e, func(agg *analysis.Aggregator) any { return agg.CallEndpoint(ctx, a.Endpoint, a.Params) })
	default:
		err := apperrors.NewValidationError(apperrors.KindInvalidArgument, "tool", toolName, "unknown tool")
		data, _ := json.Marshal(result.Fail[any](err))
		return string(data), fmt.Errorf("unknown tool: %s", toolName)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "", apperrors.Wrapf(err, "encoding %s result", toolName)
	}
	return string(data), nil
}

func (e *Executor) trade(ctx context.Context, args json.RawMessage) result.Result[models.Submission] {
	var a tradeArgs
	if err := decodeArgs(args, &a); err != nil {
		return result.Fail[models.Submission](err)
	}
	if e.trading == nil {
		return result.Fail[models.Submission](apperrors.ErrNotAuthenticated)
	}

	// Side is checked ahead of quantity so argument errors surface in the
	// same order as when building the order.
	if _, err := trading.ParseSide(a.Side); err != nil {
		return result.Fail[models.Submission](err)
	}
	qty, err := trading.ParseQuantity(a.Quantity)
	if err != nil {
		return result.Fail[models.Submission](err)
	}

	return e.trading.ResolveAndSubmitTrade(ctx, models.Exchange(a.Exchange), a.Symbol, a.Side, qty, a.Price)
}

func withService(e *Executor, fn func(*trading.Service) any) any {
	if e.trading == nil {
		return result.Fail[any](apperrors.ErrNotAuthenticated)
	}
	return fn(e.trading)
}

func withAggregator(e *Executor, fn func(*analysis.Aggregator) any) any {
	if e.analysis == nil {
		return result.Fail[any](apperrors.NewDataError(apperrors.KindTransportFailure, "", "market data not configured", nil))
	}
	return fn(e.analysis)
}

// decodeArgs reads JSON tool arguments into target. Numbers stay json.Number
// so quantities and prices keep their exact text, and weak typing lets
// "5" satisfy a float field.
func decodeArgs(args json.RawMessage, target any) error {
	raw := map[string]any{}
	if len(bytes.TrimSpace(args)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(args))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return apperrors.NewValidationError(apperrors.KindInvalidArgument, "arguments", string(args), "not a JSON object")
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return apperrors.NewValidationError(apperrors.KindInvalidArgument, "arguments", string(args), err.Error())
	}
	return nil
}

func normalizeArgs(args json.RawMessage) []byte {
	if len(bytes.TrimSpace(args)) == 0 || !json.Valid(args) {
		return []byte("{}")
	}
	return args
}

// Info describes a tool for listing.
type Info struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// List returns the tool catalogue sorted by name.
func List() []Info {
	defs := Definitions()
	infos := make([]Info, 0, len(defs))
	for _, d := range defs {
		params, _ := d.Function.Parameters.(json.RawMessage)
		infos = append(infos, Info{
			Name:        d.Function.Name,
			Description: d.Function.Description,
			Parameters:  params,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
