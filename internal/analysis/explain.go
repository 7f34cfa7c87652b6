package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"golang.org/x/sync/errgroup"

	apperrors "contextcraft/internal/errors"
	"contextcraft/internal/result"
)

// Section is one named part of a stock explanation. A failed call is carried
// in its own section rather than failing the whole analysis.
type Section struct {
	Name   string
	Result result.Result[json.RawMessage]
}

// Analysis is an ordered list of sections about one stock.
type Analysis struct {
	Stock    string
	Sections []Section
}

// MarshalJSON renders {"stock":..., "sections":{name: result, ...}} with
// sections in their fixed order.
func (a Analysis) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	stock, err := json.Marshal(a.Stock)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`{"stock":`)
	buf.Write(stock)
	buf.WriteString(`,"sections":{`)
	for i, s := range a.Sections {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(s.Name)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(s.Result)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(body)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

type sectionRequest struct {
	name     string
	endpoint string
	params   func(stock string) map[string]string
}

var explainSections = []sectionRequest{
	{
		name:     "EPS Forecast",
		endpoint: "stock_forecasts",
		params: func(stock string) map[string]string {
			return map[string]string{
				"stock_id":     stock,
				"measure_code": "EPS",
				"period_type":  "Annual",
				"data_type":    "Actuals",
				"age":          "Current",
			}
		},
	},
	{
		name:     "Quarterly Results",
		endpoint: "historical_stats",
		params: func(stock string) map[string]string {
			return map[string]string{"stock_name": stock, "stats": "quarter_results"}
		},
	},
	{
		name:     "52 Week Range",
		endpoint: "fetch_52_week_high_low_data",
		params: func(string) map[string]string {
			return map[string]string{}
		},
	},
}

// ExplainStock gathers forecast, quarterly and 52-week data for stockID. The
// calls run concurrently; section order is fixed.
func (a *Aggregator) ExplainStock(ctx context.Context, stockID string) result.Result[Analysis] {
	stockID = strings.TrimSpace(stockID)
	if stockID == "" {
		return result.Fail[Analysis](apperrors.NewValidationError(apperrors.KindInvalidArgument, "stock", stockID, "required"))
	}

	sections := make([]Section, len(explainSections))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(a.concurrency)

	for i, req := range explainSections {
		group.Go(func() error {
			body, err := a.provider.Call(groupCtx, req.endpoint, req.params(stockID))
			sections[i] = Section{Name: req.name, Result: result.From(body, err)}
			return nil
		})
	}
	_ = group.Wait()

	return result.Success(Analysis{Stock: stockID, Sections: sections})
}
