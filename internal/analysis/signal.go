package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	apperrors "contextcraft/internal/errors"
	"contextcraft/internal/logging"
	"contextcraft/internal/result"
)

// SignalAction is the recommendation produced by AutoTradeSignal.
type SignalAction string

const (
	SignalBuy  SignalAction = "BUY"
	SignalSell SignalAction = "SELL"
	SignalHold SignalAction = "HOLD"
)

const (
	ConditionDrop = "drop"
	ConditionRise = "rise"
)

// Signal is a one-shot threshold evaluation against the price shockers list.
type Signal struct {
	Stock     string       `json:"stock"`
	Condition string       `json:"condition"`
	Threshold float64      `json:"threshold"`
	Matched   string       `json:"matched,omitempty"`
	Change    *float64     `json:"change_percentage,omitempty"`
	Signal    SignalAction `json:"signal"`
}

var (
	symbolKeys = []string{"symbol", "ticker", "company"}
	changeKeys = []string{"change_percentage", "percent_change", "percentChange"}
)

// AutoTradeSignal finds stock in the price shockers and compares its change
// against threshold. A drop of at least threshold percent is a BUY, a rise of
// at least threshold percent is a SELL, anything else (including no match) is
// a HOLD.
func (a *Aggregator) AutoTradeSignal(ctx context.Context, stock, condition string, threshold float64) result.Result[Signal] {
	stock = strings.TrimSpace(stock)
	condition = strings.ToLower(strings.TrimSpace(condition))
	if stock == "" {
		return result.Fail[Signal](apperrors.NewValidationError(apperrors.KindInvalidArgument, "stock", stock, "required"))
	}

	sig := Signal{Stock: stock, Condition: condition, Threshold: threshold, Signal: SignalHold}

	body, err := a.provider.Call(ctx, "price_shockers", nil)
	if err != nil {
		return result.Fail[Signal](err)
	}

	records, err := shockerRecords(body)
	if err != nil {
		return result.Fail[Signal](err)
	}

	needle := strings.ToLower(stock)
	for _, rec := range records {
		name := firstString(rec, symbolKeys)
		if name == "" || !strings.Contains(strings.ToLower(name), needle) {
			continue
		}

		change, err := parseChange(rec)
		if err != nil {
			return result.Fail[Signal](err)
		}

		sig.Matched = name
		sig.Change = &change
		switch {
		case condition == ConditionDrop && change <= -threshold:
			sig.Signal = SignalBuy
		case condition == ConditionRise && change >= threshold:
			sig.Signal = SignalSell
		}
		break
	}

	logging.LogSignal(logging.FromContext(ctx), stock, condition, threshold, string(sig.Signal))
	return result.Success(sig)
}

// shockerRecords accepts either a list of records or an object whose
// list-valued fields (e.g. NSE_PriceShocker, BSE_PriceShocker) hold records.
// Object fields are scanned in key order.
func shockerRecords(body json.RawMessage) ([]map[string]any, error) {
	var list []map[string]any
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, apperrors.NewDataError(apperrors.KindMalformedPayload, "price_shockers", "expected a list or object", err)
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var records []map[string]any
	for _, k := range keys {
		var part []map[string]any
		if err := json.Unmarshal(obj[k], &part); err == nil {
			records = append(records, part...)
		}
	}
	return records, nil
}

func firstString(rec map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := rec[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func parseChange(rec map[string]any) (float64, error) {
	for _, k := range changeKeys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		switch c := v.(type) {
		case float64:
			return c, nil
		case string:
			s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(c), "%"))
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return 0, apperrors.NewDataError(apperrors.KindMalformedPayload, "price_shockers",
					fmt.Sprintf("unparsable %s %q", k, c), apperrors.ErrMalformedPayload)
			}
			return f, nil
		default:
			return 0, apperrors.NewDataError(apperrors.KindMalformedPayload, "price_shockers",
				fmt.Sprintf("unexpected %s type %T", k, v), apperrors.ErrMalformedPayload)
		}
	}
	return 0, apperrors.NewDataError(apperrors.KindMalformedPayload, "price_shockers", "record has no change field", apperrors.ErrMalformedPayload)
}
