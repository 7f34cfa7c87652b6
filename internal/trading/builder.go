package trading

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "contextcraft/internal/errors"
	"contextcraft/internal/models"
)

// OrderConfig carries the broker classification flags applied to every order.
type OrderConfig struct {
	Exchange models.Exchange
	Product  models.ProductType
	Variety  models.Variety
}

// DefaultOrderConfig is NSE intraday regular.
func DefaultOrderConfig() OrderConfig {
	return OrderConfig{
		Exchange: models.NSE,
		Product:  models.ProductMIS,
		Variety:  models.VarietyRegular,
	}
}

// Builder produces order intents. It performs no I/O.
type Builder struct {
	Config OrderConfig
}

// NewBuilder creates a builder for cfg.
func NewBuilder(cfg OrderConfig) *Builder {
	return &Builder{Config: cfg}
}

// Build validates side, quantity and price, in that order, and returns an
// intent for symbol. rawPrice may be nil, a string ("market", "199.5") or a
// number; anything else is an invalid price.
func (b *Builder) Build(symbol, side string, quantity int, rawPrice any) (models.OrderIntent, error) {
	orderSide, err := ParseSide(side)
	if err != nil {
		return models.OrderIntent{}, err
	}

	if quantity <= 0 {
		return models.OrderIntent{}, apperrors.NewValidationError(apperrors.KindInvalidQuantity, "quantity", quantity, "must be a positive integer")
	}

	pricing, err := ParsePricing(rawPrice)
	if err != nil {
		return models.OrderIntent{}, err
	}

	return models.OrderIntent{
		Exchange: b.Config.Exchange,
		Symbol:   symbol,
		Side:     orderSide,
		Quantity: quantity,
		Pricing:  pricing,
		Product:  b.Config.Product,
		Variety:  b.Config.Variety,
	}, nil
}

// ParseSide accepts "buy" or "sell" in any case.
func ParseSide(side string) (models.OrderSide, error) {
	switch strings.ToLower(strings.TrimSpace(side)) {
	case "buy":
		return models.OrderSideBuy, nil
	case "sell":
		return models.OrderSideSell, nil
	default:
		return "", apperrors.NewValidationError(apperrors.KindInvalidSide, "side", side, "must be buy or sell")
	}
}

// ParseExchange upper-cases exchange and checks it. An empty value is
// returned as is so callers can fall back to the configured exchange.
func ParseExchange(exchange string) (models.Exchange, error) {
	e := models.Exchange(strings.ToUpper(strings.TrimSpace(exchange)))
	if e == "" || e.Valid() {
		return e, nil
	}
	return "", apperrors.NewValidationError(apperrors.KindInvalidArgument, "exchange", exchange, "must be one of NSE, BSE, NFO, CDS, MCX")
}

// ParsePricing decides market vs. limit from an ambiguous price value.
func ParsePricing(rawPrice any) (models.Pricing, error) {
	if rawPrice == nil {
		return models.MarketPricing{}, nil
	}
	if s, ok := rawPrice.(string); ok && strings.Contains(strings.ToLower(s), "market") {
		return models.MarketPricing{}, nil
	}

	price, ok := toDecimal(rawPrice)
	if !ok {
		return nil, apperrors.NewValidationError(apperrors.KindInvalidPrice, "price", rawPrice, "not a number")
	}
	if !price.IsPositive() {
		return nil, apperrors.NewValidationError(apperrors.KindInvalidPrice, "price", rawPrice, "must be positive")
	}

	return models.LimitPricing{Price: price}, nil
}

func toDecimal(v any) (decimal.Decimal, bool) {
	var f float64
	switch p := v.(type) {
	case decimal.Decimal:
		return p, true
	case *decimal.Decimal:
		if p == nil {
			return decimal.Zero, false
		}
		return *p, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return decimal.Zero, false
		}
		f = parsed
	case json.Number:
		parsed, err := p.Float64()
		if err != nil {
			return decimal.Zero, false
		}
		f = parsed
	case float64:
		f = p
	case float32:
		f = float64(p)
	case int:
		f = float64(p)
	case int64:
		f = float64(p)
	case int32:
		f = float64(p)
	default:
		return decimal.Zero, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

// ParseQuantity converts a loosely typed quantity (JSON number, string,
// integer) into a positive int. Fractional values are rejected.
func ParseQuantity(v any) (int, error) {
	invalid := func(msg string) error {
		return apperrors.NewValidationError(apperrors.KindInvalidQuantity, "quantity", v, msg)
	}

	var f float64
	switch q := v.(type) {
	case int:
		f = float64(q)
	case int64:
		f = float64(q)
	case int32:
		f = float64(q)
	case float64:
		f = q
	case float32:
		f = float64(q)
	case json.Number:
		parsed, err := q.Float64()
		if err != nil {
			return 0, invalid("not a number")
		}
		f = parsed
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(q))
		if err != nil {
			return 0, invalid("not an integer")
		}
		f = float64(n)
	case nil:
		return 0, invalid("required")
	default:
		return 0, invalid(fmt.Sprintf("unsupported type %T", v))
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, invalid("not an integer")
	}
	if f <= 0 {
		return 0, invalid("must be a positive integer")
	}
	if f > math.MaxInt32 {
		return 0, invalid("too large")
	}
	return int(f), nil
}
