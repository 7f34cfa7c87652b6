package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pricing is either MarketPricing or LimitPricing.
type Pricing interface {
	OrderType() OrderType
	isPricing()
}

// MarketPricing fills at the prevailing price.
type MarketPricing struct{}

// OrderType returns MARKET.
func (MarketPricing) OrderType() OrderType { return OrderTypeMarket }
func (MarketPricing) isPricing()           {}

// LimitPricing fills at Price or better. Price is always positive.
type LimitPricing struct {
	Price decimal.Decimal
}

// OrderType returns LIMIT.
func (LimitPricing) OrderType() OrderType { return OrderTypeLimit }
func (LimitPricing) isPricing()           {}

// OrderIntent is a fully specified order request, consumed once by submission.
type OrderIntent struct {
	Exchange Exchange
	Symbol   string
	Side     OrderSide
	Quantity int
	Pricing  Pricing
	Product  ProductType
	Variety  Variety
}

// Type returns the order type implied by the pricing.
func (o OrderIntent) Type() OrderType {
	if o.Pricing == nil {
		return OrderTypeMarket
	}
	return o.Pricing.OrderType()
}

// LimitPrice returns the limit price and true for limit orders.
func (o OrderIntent) LimitPrice() (decimal.Decimal, bool) {
	if lp, ok := o.Pricing.(LimitPricing); ok {
		return lp.Price, true
	}
	return decimal.Zero, false
}

// Submission is the broker acknowledgement of a placed order.
type Submission struct {
	OrderID   string    `json:"order_id"`
	Symbol    string    `json:"symbol"`
	Exchange  Exchange  `json:"exchange"`
	Side      OrderSide `json:"type"`
	Quantity  int       `json:"qty"`
	OrderType OrderType `json:"order_type"`
	// Price is the limit price, or "market".
	Price string `json:"price"`
}

// Order represents a trading order from the broker order book.
type Order struct {
	ID           string      `json:"order_id"`
	Symbol       string      `json:"tradingsymbol"`
	Exchange     Exchange    `json:"exchange"`
	Side         OrderSide   `json:"transaction_type"`
	Type         OrderType   `json:"order_type"`
	Product      ProductType `json:"product"`
	Quantity     int         `json:"quantity"`
	Price        float64     `json:"price"`
	Status       string      `json:"status"`
	FilledQty    int         `json:"filled_quantity"`
	AveragePrice float64     `json:"average_price"`
	PlacedAt     time.Time   `json:"order_timestamp"`
}

// Position represents an open trading position.
type Position struct {
	Symbol       string      `json:"tradingsymbol"`
	Exchange     Exchange    `json:"exchange"`
	Product      ProductType `json:"product"`
	Quantity     int         `json:"quantity"`
	AveragePrice float64     `json:"average_price"`
	LTP          float64     `json:"last_price"`
	PnL          float64     `json:"pnl"`
}

// Positions holds the net and day views returned by the broker.
type Positions struct {
	Net []Position `json:"net"`
	Day []Position `json:"day"`
}

// Holding represents a delivery holding.
type Holding struct {
	Symbol       string   `json:"tradingsymbol"`
	Exchange     Exchange `json:"exchange"`
	Quantity     int      `json:"quantity"`
	AveragePrice float64  `json:"average_price"`
	LTP          float64  `json:"last_price"`
	PnL          float64  `json:"pnl"`
}
