// Package models provides domain models for the trading application.
package models

// Exchange represents a stock exchange.
type Exchange string

const (
	NSE Exchange = "NSE"
	BSE Exchange = "BSE"
	NFO Exchange = "NFO" // F&O
	CDS Exchange = "CDS" // Currency
	MCX Exchange = "MCX" // Commodity
)

// Valid reports whether e is an exchange Kite accepts.
func (e Exchange) Valid() bool {
	switch e {
	case NSE, BSE, NFO, CDS, MCX:
		return true
	}
	return false
}

// OrderSide represents the side of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderType represents the type of an order.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// ProductType represents the product type of an order.
type ProductType string

const (
	ProductMIS  ProductType = "MIS"  // Intraday
	ProductCNC  ProductType = "CNC"  // Delivery
	ProductNRML ProductType = "NRML" // F&O Normal
)

// Variety is the broker order variety.
type Variety string

const (
	VarietyRegular Variety = "regular"
	VarietyAMO     Variety = "amo"
)

// Instrument represents a tradeable instrument.
type Instrument struct {
	Token    uint32   `json:"instrument_token"`
	Symbol   string   `json:"tradingsymbol"`
	Name     string   `json:"name,omitempty"`
	Exchange Exchange `json:"exchange"`
}

// Profile is the authenticated broker user.
type Profile struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Email    string `json:"email,omitempty"`
	Broker   string `json:"broker,omitempty"`
}
