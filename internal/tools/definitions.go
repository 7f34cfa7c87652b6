package tools

import (
	"encoding/json"

	"github.com/sashabaranov/go-openai"
)

// Definitions returns all tool definitions for OpenAI function calling.
func Definitions() []openai.Tool {
	return []openai.Tool{
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "trade",
				Description: "Place a buy or sell order. The symbol is matched against the exchange's instrument list (first trading symbol containing it). Omit price or pass \"market\" for a market order; a positive number places a limit order.",
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"symbol": {
							"type": "string",
							"description": "Stock symbol or part of it (e.g., TCS, INFY)"
						},
						"side": {
							"type": "string",
							"enum": ["buy", "sell"],
							"description": "Order side"
						},
						"quantity": {
							"type": "integer",
							"description": "Number of shares, a positive integer"
						},
						"price": {
							"type": ["number", "string"],
							"description": "Limit price, or \"market\""
						},
						"exchange": {
							"type": "string",
							"enum": ["NSE", "BSE"],
							"description": "Exchange (defaults to the configured one)"
						}
					},
					"required": ["symbol", "side", "quantity"]
				}`),
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "get_holdings",
				Description: "List delivery holdings with quantity, average price, last price and P&L.",
				Parameters:  json.RawMessage(`{"type": "object", "properties": {}}`),
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "get_positions",
				Description: "List open positions, both net and day.",
				Parameters:  json.RawMessage(`{"type": "object", "properties": {}}`),
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "get_recent_orders",
				Description: "List the most recent orders of the day, oldest first.",
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"limit": {
							"type": "integer",
							"description": "Maximum number of orders (default 10)",
							"default": 10
						}
					}
				}`),
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "get_profile",
				Description: "Get the broker account profile (user id and name).",
				Parameters:  json.RawMessage(`{"type": "object", "properties": {}}`),
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "analyze_portfolio_risk",
				Description: "Compute the sector diversification of current holdings as percentage per sector. Holdings whose sector is unknown are grouped under Unknown.",
				Parameters:  json.RawMessage(`{"type": "object", "properties": {}}`),
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "explain_stock",
				Description: "Gather EPS forecast, quarterly results and 52 week range for a stock. Each section succeeds or fails independently.",
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"stock": {
							"type": "string",
							"description": "Stock name or id (e.g., TCS)"
						}
					},
					"required": ["stock"]
				}`),
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "auto_trade_signal",
				Description: "Check today's price shockers for a stock. A drop of at least threshold percent signals BUY, a rise of at least threshold percent signals SELL, otherwise HOLD.",
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"stock": {
							"type": "string",
							"description": "Stock name to look for"
						},
						"condition": {
							"type": "string",
							"enum": ["drop", "rise"],
							"description": "Direction to watch"
						},
						"threshold": {
							"type": "number",
							"description": "Percentage move that triggers the signal"
						}
					},
					"required": ["stock", "condition", "threshold"]
				}`),
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "call_endpoint",
				Description: "Call a market data endpoint directly (e.g., trending, price_shockers, industry_search) with flat string parameters.",
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"endpoint": {
							"type": "string",
							"description": "Endpoint name"
						},
						"params": {
							"type": "object",
							"additionalProperties": {"type": "string"},
							"description": "Query parameters"
						}
					},
					"required": ["endpoint"]
				}`),
			},
		},
	}
}
