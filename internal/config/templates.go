package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# contextcraft configuration

[trading]
# Trading mode: "live" or "paper"
mode = "live"
# Exchange used to resolve symbols: NSE, BSE
exchange = "NSE"
# Product type: MIS (intraday), CNC (delivery), NRML
product = "MIS"
# Order variety: regular, amo
variety = "regular"

[broker]
# Upper bound on each Kite Connect call
timeout = "10s"

[market_data]
base_url = "https://stock.indianapi.in"
timeout = "10s"
# Parallel lookups per analysis
concurrency = 4

[security]
# Block order placement
read_only_mode = false
# Record every order attempt in the audit log
audit_enabled = true

[logging]
# debug, info, warn, error
level = "info"
console = false
file = true
# Defaults to logs/contextcraft.log in this directory
file_path = ""

[agent]
model = "gpt-4o-mini"
# Maximum tool-calling rounds per question
max_rounds = 8

[paper]
# Instruments tradable in paper mode without Kite credentials.
# "SYMBOL" is listed on NSE and BSE; "BSE:SYMBOL" on one exchange only.
instruments = [
  "RELIANCE", "TCS", "HDFCBANK", "ICICIBANK", "INFY", "SBIN", "BHARTIARTL",
  "ITC", "LT", "HINDUNILVR", "KOTAKBANK", "AXISBANK", "BAJFINANCE", "MARUTI",
  "SUNPHARMA", "TATAMOTORS", "WIPRO", "HCLTECH", "ASIANPAINT", "TITAN",
]
`

const credentialsTemplate = `# contextcraft credentials
# WARNING: Keep this file secure! Do not commit to version control.
# Environment variables (KITE_API_KEY, KITE_ACCESS_TOKEN, INDIANAPI_KEY,
# OPENAI_API_KEY) take precedence over these values.

[zerodha]
api_key = ""
access_token = ""

[indianapi]
api_key = ""

[openai]
api_key = ""
`

func createTemplate(configDir, name, content string, perm os.FileMode) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name)
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return fmt.Errorf("writing %s template: %w", name, err)
	}
	return nil
}

// ConfigPath returns the path of config.toml in configDir.
func ConfigPath(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, "config.toml")
}
