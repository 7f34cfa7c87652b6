// contextcraft places Zerodha orders and aggregates Indian market data.
//
// Usage:
//
//	contextcraft trade TCS buy 10
//	contextcraft risk --json
package main

import (
	"os"

	"contextcraft/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
