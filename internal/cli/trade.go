package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"contextcraft/internal/models"
	"contextcraft/internal/result"
	"contextcraft/internal/trading"
)

// commandTimeout bounds a single command end to end.
const commandTimeout = 30 * time.Second

// addTradingCommands adds order placement and account commands.
func addTradingCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newTradeCmd(app))
	rootCmd.AddCommand(newHoldingsCmd(app))
	rootCmd.AddCommand(newPositionsCmd(app))
	rootCmd.AddCommand(newOrdersCmd(app))
	rootCmd.AddCommand(newProfileCmd(app))
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, commandTimeout)
}

func newTradeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trade <symbol> <buy|sell> <quantity>",
		Short: "Resolve a symbol and place one order",
		Long: `Resolve a partial symbol against the exchange instrument list and place
a single order. Without --price the order is a MARKET order; with a price it
is a LIMIT order at that price.`,
		Example: `  contextcraft trade TCS buy 10
  contextcraft trade infy sell 5 --price 1500.50
  contextcraft trade RELIANCE buy 1 --exchange BSE --json`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			exchange, _ := cmd.Flags().GetString("exchange")
			var price any
			if p, _ := cmd.Flags().GetString("price"); p != "" {
				price = p
			}

			// Side, then quantity, matching the order the builder checks them.
			var res result.Result[models.Submission]
			if _, err := trading.ParseSide(args[1]); err != nil {
				res = result.Fail[models.Submission](err)
			} else if qty, err := trading.ParseQuantity(args[2]); err != nil {
				res = result.Fail[models.Submission](err)
			} else {
				res = app.Trading.ResolveAndSubmitTrade(ctx, models.Exchange(exchange), args[0], args[1], qty, price)
			}

			return render(output, res, func(s models.Submission) {
				output.Success("✓ Order placed: %s", s.OrderID)
				output.Printf("  %s %s x %s on %s (%s", s.Side, s.Symbol, FormatQuantity(s.Quantity), s.Exchange, s.OrderType)
				if s.OrderType == models.OrderTypeLimit {
					output.Printf(" @ %s", s.Price)
				}
				output.Println(")")
			})
		},
	}

	cmd.Flags().String("price", "", "limit price; omit or pass \"market\" for a market order")
	cmd.Flags().String("exchange", "", "exchange to resolve the symbol on, e.g. NSE or BSE (default from config)")
	return cmd
}

func newHoldingsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "holdings",
		Short: "Show delivery holdings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			return render(output, app.Trading.GetHoldings(ctx), func(holdings []models.Holding) {
				if len(holdings) == 0 {
					output.Info("No holdings")
					return
				}
				table := NewTable(output, "SYMBOL", "QTY", "AVG", "LTP", "P&L")
				var total float64
				for _, h := range holdings {
					total += h.PnL
					table.AddRow(h.Symbol, FormatQuantity(h.Quantity),
						fmt.Sprintf("%.2f", h.AveragePrice), fmt.Sprintf("%.2f", h.LTP),
						output.PnL(h.PnL, FormatPnL(h.PnL)))
				}
				table.Render()
				output.Println()
				output.Printf("Total P&L: %s\n", output.PnL(total, FormatPnL(total)))
			})
		},
	}
}

func newPositionsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "positions",
		Short: "Show net and day positions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			return render(output, app.Trading.GetPositions(ctx), func(p models.Positions) {
				printPositions(output, "Net", p.Net)
				output.Println()
				printPositions(output, "Day", p.Day)
			})
		},
	}
}

func printPositions(output *Output, title string, positions []models.Position) {
	output.Bold("%s positions", title)
	if len(positions) == 0 {
		output.Dim("  none")
		return
	}
	table := NewTable(output, "SYMBOL", "PRODUCT", "QTY", "AVG", "LTP", "P&L")
	for _, p := range positions {
		table.AddRow(p.Symbol, string(p.Product), FormatQuantity(p.Quantity),
			fmt.Sprintf("%.2f", p.AveragePrice), fmt.Sprintf("%.2f", p.LTP),
			output.PnL(p.PnL, FormatPnL(p.PnL)))
	}
	table.Render()
}

func newOrdersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Show the most recent orders, newest last",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			limit, _ := cmd.Flags().GetInt("limit")
			return render(output, app.Trading.GetRecentOrders(ctx, limit), func(orders []models.Order) {
				if len(orders) == 0 {
					output.Info("No orders today")
					return
				}
				table := NewTable(output, "TIME", "ORDER ID", "SIDE", "SYMBOL", "QTY", "TYPE", "PRICE", "STATUS")
				for _, o := range orders {
					price := "market"
					if o.Type != models.OrderTypeMarket {
						price = fmt.Sprintf("%.2f", o.Price)
					}
					table.AddRow(FormatTime(o.PlacedAt), TruncateString(o.ID, 20), string(o.Side), o.Symbol,
						FormatQuantity(o.Quantity), string(o.Type), price, o.Status)
				}
				table.Render()
			})
		},
	}

	cmd.Flags().Int("limit", trading.DefaultOrdersLimit, "number of orders to show")
	return cmd
}

func newProfileCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the authenticated broker user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			return render(output, app.Trading.GetProfile(ctx), func(p models.Profile) {
				output.Bold("%s (%s)", p.UserName, p.UserID)
				if p.Email != "" {
					output.Printf("  Email:  %s\n", p.Email)
				}
				if p.Broker != "" {
					output.Printf("  Broker: %s\n", p.Broker)
				}
			})
		},
	}
}
