package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"contextcraft/internal/analysis"
	apperrors "contextcraft/internal/errors"
	"contextcraft/internal/result"
)

// addAnalysisCommands adds the market-data commands.
func addAnalysisCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newRiskCmd(app))
	rootCmd.AddCommand(newExplainCmd(app))
	rootCmd.AddCommand(newSignalCmd(app))
	rootCmd.AddCommand(newMarketCmd(app))
}

func newRiskCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "risk",
		Short: "Show sector concentration of current holdings",
		Long: `Look up the sector of every holding and show the share of holdings in
each sector. Holdings whose sector cannot be found count as Unknown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			return render(output, app.Analysis.AnalyzePortfolioRisk(ctx), func(d analysis.SectorDistribution) {
				if len(d) == 0 {
					output.Info("No holdings to analyze")
					return
				}
				sectors := make([]string, 0, len(d))
				for s := range d {
					sectors = append(sectors, s)
				}
				sort.Slice(sectors, func(i, j int) bool {
					if c := d[sectors[i]].Cmp(d[sectors[j]]); c != 0 {
						return c > 0
					}
					return sectors[i] < sectors[j]
				})

				table := NewTable(output, "SECTOR", "SHARE", "")
				for _, s := range sectors {
					table.AddRow(s, d[s].StringFixed(2)+"%", bar(d[s]))
				}
				table.Render()
			})
		},
	}
}

// bar draws one block per 5%.
func bar(pct decimal.Decimal) string {
	return strings.Repeat("█", int(pct.Div(decimal.NewFromInt(5)).Round(0).IntPart()))
}

func newExplainCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "explain <stock>",
		Short:   "Collect forecasts, quarterly results and the 52-week range for a stock",
		Example: `  contextcraft explain TCS --yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			return render(output, app.Analysis.ExplainStock(ctx, args[0]), func(a analysis.Analysis) {
				output.Bold("%s", a.Stock)
				for _, s := range a.Sections {
					output.Println()
					output.Info("%s", s.Name)
					body, ok := s.Result.Value()
					if !ok {
						f := s.Result.Failure()
						output.Warning("  unavailable (%s): %s", f.Kind, f.Message)
						continue
					}
					output.Println(indentJSON(body, "  "))
				}
			})
		},
	}
}

func newSignalCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "signal <stock> <drop|rise> <threshold>",
		Short: "Evaluate a price-move threshold against today's price shockers",
		Long: `Look the stock up in the price shockers list. A drop of at least the
threshold percentage gives BUY, a rise of at least the threshold gives SELL,
anything else gives HOLD. No order is placed.`,
		Example: `  contextcraft signal TATASTEEL drop 5`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			var res result.Result[analysis.Signal]
			threshold, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				res = result.Fail[analysis.Signal](apperrors.NewValidationError(
					apperrors.KindInvalidArgument, "threshold", args[2], "threshold must be a number"))
			} else {
				res = app.Analysis.AutoTradeSignal(ctx, args[0], args[1], threshold)
			}

			return render(output, res, func(s analysis.Signal) {
				switch s.Signal {
				case analysis.SignalBuy:
					output.Success("BUY %s", s.Stock)
				case analysis.SignalSell:
					output.Error("SELL %s", s.Stock)
				default:
					output.Warning("HOLD %s", s.Stock)
				}
				if s.Change != nil {
					output.Printf("  %s moved %s (%s threshold %.2f%%)\n", s.Matched, FormatPercent(*s.Change), s.Condition, s.Threshold)
				} else {
					output.Dim("  not among today's price shockers")
				}
			})
		},
	}
}

func newMarketCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "market",
		Short: "Raw market-data access",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "call <endpoint> [key=value...]",
		Short: "Call a market-data endpoint and print its JSON",
		Example: `  contextcraft market call trending
  contextcraft market call industry_search query=TCS`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			var res result.Result[json.RawMessage]
			params, err := parseParams(args[1:])
			if err != nil {
				res = result.Fail[json.RawMessage](err)
			} else {
				res = app.Analysis.CallEndpoint(ctx, args[0], params)
			}

			return render(output, res, func(body json.RawMessage) {
				output.Println(indentJSON(body, ""))
			})
		},
	})

	return cmd
}

// parseParams turns key=value arguments into query parameters.
func parseParams(args []string) (map[string]string, error) {
	params := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, apperrors.NewValidationError(apperrors.KindInvalidArgument, "params", a,
				fmt.Sprintf("expected key=value, got %q", a))
		}
		params[k] = v
	}
	return params, nil
}

func indentJSON(body json.RawMessage, prefix string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, prefix, "  "); err != nil {
		return prefix + string(body)
	}
	return prefix + buf.String()
}
