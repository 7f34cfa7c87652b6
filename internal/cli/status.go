package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"contextcraft/internal/health"
)

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the Kite session, the market-data API and the market session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			report := app.healthChecker().Run(ctx)

			if output.IsStructured() {
				if err := output.Structured(report); err != nil {
					return err
				}
			} else {
				printReport(output, report)
			}
			if report.Status == health.StatusUnhealthy {
				return errReported
			}
			return nil
		},
	}
}

func (a *App) healthChecker() *health.Checker {
	checker := health.NewChecker()

	checker.Register("broker", func(ctx context.Context) (string, error) {
		r := a.Trading.GetProfile(ctx)
		p, ok := r.Value()
		if !ok {
			return "", r.Failure()
		}
		mode := "live"
		if a.Config != nil && a.Config.IsPaperMode() {
			mode = "paper"
		}
		return fmt.Sprintf("%s (%s), %s mode", p.UserName, p.UserID, mode), nil
	})

	checker.RegisterOptional("market_data", func(ctx context.Context) (string, error) {
		r := a.Analysis.CallEndpoint(ctx, "trending", nil)
		if f := r.Failure(); f != nil {
			return "", f
		}
		return "trending endpoint reachable", nil
	})

	return checker
}

func printReport(output *Output, r health.Report) {
	switch r.Status {
	case health.StatusHealthy:
		output.Success("● %s", r.Status)
	case health.StatusDegraded:
		output.Warning("● %s", r.Status)
	default:
		output.Error("● %s", r.Status)
	}

	for _, c := range r.Components {
		line := fmt.Sprintf("  %-12s %-9s %s", c.Name, c.Status, c.Message)
		if c.Status == health.StatusHealthy {
			output.Println(line)
		} else {
			output.Warning("%s", line)
		}
	}

	output.Println()
	output.Printf("Market: %s\n", r.Market)
	if !r.Market.AcceptsRegularOrders() {
		output.Dim("  Regular orders are rejected until %s; use variety \"amo\" to queue them.",
			FormatTime(health.NextOpen(r.CheckedAt)))
	}
}
