// Package cli provides the command-line interface for contextcraft.
package cli

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"contextcraft/internal/analysis"
	"contextcraft/internal/broker"
	"contextcraft/internal/config"
	"contextcraft/internal/logging"
	"contextcraft/internal/marketdata"
	"contextcraft/internal/security"
	"contextcraft/internal/tools"
	"contextcraft/internal/trading"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-10-01"
)

// App holds the application dependencies.
type App struct {
	ConfigDir string
	Config    *config.Config
	Logger    zerolog.Logger
	Trading   *trading.Service
	Analysis  *analysis.Aggregator
	Tools     *tools.Executor
	Audit     *security.AuditLogger

	// ready is set once dependencies are wired, either by setup or by a caller
	// that built them itself.
	ready bool
}

// NewRootCmd creates the root command for the CLI. Configuration is loaded
// when a command runs, not when the tree is built.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{Logger: zerolog.Nop()})
}

func newRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "contextcraft",
		Short: "Zerodha order placement and Indian market-data analysis",
		Long: `contextcraft places orders on Zerodha Kite Connect and aggregates
Indian equity market data into portfolio risk, stock explanations and
threshold signals.

Every command prints a status/data envelope with --json or --yaml.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" || cmd.Name() == "path" {
				return nil
			}
			if !app.ready {
				if err := app.setup(cmd); err != nil {
					return err
				}
			}

			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}

			ctx, _ := logging.WithRequestID(logging.WithLogger(cmd.Context(), app.Logger))
			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app.Audit != nil {
				return app.Audit.Close()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/contextcraft)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("yaml", false, "output in YAML format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging on stderr")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newStatusCmd(app))
	addTradingCommands(rootCmd, app)
	addAnalysisCommands(rootCmd, app)
	addToolCommands(rootCmd, app)

	return rootCmd
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	cmd := NewRootCmd()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errReported) {
			NewOutput(cmd).Error("Error: %v", err)
		}
		return 1
	}
	return 0
}

// setup loads configuration and wires the services.
func (a *App) setup(cmd *cobra.Command) error {
	dir, _ := cmd.Flags().GetString("config")
	if dir == "" {
		dir = config.DefaultConfigDir()
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	a.ConfigDir = dir
	a.Config = cfg

	lc := cfg.LogConfig()
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		lc.Level = "debug"
		lc.Console = true
	}
	a.Logger = logging.NewLoggerWithConfig(lc)

	if cfg.Security.AuditEnabled {
		ac := security.DefaultAuditConfig()
		ac.LogDir = cfg.AuditDir()
		audit, err := security.NewAuditLogger(ac)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("Audit log unavailable")
		} else {
			a.Audit = audit
		}
	}
	access := security.NewAccessController(cfg.Security.ReadOnlyMode, a.Audit)

	session := a.newSession(cfg)

	a.Trading = trading.NewService(trading.ServiceConfig{
		Session: session,
		Orders:  cfg.OrderConfig(),
		Access:  access,
		Audit:   a.Audit,
	})

	client := marketdata.NewClient(marketdata.Config{
		BaseURL: cfg.MarketData.BaseURL,
		APIKey:  cfg.Credentials.IndianAPI.APIKey,
		Timeout: cfg.MarketData.Timeout,
	})

	var holdings analysis.HoldingsSource
	if session != nil {
		holdings = session
	}
	a.Analysis = analysis.NewAggregator(client, holdings, analysis.WithConcurrency(cfg.MarketData.Concurrency))
	a.Tools = tools.NewExecutor(a.Trading, a.Analysis)
	a.ready = true

	a.Logger.Debug().
		Str("mode", cfg.Trading.Mode).
		Bool("read_only", cfg.Security.ReadOnlyMode).
		Bool("broker", session != nil).
		Msg("Application initialized")
	return nil
}

// newSession returns the broker session, or nil when no credentials are
// configured and live mode is selected. Paper mode always has a session;
// with credentials its reads go to Kite.
func (a *App) newSession(cfg *config.Config) broker.Session {
	var live *broker.ZerodhaSession
	if cfg.Credentials.Zerodha.APIKey != "" && cfg.Credentials.Zerodha.AccessToken != "" {
		z, err := broker.NewZerodhaSession(broker.ZerodhaConfig{
			APIKey:      cfg.Credentials.Zerodha.APIKey,
			AccessToken: cfg.Credentials.Zerodha.AccessToken,
			Timeout:     cfg.Broker.Timeout,
			BaseURI:     cfg.Broker.BaseURI,
		})
		if err != nil {
			a.Logger.Warn().Err(err).Msg("Kite session unavailable")
		} else {
			live = z
		}
	}

	if cfg.IsPaperMode() {
		pc := broker.PaperSessionConfig{Instruments: cfg.PaperInstruments()}
		if live != nil {
			pc.DataSession = live
		}
		return broker.NewPaperSession(pc)
	}
	if live == nil {
		return nil
	}
	return live
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsStructured() {
				return output.Structured(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("contextcraft v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration with credentials masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			view := maskedConfig(app.Config)
			if output.IsStructured() {
				return output.Structured(view)
			}
			showConfig(output, view)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			dir, _ := cmd.Flags().GetString("config")
			path := config.ConfigPath(dir)
			if output.IsStructured() {
				return output.Structured(map[string]string{"path": path})
			}
			output.Println(path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			// Load already validated; this re-checks in-memory overrides.
			if err := app.Config.Validate(); err != nil {
				if output.IsStructured() {
					_ = output.Structured(map[string]any{"valid": false, "error": err.Error()})
				} else {
					output.Error("Configuration validation failed: %v", err)
				}
				return errReported
			}
			if output.IsStructured() {
				return output.Structured(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

// configView is the printable configuration.
type configView struct {
	Trading     config.TradingConfig    `json:"trading"`
	Broker      config.BrokerConfig     `json:"broker"`
	MarketData  config.MarketDataConfig `json:"market_data"`
	Security    config.SecurityConfig   `json:"security"`
	Logging     config.LoggingConfig    `json:"logging"`
	Agent       config.AgentConfig      `json:"agent"`
	Paper       config.PaperConfig      `json:"paper"`
	Credentials map[string]string       `json:"credentials"`
}

func maskedConfig(cfg *config.Config) configView {
	return configView{
		Trading:    cfg.Trading,
		Broker:     cfg.Broker,
		MarketData: cfg.MarketData,
		Security:   cfg.Security,
		Logging:    cfg.Logging,
		Agent:      cfg.Agent,
		Paper:      cfg.Paper,
		Credentials: map[string]string{
			"zerodha_api_key":      security.MaskCredential(cfg.Credentials.Zerodha.APIKey),
			"zerodha_access_token": security.MaskCredential(cfg.Credentials.Zerodha.AccessToken),
			"indianapi_api_key":    security.MaskCredential(cfg.Credentials.IndianAPI.APIKey),
			"openai_api_key":       security.MaskCredential(cfg.Credentials.OpenAI.APIKey),
		},
	}
}

func showConfig(output *Output, v configView) {
	output.Bold("Trading")
	output.Printf("  Mode:        %s\n", v.Trading.Mode)
	output.Printf("  Exchange:    %s\n", v.Trading.Exchange)
	output.Printf("  Product:     %s\n", v.Trading.Product)
	output.Printf("  Variety:     %s\n", v.Trading.Variety)
	if v.Trading.Mode == "paper" {
		output.Printf("  Paper list:  %d instruments\n", len(v.Paper.Instruments))
	}
	output.Println()

	output.Bold("Services")
	output.Printf("  Kite timeout:     %s\n", v.Broker.Timeout)
	output.Printf("  Market data:      %s (timeout %s, %d parallel)\n", v.MarketData.BaseURL, v.MarketData.Timeout, v.MarketData.Concurrency)
	output.Printf("  Agent model:      %s (max %d rounds)\n", v.Agent.Model, v.Agent.MaxRounds)
	output.Println()

	output.Bold("Security")
	output.Printf("  Read-only:   %v\n", v.Security.ReadOnlyMode)
	output.Printf("  Audit log:   %v\n", v.Security.AuditEnabled)
	output.Println()

	output.Bold("Credentials")
	for _, k := range []string{"zerodha_api_key", "zerodha_access_token", "indianapi_api_key", "openai_api_key"} {
		output.Printf("  %-22s %s\n", k+":", v.Credentials[k])
	}
}
