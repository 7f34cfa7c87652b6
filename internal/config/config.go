// Package config provides configuration management for contextcraft.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	apperrors "contextcraft/internal/errors"
	"contextcraft/internal/logging"
	"contextcraft/internal/models"
	"contextcraft/internal/trading"
)

// Config holds all application configuration.
type Config struct {
	Trading     TradingConfig    `mapstructure:"trading" json:"trading"`
	Broker      BrokerConfig     `mapstructure:"broker" json:"broker"`
	MarketData  MarketDataConfig `mapstructure:"market_data" json:"market_data"`
	Security    SecurityConfig   `mapstructure:"security" json:"security"`
	Logging     LoggingConfig    `mapstructure:"logging" json:"logging"`
	Agent       AgentConfig      `mapstructure:"agent" json:"agent"`
	Paper       PaperConfig      `mapstructure:"paper" json:"paper"`
	Credentials Credentials      `mapstructure:"-" json:"-"` // Loaded separately

	dir string
}

// TradingConfig holds the order classification applied to every trade.
type TradingConfig struct {
	Mode     string `mapstructure:"mode" json:"mode"`         // "live", "paper"
	Exchange string `mapstructure:"exchange" json:"exchange"` // NSE, BSE
	Product  string `mapstructure:"product" json:"product"`   // MIS, CNC, NRML
	Variety  string `mapstructure:"variety" json:"variety"`   // regular, amo
}

// BrokerConfig holds Kite Connect client settings.
type BrokerConfig struct {
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`
	BaseURI string        `mapstructure:"base_uri" json:"base_uri"`
}

// MarketDataConfig holds market-data client settings.
type MarketDataConfig struct {
	BaseURL     string        `mapstructure:"base_url" json:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
	Concurrency int           `mapstructure:"concurrency" json:"concurrency"`
}

// SecurityConfig holds security-related configuration.
type SecurityConfig struct {
	ReadOnlyMode bool `mapstructure:"read_only_mode" json:"read_only_mode"`
	AuditEnabled bool `mapstructure:"audit_enabled" json:"audit_enabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level    string `mapstructure:"level" json:"level"`
	Console  bool   `mapstructure:"console" json:"console"`
	File     bool   `mapstructure:"file" json:"file"`
	FilePath string `mapstructure:"file_path" json:"file_path"`
}

// AgentConfig holds settings for the ask command.
type AgentConfig struct {
	Model     string `mapstructure:"model" json:"model"`
	MaxRounds int    `mapstructure:"max_rounds" json:"max_rounds"`
}

// PaperConfig lists the instruments a paper session trades when no Kite
// session supplies the real instrument dump. An entry is "SYMBOL" (listed on
// NSE and BSE) or "EXCHANGE:SYMBOL".
type PaperConfig struct {
	Instruments []string `mapstructure:"instruments" json:"instruments"`
}

// DefaultPaperInstruments are large NSE/BSE equities.
var DefaultPaperInstruments = []string{
	"RELIANCE", "TCS", "HDFCBANK", "ICICIBANK", "INFY", "SBIN", "BHARTIARTL",
	"ITC", "LT", "HINDUNILVR", "KOTAKBANK", "AXISBANK", "BAJFINANCE", "MARUTI",
	"SUNPHARMA", "TATAMOTORS", "WIPRO", "HCLTECH", "ASIANPAINT", "TITAN",
}

// Credentials holds API credentials.
type Credentials struct {
	Zerodha   ZerodhaCredentials `mapstructure:"zerodha" json:"zerodha"`
	IndianAPI APIKeyCredentials  `mapstructure:"indianapi" json:"indianapi"`
	OpenAI    APIKeyCredentials  `mapstructure:"openai" json:"openai"`
}

// ZerodhaCredentials holds Kite Connect credentials. The access token comes
// from a login flow handled elsewhere.
type ZerodhaCredentials struct {
	APIKey      string `mapstructure:"api_key" json:"api_key"`
	AccessToken string `mapstructure:"access_token" json:"access_token"`
}

// APIKeyCredentials holds a single API key.
type APIKeyCredentials struct {
	APIKey string `mapstructure:"api_key" json:"api_key"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/contextcraft"
	}
	return filepath.Join(home, ".config", "contextcraft")
}

// Load loads configuration from the specified directory. If configDir is
// empty, uses the default config directory. Missing files are created from
// templates and defaults apply. Variables from a .env file in the working
// directory or configDir are visible to the environment overrides.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	_ = godotenv.Load()
	_ = godotenv.Load(filepath.Join(configDir, ".env"))

	cfg := &Config{}

	cfg.dir = configDir

	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("trading.mode", "live")
	v.SetDefault("trading.exchange", string(models.NSE))
	v.SetDefault("trading.product", string(models.ProductMIS))
	v.SetDefault("trading.variety", string(models.VarietyRegular))
	v.SetDefault("broker.timeout", "10s")
	v.SetDefault("market_data.base_url", "https://stock.indianapi.in")
	v.SetDefault("market_data.timeout", "10s")
	v.SetDefault("market_data.concurrency", 4)
	v.SetDefault("security.read_only_mode", false)
	v.SetDefault("security.audit_enabled", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", false)
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "contextcraft.log"))
	v.SetDefault("agent.model", "gpt-4o-mini")
	v.SetDefault("agent.max_rounds", 8)
	v.SetDefault("paper.instruments", DefaultPaperInstruments)
}

func loadConfigFile(configDir string, cfg *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
		if err := createTemplate(configDir, "config.toml", configTemplate, 0644); err != nil {
			return err
		}
	}

	return v.Unmarshal(cfg)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
		return createTemplate(configDir, "credentials.toml", credentialsTemplate, 0600)
	}

	return v.Unmarshal(creds)
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func applyEnvOverrides(cfg *Config) {
	if v := firstEnv("KITE_API_KEY", "API_KEY"); v != "" {
		cfg.Credentials.Zerodha.APIKey = v
	}
	if v := firstEnv("KITE_ACCESS_TOKEN", "ACCESS_TOKEN"); v != "" {
		cfg.Credentials.Zerodha.AccessToken = v
	}
	if v := os.Getenv("INDIANAPI_KEY"); v != "" {
		cfg.Credentials.IndianAPI.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Credentials.OpenAI.APIKey = v
	}
	if v := os.Getenv("TRADING_MODE"); v != "" {
		cfg.Trading.Mode = v
	}
}

func (c *Config) normalize() {
	c.Trading.Mode = strings.ToLower(strings.TrimSpace(c.Trading.Mode))
	c.Trading.Exchange = strings.ToUpper(strings.TrimSpace(c.Trading.Exchange))
	c.Trading.Product = strings.ToUpper(strings.TrimSpace(c.Trading.Product))
	c.Trading.Variety = strings.ToLower(strings.TrimSpace(c.Trading.Variety))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var err error

	switch c.Trading.Mode {
	case "live", "paper":
	default:
		err = multierr.Append(err, fmt.Errorf("invalid trading mode: %q (must be 'live' or 'paper')", c.Trading.Mode))
	}

	if !models.Exchange(c.Trading.Exchange).Valid() {
		err = multierr.Append(err, fmt.Errorf("invalid exchange: %q", c.Trading.Exchange))
	}

	switch models.ProductType(c.Trading.Product) {
	case models.ProductMIS, models.ProductCNC, models.ProductNRML:
	default:
		err = multierr.Append(err, fmt.Errorf("invalid product: %q (must be MIS, CNC or NRML)", c.Trading.Product))
	}

	switch models.Variety(c.Trading.Variety) {
	case models.VarietyRegular, models.VarietyAMO:
	default:
		err = multierr.Append(err, fmt.Errorf("invalid variety: %q (must be regular or amo)", c.Trading.Variety))
	}

	if c.Broker.Timeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("broker.timeout must be positive"))
	}
	if c.MarketData.Timeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("market_data.timeout must be positive"))
	}
	if c.MarketData.Concurrency < 1 {
		err = multierr.Append(err, fmt.Errorf("market_data.concurrency must be at least 1"))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		err = multierr.Append(err, fmt.Errorf("invalid logging level: %q", c.Logging.Level))
	}

	if c.Agent.MaxRounds < 1 {
		err = multierr.Append(err, fmt.Errorf("agent.max_rounds must be at least 1"))
	}

	for _, entry := range c.Paper.Instruments {
		if _, _, perr := parsePaperInstrument(entry); perr != nil {
			err = multierr.Append(err, perr)
		}
	}

	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrConfigInvalid, err)
	}
	return nil
}

// IsPaperMode returns true if paper trading mode is enabled.
func (c *Config) IsPaperMode() bool {
	return c.Trading.Mode == "paper"
}

// OrderConfig returns the order classification for the trade builder.
func (c *Config) OrderConfig() trading.OrderConfig {
	return trading.OrderConfig{
		Exchange: models.Exchange(c.Trading.Exchange),
		Product:  models.ProductType(c.Trading.Product),
		Variety:  models.Variety(c.Trading.Variety),
	}
}

// PaperInstruments expands paper.instruments into instruments with synthetic
// tokens, in configured order.
func (c *Config) PaperInstruments() []models.Instrument {
	var out []models.Instrument
	for _, entry := range c.Paper.Instruments {
		exchange, symbol, err := parsePaperInstrument(entry)
		if err != nil {
			continue
		}
		exchanges := []models.Exchange{models.NSE, models.BSE}
		if exchange != "" {
			exchanges = []models.Exchange{exchange}
		}
		for _, e := range exchanges {
			out = append(out, models.Instrument{
				Token:    uint32(len(out) + 1),
				Symbol:   symbol,
				Exchange: e,
			})
		}
	}
	return out
}

func parsePaperInstrument(entry string) (models.Exchange, string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(entry))
	var exchange models.Exchange
	if prefix, rest, found := strings.Cut(symbol, ":"); found {
		exchange = models.Exchange(strings.TrimSpace(prefix))
		symbol = strings.TrimSpace(rest)
		if !exchange.Valid() {
			return "", "", fmt.Errorf("invalid paper instrument %q: unknown exchange %q", entry, prefix)
		}
	}
	if symbol == "" {
		return "", "", fmt.Errorf("invalid paper instrument %q: empty symbol", entry)
	}
	return exchange, symbol, nil
}

// AuditDir returns the audit log directory inside the config directory.
func (c *Config) AuditDir() string {
	dir := c.dir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return filepath.Join(dir, "audit")
}

// LogConfig returns the logger settings.
func (c *Config) LogConfig() logging.LogConfig {
	lc := logging.DefaultLogConfig()
	lc.Level = c.Logging.Level
	lc.Console = c.Logging.Console
	lc.File = c.Logging.File
	switch {
	case c.Logging.FilePath != "":
		lc.FilePath = c.Logging.FilePath
	case c.dir != "":
		lc.FilePath = filepath.Join(c.dir, "logs", "contextcraft.log")
	}
	return lc
}
