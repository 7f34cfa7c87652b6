package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"contextcraft/internal/analysis"
	"contextcraft/internal/broker"
	"contextcraft/internal/config"
	apperrors "contextcraft/internal/errors"
	"contextcraft/internal/models"
	"contextcraft/internal/tools"
	"contextcraft/internal/trading"
)

type stubProvider map[string]string

func (s stubProvider) Call(ctx context.Context, endpoint string, params map[string]string) (json.RawMessage, error) {
	if body, ok := s[endpoint]; ok {
		return json.RawMessage(body), nil
	}
	return nil, apperrors.NewDataError(apperrors.KindTransportFailure, endpoint, "API error 404", nil)
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	paper := broker.NewPaperSession(broker.PaperSessionConfig{Instruments: []models.Instrument{
		{Token: 2953217, Symbol: "TCS", Exchange: models.NSE},
		{Token: 408065, Symbol: "INFY", Exchange: models.NSE},
	}})
	svc := trading.NewService(trading.ServiceConfig{Session: paper, Orders: trading.DefaultOrderConfig()})
	agg := analysis.NewAggregator(stubProvider{
		"price_shockers": `[{"symbol":"XYZ Ltd","change_percentage":"-7.20%"}]`,
		"trending":       `{"top_gainers":[{"ticker_id":"TCS"}]}`,
	}, paper)

	cfg := &config.Config{
		Trading:    config.TradingConfig{Mode: "paper", Exchange: "NSE", Product: "MIS", Variety: "regular"},
		Broker:     config.BrokerConfig{Timeout: 10 * time.Second},
		MarketData: config.MarketDataConfig{BaseURL: "https://stock.indianapi.in", Timeout: 10 * time.Second, Concurrency: 4},
		Logging:    config.LoggingConfig{Level: "info"},
		Agent:      config.AgentConfig{Model: "gpt-4o-mini", MaxRounds: 8},
	}
	cfg.Credentials.Zerodha.APIKey = "kiteapikey123456"
	cfg.Credentials.Zerodha.AccessToken = "secrettoken987654"

	return &App{
		Config:   cfg,
		Logger:   zerolog.Nop(),
		Trading:  svc,
		Analysis: agg,
		Tools:    tools.NewExecutor(svc, agg),
		ready:    true,
	}
}

func execute(app *App, args ...string) (string, error) {
	cmd := newRootCmd(app)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Kind    string          `json:"kind"`
	Message string          `json:"message"`
}

func decode(t *testing.T, out string) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal([]byte(out), &env); err != nil {
		t.Fatalf("not a JSON envelope: %q", out)
	}
	if len(env.Data) > 0 {
		var buf bytes.Buffer
		if err := json.Compact(&buf, env.Data); err != nil {
			t.Fatalf("bad data: %v", err)
		}
		env.Data = buf.Bytes()
	}
	return env
}

func TestTradeCommand(t *testing.T) {
	app := newTestApp(t)

	out, err := execute(app, "trade", "tcs", "buy", "10", "--json")
	if err != nil {
		t.Fatalf("trade failed: %v\n%s", err, out)
	}
	env := decode(t, out)
	var sub models.Submission
	if err := json.Unmarshal(env.Data, &sub); err != nil {
		t.Fatalf("bad submission: %v", err)
	}
	if env.Status != "success" || sub.Symbol != "TCS" || sub.Price != "market" || sub.Quantity != 10 {
		t.Errorf("unexpected submission: %s", out)
	}

	out, err = execute(app, "trade", "inf", "sell", "3", "--price", "1500.50", "--json")
	if err != nil {
		t.Fatalf("limit trade failed: %v\n%s", err, out)
	}
	if env := decode(t, out); !strings.Contains(string(env.Data), `"price":"1500.5"`) {
		t.Errorf("limit price not carried: %s", out)
	}

	out, err = execute(app, "trade", "TCS", "buy", "1", "--exchange", "nse", "--json")
	if err != nil {
		t.Fatalf("lower-case exchange rejected: %v\n%s", err, out)
	}
	if env := decode(t, out); !strings.Contains(string(env.Data), `"exchange":"NSE"`) {
		t.Errorf("exchange not normalized: %s", out)
	}
}

func TestPaperModeWithoutCredentials(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{"KITE_API_KEY", "API_KEY", "KITE_ACCESS_TOKEN", "ACCESS_TOKEN", "INDIANAPI_KEY", "OPENAI_API_KEY"} {
		t.Setenv(k, "")
	}
	t.Setenv("TRADING_MODE", "paper")
	dir := filepath.Join(home, "contextcraft")

	out, err := execute(&App{Logger: zerolog.Nop()}, "--config", dir, "--json", "trade", "TCS", "buy", "1")
	if err != nil {
		t.Fatalf("paper trade failed: %v\n%s", err, out)
	}
	env := decode(t, out)
	var sub models.Submission
	if err := json.Unmarshal(env.Data, &sub); err != nil {
		t.Fatalf("bad submission: %v", err)
	}
	if sub.Symbol != "TCS" || sub.Exchange != models.NSE || !strings.HasPrefix(sub.OrderID, "PAPER_") {
		t.Errorf("unexpected submission: %s", out)
	}

	out, err = execute(&App{Logger: zerolog.Nop()}, "--config", dir, "--json", "trade", "reliance", "sell", "2", "--exchange", "bse")
	if err != nil {
		t.Fatalf("paper trade on BSE failed: %v\n%s", err, out)
	}
	if env := decode(t, out); !strings.Contains(string(env.Data), `"exchange":"BSE"`) {
		t.Errorf("expected a BSE order: %s", out)
	}

	audit, err := os.ReadFile(filepath.Join(dir, "audit", "audit.log"))
	if err != nil {
		t.Fatalf("audit log not under the config directory: %v", err)
	}
	if got := strings.Count(string(audit), `"event_type":"ORDER_PLACED"`); got != 2 {
		t.Errorf("expected 2 audited orders, got %d:\n%s", got, audit)
	}
	if _, err := os.Stat(filepath.Join(home, ".config", "contextcraft", "audit")); !os.IsNotExist(err) {
		t.Errorf("audit log written outside --config: %v", err)
	}
}

func TestTradeCommandFailures(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantKind string
	}{
		{"word quantity", []string{"trade", "TCS", "buy", "ten"}, "InvalidQuantity"},
		{"zero quantity", []string{"trade", "TCS", "buy", "0"}, "InvalidQuantity"},
		{"bad side", []string{"trade", "TCS", "hold", "1"}, "InvalidSide"},
		{"bad price", []string{"trade", "TCS", "buy", "1", "--price", "-5"}, "InvalidPrice"},
		{"unknown symbol", []string{"trade", "ZZZ", "buy", "1"}, "NoInstrumentFound"},
		{"bad side before bad quantity", []string{"trade", "TCS", "sideways", "0"}, "InvalidSide"},
		{"unknown exchange", []string{"trade", "TCS", "buy", "1", "--exchange", "nasdaq"}, "InvalidArgument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)

			out, err := execute(app, append(tt.args, "--json")...)
			if !errors.Is(err, errReported) {
				t.Fatalf("expected reported failure, got %v", err)
			}
			if env := decode(t, out); env.Status != "error" || env.Kind != tt.wantKind {
				t.Errorf("got %s/%s, want error/%s", env.Status, env.Kind, tt.wantKind)
			}

			out, _ = execute(app, tt.args...)
			if !strings.Contains(out, tt.wantKind) {
				t.Errorf("text output should name %s: %q", tt.wantKind, out)
			}
		})
	}
}

func TestOrdersCommandYAML(t *testing.T) {
	app := newTestApp(t)
	for _, sym := range []string{"TCS", "INFY"} {
		if _, err := execute(app, "trade", sym, "buy", "1"); err != nil {
			t.Fatalf("trade %s: %v", sym, err)
		}
	}

	out, err := execute(app, "orders", "--limit", "1", "--yaml")
	if err != nil {
		t.Fatalf("orders failed: %v", err)
	}
	if !strings.Contains(out, "status: success") || !strings.Contains(out, "tradingsymbol: INFY") {
		t.Errorf("unexpected YAML: %s", out)
	}
	if strings.Contains(out, "tradingsymbol: TCS") {
		t.Errorf("limit 1 should keep only the latest order: %s", out)
	}
	if strings.Contains(out, "{") {
		t.Errorf("YAML should be block style: %s", out)
	}
}

func TestAccountCommandsText(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"holdings"}, "No holdings"},
		{[]string{"positions"}, "Net positions"},
		{[]string{"profile"}, "Paper Trader (PAPER)"},
		{[]string{"orders"}, "No orders today"},
		{[]string{"risk"}, "No holdings to analyze"},
	}

	for _, tt := range tests {
		out, err := execute(app, tt.args...)
		if err != nil {
			t.Errorf("%v: %v", tt.args, err)
			continue
		}
		if !strings.Contains(out, tt.want) {
			t.Errorf("%v: output %q missing %q", tt.args, out, tt.want)
		}
	}
}

func TestSignalCommand(t *testing.T) {
	app := newTestApp(t)

	out, err := execute(app, "signal", "xyz", "drop", "5")
	if err != nil {
		t.Fatalf("signal failed: %v", err)
	}
	if !strings.Contains(out, "BUY xyz") || !strings.Contains(out, "-7.20%") {
		t.Errorf("unexpected output: %q", out)
	}

	out, err = execute(app, "signal", "xyz", "drop", "five", "--json")
	if !errors.Is(err, errReported) {
		t.Fatalf("expected failure, got %v", err)
	}
	if env := decode(t, out); env.Kind != "InvalidArgument" {
		t.Errorf("kind = %s, want InvalidArgument", env.Kind)
	}
}

func TestMarketCallCommand(t *testing.T) {
	app := newTestApp(t)

	out, err := execute(app, "market", "call", "trending", "--json")
	if err != nil {
		t.Fatalf("market call failed: %v", err)
	}
	if env := decode(t, out); string(env.Data) != `{"top_gainers":[{"ticker_id":"TCS"}]}` {
		t.Errorf("payload not passed through: %s", env.Data)
	}

	_, err = execute(app, "market", "call", "trending", "limit")
	if !errors.Is(err, errReported) {
		t.Errorf("malformed parameter should fail, got %v", err)
	}

	_, err = execute(app, "market", "call", "missing")
	if !errors.Is(err, errReported) {
		t.Errorf("provider failure should fail, got %v", err)
	}
}

func TestExplainCommandShowsFailedSections(t *testing.T) {
	app := newTestApp(t)

	out, err := execute(app, "explain", "TCS")
	if err != nil {
		t.Fatalf("explain failed: %v", err)
	}
	for _, want := range []string{"EPS Forecast", "Quarterly Results", "52 Week Range", "unavailable (TransportFailure)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestToolsCommands(t *testing.T) {
	app := newTestApp(t)

	out, err := execute(app, "tools", "list")
	if err != nil {
		t.Fatalf("tools list failed: %v", err)
	}
	for _, info := range tools.List() {
		if !strings.Contains(out, info.Name) {
			t.Errorf("tools list missing %s", info.Name)
		}
	}

	out, err = execute(app, "tools", "call", "get_profile")
	if err != nil {
		t.Fatalf("tools call failed: %v", err)
	}
	if !strings.Contains(out, `"user_name": "Paper Trader"`) {
		t.Errorf("unexpected tool output: %s", out)
	}

	if _, err := execute(app, "tools", "call", "trade", `{"symbol":"TCS","side":"buy","quantity":0}`); !errors.Is(err, errReported) {
		t.Errorf("failed tool result should exit non-zero, got %v", err)
	}
	if _, err := execute(app, "tools", "call", "no_such_tool"); !errors.Is(err, errReported) {
		t.Errorf("unknown tool should fail, got %v", err)
	}
}

func TestAskRequiresKey(t *testing.T) {
	app := newTestApp(t)
	_, err := execute(app, "ask", "what", "do", "I", "hold?")
	if !errors.Is(err, apperrors.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestConfigShowMasksCredentials(t *testing.T) {
	app := newTestApp(t)

	for _, format := range []string{"--json", "--yaml", "--debug"} {
		out, err := execute(app, "config", "show", format)
		if err != nil {
			t.Fatalf("config show %s: %v", format, err)
		}
		if strings.Contains(out, "secrettoken987654") || strings.Contains(out, "kiteapikey123456") {
			t.Errorf("credentials leaked with %s: %s", format, out)
		}
		if !strings.Contains(out, "secr*********7654") {
			t.Errorf("masked token missing with %s: %s", format, out)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	app := newTestApp(t)
	if _, err := execute(app, "config", "validate"); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	app.Config.Trading.Mode = "yolo"
	out, err := execute(app, "config", "validate", "--json")
	if !errors.Is(err, errReported) {
		t.Fatalf("expected failure, got %v", err)
	}
	if !strings.Contains(out, `"valid": false`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestVersionYAML(t *testing.T) {
	out, err := execute(&App{Logger: zerolog.Nop()}, "version", "--yaml")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "version: "+Version) {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestStatusCommand(t *testing.T) {
	app := newTestApp(t)

	out, err := execute(app, "status")
	if err != nil {
		t.Fatalf("status failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Paper Trader (PAPER), paper mode") || !strings.Contains(out, "trending endpoint reachable") {
		t.Errorf("unexpected status output: %s", out)
	}

	app.Trading = trading.NewService(trading.ServiceConfig{})
	out, err = execute(app, "status", "--json")
	if !errors.Is(err, errReported) {
		t.Fatalf("missing session should be unhealthy, got %v", err)
	}
	var report struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil || report.Status != "UNHEALTHY" {
		t.Errorf("unexpected report: %s", out)
	}
}
