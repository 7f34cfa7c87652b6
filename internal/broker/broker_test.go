package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	apperrors "contextcraft/internal/errors"
	"contextcraft/internal/models"
)

func TestWithDeadline_ReturnsResult(t *testing.T) {
	v, err := withDeadline(context.Background(), time.Second, "op", func() (int, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Errorf("got %d, want 42", v)
	}
}

func TestWithDeadline_Timeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	_, err := withDeadline(context.Background(), 20*time.Millisecond, "place order", func() (string, error) {
		<-release
		return "late", nil
	})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if apperrors.KindOf(err) != apperrors.KindTimeout {
		t.Errorf("KindOf = %s, want Timeout", apperrors.KindOf(err))
	}
	if time.Since(start) > time.Second {
		t.Errorf("withDeadline did not release the caller promptly")
	}
}

func TestWithDeadline_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := withDeadline(context.Background(), time.Second, "op", func() (int, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestClassifyKiteError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperrors.Kind
	}{
		{"input", kiteconnect.Error{ErrorType: kiteconnect.InputError, Message: "Invalid `price`."}, apperrors.KindBrokerRejected},
		{"order", kiteconnect.Error{ErrorType: kiteconnect.OrderError, Message: "Insufficient funds"}, apperrors.KindBrokerRejected},
		{"token", kiteconnect.Error{ErrorType: kiteconnect.TokenError, Message: "Incorrect api_key or access_token."}, apperrors.KindTransportFailure},
		{"permission", kiteconnect.Error{ErrorType: kiteconnect.PermissionError, Message: "Insufficient permission for that call."}, apperrors.KindTransportFailure},
		{"data", kiteconnect.Error{ErrorType: kiteconnect.DataError, Message: "Couldn't parse the JSON response"}, apperrors.KindTransportFailure},
		{"network", kiteconnect.Error{ErrorType: kiteconnect.NetworkError, Message: "connection refused"}, apperrors.KindTransportFailure},
		{"network timeout", kiteconnect.Error{ErrorType: kiteconnect.NetworkError, Message: "Client.Timeout exceeded while awaiting headers"}, apperrors.KindTimeout},
		{"plain", errors.New("socket closed"), apperrors.KindTransportFailure},
		{"already classified", apperrors.NewBrokerError(apperrors.KindTimeout, "Timeout", "x", nil), apperrors.KindTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyKiteError("op", tt.err)
			if apperrors.KindOf(got) != tt.want {
				t.Errorf("KindOf = %s, want %s (%v)", apperrors.KindOf(got), tt.want, got)
			}
		})
	}
}

func TestNewZerodhaSession_RequiresCredentials(t *testing.T) {
	if _, err := NewZerodhaSession(ZerodhaConfig{AccessToken: "t"}); err == nil {
		t.Error("expected error without api key")
	}
	if _, err := NewZerodhaSession(ZerodhaConfig{APIKey: "k"}); err == nil {
		t.Error("expected error without access token")
	}
	if _, err := NewZerodhaSession(ZerodhaConfig{APIKey: "k", AccessToken: "t"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPaperSession_PlaceOrderRecordsOrder(t *testing.T) {
	paper := NewPaperSession(PaperSessionConfig{})
	ctx := context.Background()

	limit := models.OrderIntent{
		Exchange: models.NSE,
		Symbol:   "INFY",
		Side:     models.OrderSideSell,
		Quantity: 3,
		Pricing:  models.LimitPricing{Price: decimal.RequireFromString("199.5")},
		Product:  models.ProductCNC,
		Variety:  models.VarietyRegular,
	}
	market := limit
	market.Symbol = "TCS"
	market.Pricing = models.MarketPricing{}

	id1, err := paper.PlaceOrder(ctx, limit)
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	id2, err := paper.PlaceOrder(ctx, market)
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	if id1 == "" || id1 == id2 {
		t.Errorf("order IDs should be unique and non-empty: %q %q", id1, id2)
	}

	orders, _ := paper.Orders(ctx)
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	if orders[0].Type != models.OrderTypeLimit || orders[0].Price != 199.5 {
		t.Errorf("unexpected first order: %+v", orders[0])
	}
	if orders[1].Type != models.OrderTypeMarket || orders[1].Price != 0 {
		t.Errorf("unexpected second order: %+v", orders[1])
	}
}

func TestPaperSession_InstrumentsFilteredByExchange(t *testing.T) {
	paper := NewPaperSession(PaperSessionConfig{Instruments: []models.Instrument{
		{Token: 1, Symbol: "TCS", Exchange: models.NSE},
		{Token: 2, Symbol: "TCS", Exchange: models.BSE},
		{Token: 3, Symbol: "INFY", Exchange: models.NSE},
	}})

	got, err := paper.Instruments(context.Background(), models.NSE)
	if err != nil {
		t.Fatalf("Instruments failed: %v", err)
	}
	if len(got) != 2 || got[0].Token != 1 || got[1].Token != 3 {
		t.Errorf("unexpected instruments: %+v", got)
	}

	profile, _ := paper.Profile(context.Background())
	if profile.UserID != "PAPER" {
		t.Errorf("unexpected profile: %+v", profile)
	}
}
