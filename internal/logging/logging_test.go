package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), zerolog.New(&buf))

	ctx, id := WithRequestID(ctx)
	if id == "" {
		t.Fatal("expected a request id")
	}
	if RequestID(ctx) != id {
		t.Errorf("RequestID = %q, want %q", RequestID(ctx), id)
	}

	logger := FromContext(ctx)
	LogOrder(logger, "151220000000000", "TCS", "BUY", "success")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["request_id"] != id {
		t.Errorf("request_id = %v, want %s", entry["request_id"], id)
	}
	if entry["order_id"] != "151220000000000" || entry["event"] != "order" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestRequestIDsAreUnique(t *testing.T) {
	_, a := WithRequestID(context.Background())
	_, b := WithRequestID(context.Background())
	if a == b {
		t.Errorf("expected distinct ids, got %s twice", a)
	}
}

func TestFromContextDefaultsToNop(t *testing.T) {
	logger := FromContext(context.Background())
	if logger.GetLevel() != zerolog.Disabled {
		t.Errorf("expected disabled logger, got level %s", logger.GetLevel())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"verbose": zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestLogAPICallFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	LogAPICall(logger, "GET", "/trending", 15*time.Millisecond, errors.New("status 503"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["message"] != "API call failed" || entry["error"] != "status 503" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNewLoggerWithConfigWritesFile(t *testing.T) {
	path := t.TempDir() + "/logs/app.log"
	logger := NewLoggerWithConfig(LogConfig{Level: "info", File: true, FilePath: path, MaxSize: 1})
	logger.Info().Msg("hello")

	if logger.GetLevel() != zerolog.InfoLevel {
		t.Errorf("level = %s, want info", logger.GetLevel())
	}
}
