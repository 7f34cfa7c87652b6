package security

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "contextcraft/internal/errors"
)

func TestCheckPermission(t *testing.T) {
	ctx := context.Background()

	ac := NewAccessController(false, nil)
	if err := ac.CheckPermission(ctx, OpPlaceOrder); err != nil {
		t.Errorf("writes should be allowed when not read-only: %v", err)
	}

	ac = NewAccessController(true, nil)
	if err := ac.CheckPermission(ctx, OpRead); err != nil {
		t.Errorf("reads should always be allowed: %v", err)
	}

	err := ac.CheckPermission(ctx, OpPlaceOrder)
	var roErr *ReadOnlyError
	if !errors.As(err, &roErr) {
		t.Fatalf("expected ReadOnlyError, got %v", err)
	}
	if apperrors.KindOf(err) != apperrors.KindOperationBlocked {
		t.Errorf("KindOf = %s, want OperationBlocked", apperrors.KindOf(err))
	}
	if !errors.Is(err, apperrors.ErrReadOnlyMode) {
		t.Error("expected ErrReadOnlyMode in chain")
	}
}

func TestNilAccessControllerAllows(t *testing.T) {
	var ac *AccessController
	if err := ac.CheckPermission(context.Background(), OpPlaceOrder); err != nil {
		t.Errorf("nil controller should allow: %v", err)
	}
}

func TestAuditLoggerRecordsViolation(t *testing.T) {
	dir := t.TempDir()
	audit, err := NewAuditLogger(AuditConfig{LogDir: dir, MaxSize: 1})
	if err != nil {
		t.Fatalf("NewAuditLogger failed: %v", err)
	}

	ac := NewAccessController(true, audit)
	_ = ac.CheckPermission(context.Background(), OpPlaceOrder)
	if err := audit.LogOrderPlaced(context.Background(), "151220000000000", "TCS", "BUY", 1, "market", true, ""); err != nil {
		t.Fatalf("LogOrderPlaced failed: %v", err)
	}
	if err := audit.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "audit.log"))
	if err != nil {
		t.Fatalf("open audit log: %v", err)
	}
	defer f.Close()

	var events []AuditEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("bad audit line: %v", err)
		}
		events = append(events, ev)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].EventType != AuditReadOnlyViolation || events[0].Action != string(OpPlaceOrder) {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[1].EventType != AuditOrderPlaced || events[1].OrderID != "151220000000000" {
		t.Errorf("unexpected second event: %+v", events[1])
	}
	if events[0].SessionID == "" || events[0].SessionID != events[1].SessionID {
		t.Error("events should share a non-empty session id")
	}
}

func TestMaskCredential(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"abc", "***"},
		{"abcdef", "ab****"},
		{"abcd1234wxyz", "abcd****wxyz"},
	}
	for _, tt := range tests {
		if got := MaskCredential(tt.in); got != tt.want {
			t.Errorf("MaskCredential(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
