package result

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	apperrors "contextcraft/internal/errors"
)

func TestSuccessJSON(t *testing.T) {
	r := Success(map[string]string{"order_id": "151220000000000"})

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"status":"success","data":{"order_id":"151220000000000"}}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
	if !r.OK() || r.Status() != StatusSuccess || r.Kind() != "" {
		t.Errorf("unexpected tag: ok=%v status=%s kind=%s", r.OK(), r.Status(), r.Kind())
	}
}

func TestFailJSON(t *testing.T) {
	err := apperrors.NewValidationError(apperrors.KindInvalidPrice, "price", "abc", "not a number")
	r := Fail[string](err)

	data, mErr := json.Marshal(r)
	if mErr != nil {
		t.Fatalf("Marshal failed: %v", mErr)
	}

	var got map[string]string
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got["status"] != "error" || got["kind"] != "InvalidPrice" {
		t.Errorf("unexpected envelope: %v", got)
	}
	if !strings.Contains(got["message"], "abc") {
		t.Errorf("message should mention the raw value, got %q", got["message"])
	}
	if _, present := got["data"]; present {
		t.Error("error envelope must not carry data")
	}

	if _, ok := r.Value(); ok {
		t.Error("Value() should report absent on failure")
	}
}

func TestFailNil(t *testing.T) {
	r := Fail[int](nil)
	if r.OK() {
		t.Fatal("Fail(nil) must not be a success")
	}
	if r.Kind() != apperrors.KindTransportFailure {
		t.Errorf("Kind() = %s", r.Kind())
	}
}

func TestFrom(t *testing.T) {
	if v, ok := From("xx", nil).Value(); !ok || v != "xx" {
		t.Errorf("From success = %q, %v", v, ok)
	}

	failed := From(0, errors.New("down"))
	if failed.OK() {
		t.Fatal("From must keep the failure")
	}
	if failed.Failure().Message != "down" {
		t.Errorf("Message = %q", failed.Failure().Message)
	}
}
