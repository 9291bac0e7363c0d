package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json, got %s", ct)
	}
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", rec.Code)
	}
	if resp := decode(t, rec); resp.Status != StatusHealthy || resp.Checks != nil {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestReadyAllHealthy(t *testing.T) {
	ok := func(context.Context) error { return nil }
	rec := httptest.NewRecorder()
	Ready(time.Second, Check{"redis", ok}, Check{"minio", ok})(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", rec.Code)
	}
	resp := decode(t, rec)
	if resp.Status != StatusHealthy || resp.Checks["redis"] != "ok" || resp.Checks["minio"] != "ok" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestReadyReportsFailure(t *testing.T) {
	checks := []Check{
		{"firestore", func(context.Context) error { return nil }},
		{"redis", func(context.Context) error { return errors.New("connection refused") }},
	}
	rec := httptest.NewRecorder()
	Ready(time.Second, checks...)(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	resp := decode(t, rec)
	if resp.Status != StatusUnavailable || resp.Checks["redis"] != StatusUnavailable || resp.Checks["firestore"] != "ok" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestReadyAppliesTimeout(t *testing.T) {
	slow := Check{"slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	rec := httptest.NewRecorder()
	start := time.Now()
	Ready(20*time.Millisecond, slow)(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if time.Since(start) > time.Second {
		t.Fatal("expected the probe to be cut off by the timeout")
	}
}

func TestReadyWithoutChecks(t *testing.T) {
	rec := httptest.NewRecorder()
	Ready(time.Second)(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", rec.Code)
	}
}
