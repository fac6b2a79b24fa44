package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLivenessHandler(t *testing.T) {
	h := NewHealthChecker(nil)

	rec := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("liveness status = %d", rec.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != healthStatusOK {
		t.Errorf("status = %q", resp.Status)
	}
}

func TestReadinessHandler(t *testing.T) {
	sc, err := NewServerContext(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	h := NewHealthChecker(sc)

	rec := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("ready server should report 200, got %d", rec.Code)
	}

	h.SetReady(false)
	rec = httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("not-ready server should report 503, got %d", rec.Code)
	}

	h.SetReady(true)
	if err := sc.Shutdown(); err != nil {
		t.Fatal(err)
	}
	rec = httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("shutting-down server should report 503, got %d", rec.Code)
	}
}

func TestServerContextShutdownIdempotent(t *testing.T) {
	sc, err := NewServerContext(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}

	if !sc.ReadOnly() {
		t.Error("expected a read-only context")
	}
	if sc.IsShutdown() {
		t.Error("fresh context should not be shut down")
	}

	if err := sc.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := sc.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if !sc.IsShutdown() {
		t.Error("context should be shut down")
	}

	select {
	case <-sc.Context().Done():
	default:
		t.Error("context should be cancelled after shutdown")
	}
}
