package runtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestReadyzReportsFailures(t *testing.T) {
	mux := NewBaseMuxWithReady(
		ReadyCheck{Name: "db", Check: func(context.Context) error { return nil }},
		ReadyCheck{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
	)

	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rw.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rw.Code)
	}
	if body := rw.Body.String(); !strings.Contains(body, "redis: connection refused") || strings.Contains(body, "db") {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestHealthzAlwaysOK(t *testing.T) {
	mux := NewBaseMuxWithReady(ReadyCheck{Name: "db", Check: func(context.Context) error { return errors.New("down") }})
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
}

func TestParseLevel(t *testing.T) {
	if got := ParseLevel("WARN"); got.String() != "WARN" {
		t.Fatalf("expected WARN, got %s", got)
	}
	if got := ParseLevel(""); got.String() != "INFO" {
		t.Fatalf("expected INFO default, got %s", got)
	}
}
