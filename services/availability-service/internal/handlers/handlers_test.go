package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fait-coop/scheduling/services/availability-service/internal/availability"
	"github.com/fait-coop/scheduling/services/availability-service/internal/model"
	"github.com/goccy/go-json"
)

type fakeService struct {
	slots     []model.Slot
	available bool
	err       error
	lastQuery availability.Query
	lastCheck availability.CheckQuery
}

func (f *fakeService) AvailableSlots(_ context.Context, q availability.Query) ([]model.Slot, error) {
	f.lastQuery = q
	return f.slots, f.err
}

func (f *fakeService) CheckAvailability(_ context.Context, q availability.CheckQuery) (bool, error) {
	f.lastCheck = q
	return f.available, f.err
}

func newTestMux(svc SlotService) *http.ServeMux {
	mux := http.NewServeMux()
	NewAvailabilityHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(mux)
	return mux
}

func get(t *testing.T, mux http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestSlots_OK(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	svc := &fakeService{slots: []model.Slot{
		{Date: day, Time: model.NewClock(9, 0), DurationMinutes: 30},
		{Date: day, Time: model.NewClock(10, 30), DurationMinutes: 30},
	}}
	rec := get(t, newTestMux(svc), "/available-slots?serviceAgentId=agent-1&startDate=2026-03-02&endDate=2026-03-02")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	want := `{"data":[{"date":"2026-03-02","time":"09:00","duration":30},{"date":"2026-03-02","time":"10:30","duration":30}]}`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Fatalf("unexpected body:\n got %s\nwant %s", got, want)
	}
	if svc.lastQuery.ProviderID != "agent-1" || svc.lastQuery.EndDate == nil || !svc.lastQuery.EndDate.Equal(day) {
		t.Fatalf("unexpected query %+v", svc.lastQuery)
	}
}

func TestSlots_EmptyIsDataArray(t *testing.T) {
	rec := get(t, newTestMux(&fakeService{}), "/available-slots?serviceAgentId=agent-1&startDate=2026-03-02")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"data":[]}` {
		t.Fatalf("expected empty data array, got %s", got)
	}
}

func TestSlots_ContractorIDSynonym(t *testing.T) {
	svc := &fakeService{}
	rec := get(t, newTestMux(svc), "/available-slots?contractorId=legacy-7&startDate=2026-03-02&duration=45")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastQuery.ProviderID != "legacy-7" || svc.lastQuery.EndDate != nil || svc.lastQuery.SlotMinutes != 45 {
		t.Fatalf("unexpected query %+v", svc.lastQuery)
	}
}

func TestSlots_BadRequests(t *testing.T) {
	cases := map[string]string{
		"missing provider":     "/available-slots?startDate=2026-03-02",
		"missing start":        "/available-slots?serviceAgentId=a",
		"bad start":            "/available-slots?serviceAgentId=a&startDate=03/02/2026",
		"impossible date":      "/available-slots?serviceAgentId=a&startDate=2026-02-30",
		"bad end":              "/available-slots?serviceAgentId=a&startDate=2026-03-02&endDate=tomorrow",
		"conflicting synonyms": "/available-slots?serviceAgentId=a&contractorId=b&startDate=2026-03-02",
		"duration too short":   "/available-slots?serviceAgentId=a&startDate=2026-03-02&duration=1",
		"duration not number":  "/available-slots?serviceAgentId=a&startDate=2026-03-02&duration=half",
		"range too long":       "/available-slots?serviceAgentId=a&startDate=2026-03-02&endDate=2026-05-31",
	}
	for name, target := range cases {
		svc := &fakeService{}
		rec := get(t, newTestMux(svc), target)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
		var body struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error == "" {
			t.Fatalf("%s: expected error body, got %s", name, rec.Body.String())
		}
		if svc.lastQuery.ProviderID != "" {
			t.Fatalf("%s: service must not be called", name)
		}
	}
}

func TestSlots_RangeLimitIsNamed(t *testing.T) {
	svc := &fakeService{}
	rec := get(t, newTestMux(svc), "/available-slots?serviceAgentId=a&startDate=2026-03-02&endDate=2026-05-31")
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "at most 62 days") {
		t.Fatalf("expected 400 naming the range limit, got %d %s", rec.Code, rec.Body.String())
	}

	// Exactly the limit is accepted.
	rec = get(t, newTestMux(svc), "/available-slots?serviceAgentId=a&startDate=2026-03-02&endDate=2026-05-03")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 at the range limit, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestSlots_ServiceErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: end date must not be before start date", availability.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: fetch bookings: timeout", availability.ErrDataAccess), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := get(t, newTestMux(&fakeService{err: tc.err}), "/available-slots?serviceAgentId=a&startDate=2026-03-02&endDate=2026-03-01")
		if rec.Code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
		if strings.Contains(rec.Body.String(), "timeout") {
			t.Fatalf("data access details must not leak: %s", rec.Body.String())
		}
	}
}

func TestSlots_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestMux(&fakeService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/available-slots", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestCheck(t *testing.T) {
	svc := &fakeService{available: true}
	rec := get(t, newTestMux(svc), "/check-availability?serviceAgentId=agent-1&date=2026-03-02&startTime=09:00&endTime=10:30:00")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"data":{"available":true}}` {
		t.Fatalf("unexpected body %s", got)
	}
	if svc.lastCheck.Start != model.NewClock(9, 0) || svc.lastCheck.End != model.NewClock(10, 30) {
		t.Fatalf("unexpected check query %+v", svc.lastCheck)
	}

	rec = get(t, newTestMux(svc), "/check-availability?serviceAgentId=agent-1&date=2026-03-02&startTime=9am&endTime=10:00")
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "startTime") {
		t.Fatalf("expected 400 naming startTime, got %d %s", rec.Code, rec.Body.String())
	}
}
