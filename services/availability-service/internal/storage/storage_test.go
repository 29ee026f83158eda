package storage

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/fait-coop/scheduling/services/availability-service/internal/model"
	"github.com/jackc/pgx/v5/pgtype"
)

func TestPickProviderColumn(t *testing.T) {
	cases := []struct {
		cols    []string
		want    string
		wantErr bool
	}{
		{[]string{"contractor_id", "service_agent_id"}, ColumnServiceAgentID, false},
		{[]string{"contractor_id"}, ColumnContractorID, false},
		{nil, "", true},
	}
	for _, tc := range cases {
		got, err := pickProviderColumn(tc.cols)
		if (err != nil) != tc.wantErr {
			t.Fatalf("%v: unexpected error state: %v", tc.cols, err)
		}
		if got != tc.want {
			t.Fatalf("%v: expected %q, got %q", tc.cols, tc.want, got)
		}
	}
}

func TestProviderColumnOverride(t *testing.T) {
	if _, err := NewProviderColumn(nil, "customer_id; DROP TABLE bookings"); err == nil {
		t.Fatal("expected error for unknown override")
	}
	c, err := NewProviderColumn(nil, ColumnContractorID)
	if err != nil {
		t.Fatalf("NewProviderColumn failed: %v", err)
	}
	c.probe = func(context.Context) ([]string, error) {
		t.Fatal("override must not probe")
		return nil, nil
	}
	if got, _ := c.Resolve(context.Background()); got != ColumnContractorID {
		t.Fatalf("expected override, got %q", got)
	}
}

func TestProviderColumnProbeCachedOnSuccess(t *testing.T) {
	calls := 0
	fail := true
	c := &ProviderColumn{probe: func(context.Context) ([]string, error) {
		calls++
		if fail {
			return nil, errors.New("db down")
		}
		return []string{ColumnServiceAgentID}, nil
	}}

	if _, err := c.Resolve(context.Background()); err == nil {
		t.Fatal("expected probe error")
	}
	fail = false
	for i := 0; i < 3; i++ {
		got, err := c.Resolve(context.Background())
		if err != nil || got != ColumnServiceAgentID {
			t.Fatalf("expected %q, got %q err=%v", ColumnServiceAgentID, got, err)
		}
	}
	if calls != 2 {
		t.Fatalf("expected 2 probes (one failed, one cached), got %d", calls)
	}
}

func TestClockFromTime(t *testing.T) {
	ninethirty := pgtype.Time{Microseconds: int64((9*time.Hour + 30*time.Minute) / time.Microsecond), Valid: true}
	if c, ok := clockFromTime(ninethirty); !ok || c != model.NewClock(9, 30) {
		t.Fatalf("expected 09:30, got %v ok=%v", c, ok)
	}
	midnight := pgtype.Time{Microseconds: int64(24 * time.Hour / time.Microsecond), Valid: true}
	if c, _ := clockFromTime(midnight); c != model.MinutesPerDay {
		t.Fatalf("expected 24:00, got %v", c)
	}
	if _, ok := clockFromTime(pgtype.Time{}); ok {
		t.Fatal("NULL time must not convert")
	}
	if w := windowFrom(ninethirty, pgtype.Time{}); w != nil {
		t.Fatalf("expected nil window for NULL bound, got %v", w)
	}
}

func TestDateFrom(t *testing.T) {
	d := pgtype.Date{Time: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Valid: true}
	if got := model.FormatDate(dateFrom(d)); got != "2026-03-02" {
		t.Fatalf("expected 2026-03-02, got %s", got)
	}
	if !dateFrom(pgtype.Date{}).IsZero() {
		t.Fatal("NULL date must be zero")
	}
	if !dateFrom(pgtype.Date{InfinityModifier: pgtype.Infinity, Valid: true}).IsZero() {
		t.Fatal("infinite date must be zero")
	}
}

func TestDurationMinutes(t *testing.T) {
	cases := []struct {
		value float64
		valid bool
		unit  string
		want  int
	}{
		{45, true, "minutes", 45},
		{1.5, true, "hours", 90},
		{2, true, "Hours ", 120},
		{1, true, "days", 1440},
		{30, true, "", 30},
		{3, true, "fortnights", 0},
		{-1, true, "hours", 0},
		{0, false, "hours", 0},
	}
	for _, tc := range cases {
		got := durationMinutes(pgtype.Float8{Float64: tc.value, Valid: tc.valid}, pgtype.Text{String: tc.unit, Valid: true})
		if got != tc.want {
			t.Fatalf("%v %q: expected %d, got %d", tc.value, tc.unit, tc.want, got)
		}
	}
}

func TestBookingDurationFallsBackAndWarns(t *testing.T) {
	var buf bytes.Buffer
	repo := NewRepository(nil, nil, slog.New(slog.NewTextHandler(&buf, nil)))
	bk := model.Booking{ID: "bk-7", ProviderID: "agent-1"}

	if got := repo.bookingDuration(bk, pgtype.Float8{Float64: 2, Valid: true}, pgtype.Text{String: "hours", Valid: true}); got != 120 {
		t.Fatalf("expected 120, got %d", got)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no warning for a usable duration, got %s", buf.String())
	}

	if got := repo.bookingDuration(bk, pgtype.Float8{Float64: 3, Valid: true}, pgtype.Text{String: "fortnights", Valid: true}); got != FallbackBookingMinutes {
		t.Fatalf("expected fallback %d, got %d", FallbackBookingMinutes, got)
	}
	if got := repo.bookingDuration(bk, pgtype.Float8{}, pgtype.Text{}); got != FallbackBookingMinutes {
		t.Fatalf("expected fallback %d for NULL duration, got %d", FallbackBookingMinutes, got)
	}
	logs := buf.String()
	for _, needle := range []string{"booking_id=bk-7", "unit=fortnights", "duration_null=true"} {
		if !strings.Contains(logs, needle) {
			t.Fatalf("expected log to mention %q, got:\n%s", needle, logs)
		}
	}
}
