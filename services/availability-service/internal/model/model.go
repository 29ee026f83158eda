package model

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

const (
	BookingStatusConfirmed  = "confirmed"
	BookingStatusInProgress = "in_progress"
)

// AvailabilityRule is either a weekly pattern (IsRecurring) or a one-time
// override covering StartDate..EndDate inclusive. Dates are UTC midnights that
// stand for calendar days, never instants.
type AvailabilityRule struct {
	ID          string
	ProviderID  string
	IsRecurring bool
	DaysOfWeek  []time.Weekday
	StartDate   time.Time
	EndDate     time.Time
	Window      *Window
}

// Window is a time-of-day range. Start == End is an empty window.
type Window struct {
	Start Clock
	End   Clock
}

func (w Window) Empty() bool { return w.Start == w.End }

func (w Window) Valid() bool {
	return w.Start.Valid() && w.End.Valid() && w.Start <= w.End
}

type Booking struct {
	ID              string
	ProviderID      string
	Date            time.Time
	StartTime       Clock
	DurationMinutes int
	Status          string
}

// Blocks reports whether the booking occupies provider time. An unknown
// (empty) status is treated as blocking so a half-loaded row never frees a slot.
func (b Booking) Blocks() bool {
	switch b.Status {
	case BookingStatusConfirmed, BookingStatusInProgress, "":
		return true
	default:
		return false
	}
}

type UnavailableDate struct {
	ID         string
	ProviderID string
	Date       time.Time
	Reason     string
}

type Slot struct {
	Date            time.Time
	Time            Clock
	DurationMinutes int
}

// ParseDate parses YYYY-MM-DD as a UTC midnight.
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return d, nil
}

// DateOf drops the clock part of t, keeping its wall-clock calendar day.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
