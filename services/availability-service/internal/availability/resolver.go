package availability

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/fait-coop/scheduling/services/availability-service/internal/model"
)

const (
	DefaultSlotMinutes = 30
	DefaultRangeDays   = 14
	MaxRangeDays       = 62
)

// Query asks for the free slots of one provider. A nil EndDate means
// StartDate + DefaultRangeDays.
type Query struct {
	ProviderID  string
	StartDate   time.Time
	EndDate     *time.Time
	SlotMinutes int
}

// Bounds is a validated Query with every default applied.
type Bounds struct {
	ProviderID  string
	Start       time.Time
	End         time.Time
	SlotMinutes int
}

// Inputs are the provider's records, already filtered to that provider.
type Inputs struct {
	Recurring   []model.AvailabilityRule
	OneTime     []model.AvailabilityRule
	Bookings    []model.Booking
	Unavailable []model.UnavailableDate
}

func (q Query) Bounds() (Bounds, error) {
	provider := strings.TrimSpace(q.ProviderID)
	if provider == "" {
		return Bounds{}, fmt.Errorf("%w: provider id is required", ErrInvalidInput)
	}
	if q.StartDate.IsZero() {
		return Bounds{}, fmt.Errorf("%w: start date is required", ErrInvalidInput)
	}
	start := model.DateOf(q.StartDate)
	end := start.AddDate(0, 0, DefaultRangeDays)
	if q.EndDate != nil {
		if q.EndDate.IsZero() {
			return Bounds{}, fmt.Errorf("%w: end date is invalid", ErrInvalidInput)
		}
		end = model.DateOf(*q.EndDate)
	}
	if end.Before(start) {
		return Bounds{}, fmt.Errorf("%w: end date must not be before start date", ErrInvalidInput)
	}
	if dayNumber(end)-dayNumber(start) > MaxRangeDays {
		return Bounds{}, fmt.Errorf("%w: date range exceeds %d days", ErrInvalidInput, MaxRangeDays)
	}

	size := q.SlotMinutes
	if size <= 0 {
		size = DefaultSlotMinutes
	}
	if size > model.MinutesPerDay {
		return Bounds{}, fmt.Errorf("%w: slot length exceeds one day", ErrInvalidInput)
	}
	return Bounds{ProviderID: provider, Start: start, End: end, SlotMinutes: size}, nil
}

// Resolver turns availability rules and bookings into bookable slots. It
// performs no I/O and never mutates its inputs; malformed records are logged
// and skipped.
type Resolver struct {
	logger *slog.Logger
}

func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{logger: logger}
}

// Resolve returns the free slots ordered by date then time, with no
// duplicate (date, time) pairs. No availability is an empty slice, not an error.
func (r *Resolver) Resolve(q Query, in Inputs) ([]model.Slot, error) {
	b, err := q.Bounds()
	if err != nil {
		return nil, err
	}
	p := r.plan(b.ProviderID, in, dayNumber(b.Start), dayNumber(b.End))

	out := make([]model.Slot, 0)
	for d := b.Start; !d.After(b.End); d = d.AddDate(0, 0, 1) {
		windows := p.windowsFor(d)
		if len(windows) == 0 {
			continue
		}
		busy := p.busy[dayNumber(d)]

		var day []model.Clock
		for _, w := range windows {
			day = append(day, SlotStarts(w, b.SlotMinutes, busy)...)
		}
		// Overlapping windows yield the same start more than once.
		slices.Sort(day)
		day = slices.Compact(day)

		for _, t := range day {
			out = append(out, model.Slot{Date: d, Time: t, DurationMinutes: b.SlotMinutes})
		}
	}
	return out, nil
}

type datedWindow struct {
	from   int64
	to     int64
	window model.Window
}

// dayPlan indexes the sanitized inputs by weekday and by day number.
type dayPlan struct {
	first    int64
	last     int64
	weekly   [7][]model.Window
	oneTime  []datedWindow
	busy     map[int64][]Interval
	blackout map[int64]struct{}
}

// windowsFor applies the override order: blackout, then one-time rules, then
// the weekly pattern. A matching one-time rule replaces the weekly pattern
// even when its own window is empty.
func (p *dayPlan) windowsFor(d time.Time) []model.Window {
	day := dayNumber(d)
	if _, off := p.blackout[day]; off {
		return nil
	}

	matched := false
	var override []model.Window
	for _, ot := range p.oneTime {
		if day < ot.from || day > ot.to {
			continue
		}
		matched = true
		if !ot.window.Empty() {
			override = append(override, ot.window)
		}
	}
	if matched {
		return override
	}
	return p.weekly[d.Weekday()]
}

// plan only records busy time for days in [first, last].
func (r *Resolver) plan(providerID string, in Inputs, first, last int64) *dayPlan {
	p := &dayPlan{
		first:    first,
		last:     last,
		busy:     make(map[int64][]Interval),
		blackout: make(map[int64]struct{}),
	}

	for _, rule := range in.Recurring {
		reason := checkWindow(rule.Window)
		if reason == "" && rule.Window.Empty() {
			reason = "empty window"
		}
		if reason != "" {
			r.skipRule(providerID, rule, reason)
			continue
		}
		if len(rule.DaysOfWeek) == 0 {
			r.skipRule(providerID, rule, "no weekdays")
			continue
		}
		for _, wd := range rule.DaysOfWeek {
			if wd < time.Sunday || wd > time.Saturday {
				r.skipRule(providerID, rule, fmt.Sprintf("weekday %d out of range", wd))
				continue
			}
			p.weekly[wd] = append(p.weekly[wd], *rule.Window)
		}
	}

	for _, rule := range in.OneTime {
		if reason := checkWindow(rule.Window); reason != "" {
			r.skipRule(providerID, rule, reason)
			continue
		}
		if rule.StartDate.IsZero() {
			r.skipRule(providerID, rule, "missing start date")
			continue
		}
		from := dayNumber(model.DateOf(rule.StartDate))
		to := from
		if !rule.EndDate.IsZero() {
			to = dayNumber(model.DateOf(rule.EndDate))
		}
		if to < from {
			r.skipRule(providerID, rule, "end date before start date")
			continue
		}
		p.oneTime = append(p.oneTime, datedWindow{from: from, to: to, window: *rule.Window})
	}

	for _, bk := range in.Bookings {
		if !bk.Blocks() {
			continue
		}
		reason := ""
		switch {
		case bk.Date.IsZero():
			reason = "missing date"
		case bk.DurationMinutes <= 0:
			reason = "non-positive duration"
		case !bk.StartTime.Valid() || bk.StartTime == model.MinutesPerDay:
			reason = "start time out of range"
		}
		if reason != "" {
			r.logger.Warn("skipping malformed booking",
				"provider_id", providerID,
				"booking_id", bk.ID,
				"reason", reason,
			)
			continue
		}

		p.block(dayNumber(model.DateOf(bk.Date)), bk.StartTime, bk.DurationMinutes)
	}

	for _, u := range in.Unavailable {
		if u.Date.IsZero() {
			r.logger.Warn("skipping malformed unavailable date", "provider_id", providerID, "id", u.ID)
			continue
		}
		p.blackout[dayNumber(model.DateOf(u.Date))] = struct{}{}
	}
	return p
}

// block marks a booking as busy. Bookings running past midnight also block the
// following days, clipped to the planned range.
func (p *dayPlan) block(day int64, start model.Clock, minutes int) {
	end := int64(start) + int64(minutes)
	if day < p.first {
		skipped := (p.first - day) * model.MinutesPerDay
		if end <= skipped {
			return
		}
		day, start, end = p.first, 0, end-skipped
	}
	for ; day <= p.last; day++ {
		p.busy[day] = append(p.busy[day], Interval{Start: start, End: model.Clock(min(end, model.MinutesPerDay))})
		if end <= model.MinutesPerDay {
			return
		}
		start, end = 0, end-model.MinutesPerDay
	}
}

func checkWindow(w *model.Window) string {
	switch {
	case w == nil:
		return "missing window"
	case !w.Start.Valid() || !w.End.Valid():
		return "window out of range"
	case w.Start > w.End:
		return "window ends before it starts"
	}
	return ""
}

func (r *Resolver) skipRule(providerID string, rule model.AvailabilityRule, reason string) {
	r.logger.Warn("skipping malformed availability rule",
		"provider_id", providerID,
		"rule_id", rule.ID,
		"recurring", rule.IsRecurring,
		"reason", reason,
	)
}

// dayNumber counts days since the Unix epoch for a UTC midnight.
func dayNumber(d time.Time) int64 {
	return d.Unix() / 86400
}
