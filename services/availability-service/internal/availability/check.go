package availability

import (
	"fmt"
	"strings"
	"time"

	"github.com/fait-coop/scheduling/services/availability-service/internal/model"
)

// CheckQuery asks whether [Start, End) on Date is bookable.
type CheckQuery struct {
	ProviderID string
	Date       time.Time
	Start      model.Clock
	End        model.Clock
}

func (q CheckQuery) validate() (CheckQuery, error) {
	q.ProviderID = strings.TrimSpace(q.ProviderID)
	switch {
	case q.ProviderID == "":
		return q, fmt.Errorf("%w: provider id is required", ErrInvalidInput)
	case q.Date.IsZero():
		return q, fmt.Errorf("%w: date is required", ErrInvalidInput)
	case !q.Start.Valid() || !q.End.Valid():
		return q, fmt.Errorf("%w: time out of range", ErrInvalidInput)
	case q.End <= q.Start:
		return q, fmt.Errorf("%w: end time must be after start time", ErrInvalidInput)
	}
	q.Date = model.DateOf(q.Date)
	return q, nil
}

// IsAvailable reports whether the requested interval sits inside a single
// applicable window and overlaps no blocking booking. Window selection follows
// Resolve: blackout days, then one-time overrides, then the weekly pattern.
func (r *Resolver) IsAvailable(q CheckQuery, in Inputs) (bool, error) {
	q, err := q.validate()
	if err != nil {
		return false, err
	}
	day := dayNumber(q.Date)
	p := r.plan(q.ProviderID, in, day, day)

	want := Interval{Start: q.Start, End: q.End}
	if overlapsAny(want, p.busy[day]) {
		return false, nil
	}
	for _, w := range p.windowsFor(q.Date) {
		if w.Start <= q.Start && q.End <= w.End {
			return true, nil
		}
	}
	return false, nil
}
