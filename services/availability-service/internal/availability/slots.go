package availability

import "github.com/fait-coop/scheduling/services/availability-service/internal/model"

// Interval is a half-open [Start, End) range of minutes since midnight.
// End may exceed model.MinutesPerDay for bookings running past midnight.
type Interval struct {
	Start model.Clock
	End   model.Clock
}

// Overlaps uses half-open semantics: touching intervals do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}

// SlotStarts returns the start of every slot of length size that fits
// entirely inside window and does not overlap any busy interval. Slots are
// laid end to end from window.Start; a trailing partial slot is dropped.
func SlotStarts(window model.Window, size int, busy []Interval) []model.Clock {
	if size <= 0 || !window.Valid() || window.Empty() {
		return nil
	}

	var slots []model.Clock
	for t := window.Start; t.Add(size) <= window.End; t = t.Add(size) {
		if !overlapsAny(Interval{Start: t, End: t.Add(size)}, busy) {
			slots = append(slots, t)
		}
	}
	return slots
}

func overlapsAny(slot Interval, busy []Interval) bool {
	for _, b := range busy {
		if slot.Overlaps(b) {
			return true
		}
	}
	return false
}
