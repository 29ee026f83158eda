package storage

import (
	"strings"
	"time"

	"github.com/fait-coop/scheduling/services/availability-service/internal/model"
	"github.com/jackc/pgx/v5/pgtype"
)

// clockFromTime converts a Postgres time (microseconds since midnight).
// NULL yields ok=false.
func clockFromTime(t pgtype.Time) (model.Clock, bool) {
	if !t.Valid {
		return 0, false
	}
	return model.Clock(t.Microseconds / int64(time.Minute/time.Microsecond)), true
}

// windowFrom builds a rule window; a NULL bound leaves the window nil so the
// resolver reports the rule as malformed.
func windowFrom(start, end pgtype.Time) *model.Window {
	s, okS := clockFromTime(start)
	e, okE := clockFromTime(end)
	if !okS || !okE {
		return nil
	}
	return &model.Window{Start: s, End: e}
}

func dateFrom(d pgtype.Date) time.Time {
	if !d.Valid || d.InfinityModifier != pgtype.Finite {
		return time.Time{}
	}
	return model.DateOf(d.Time)
}

// durationMinutes converts a service package duration. Unknown units and
// NULLs give 0.
func durationMinutes(value pgtype.Float8, unit pgtype.Text) int {
	if !value.Valid || value.Float64 <= 0 {
		return 0
	}
	var perUnit float64
	switch strings.ToLower(strings.TrimSpace(unit.String)) {
	case "minute", "minutes", "min", "mins", "":
		perUnit = 1
	case "hour", "hours", "hr", "hrs":
		perUnit = 60
	case "day", "days":
		perUnit = model.MinutesPerDay
	default:
		return 0
	}
	return int(value.Float64*perUnit + 0.5)
}
