package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fait-coop/scheduling/libs/db"
	"github.com/fait-coop/scheduling/services/availability-service/internal/model"
	"github.com/jackc/pgx/v5/pgtype"
)

// FallbackBookingMinutes is blocked for a booking whose package duration
// cannot be read.
const FallbackBookingMinutes = 30

type Repository struct {
	pool   *db.Pool
	column *ProviderColumn
	logger *slog.Logger
}

func NewRepository(pool *db.Pool, column *ProviderColumn, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Repository{pool: pool, column: column, logger: logger}
}

func (r *Repository) FetchRecurringRules(ctx context.Context, providerID string) ([]model.AvailabilityRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, service_agent_id::text, day_of_week, start_time, end_time
		FROM service_agent_availability
		WHERE service_agent_id = $1 AND is_recurring
		ORDER BY day_of_week, start_time
	`, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []model.AvailabilityRule
	for rows.Next() {
		var (
			rule       model.AvailabilityRule
			weekday    pgtype.Int4
			start, end pgtype.Time
		)
		if err := rows.Scan(&rule.ID, &rule.ProviderID, &weekday, &start, &end); err != nil {
			return nil, err
		}
		rule.IsRecurring = true
		if weekday.Valid {
			rule.DaysOfWeek = []time.Weekday{time.Weekday(weekday.Int32)}
		}
		rule.Window = windowFrom(start, end)
		rules = append(rules, rule)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return rules, nil
}

// FetchOneTimeRules returns non-recurring rules whose date range intersects
// [from, to]. A NULL end_date means the rule covers start_date only.
func (r *Repository) FetchOneTimeRules(ctx context.Context, providerID string, from, to time.Time) ([]model.AvailabilityRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, service_agent_id::text, start_date, end_date, start_time, end_time
		FROM service_agent_availability
		WHERE service_agent_id = $1
			AND NOT is_recurring
			AND start_date <= $3
			AND COALESCE(end_date, start_date) >= $2
		ORDER BY start_date, start_time
	`, providerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []model.AvailabilityRule
	for rows.Next() {
		var (
			rule               model.AvailabilityRule
			startDate, endDate pgtype.Date
			startTime, endTime pgtype.Time
		)
		if err := rows.Scan(&rule.ID, &rule.ProviderID, &startDate, &endDate, &startTime, &endTime); err != nil {
			return nil, err
		}
		rule.StartDate = dateFrom(startDate)
		rule.EndDate = dateFrom(endDate)
		rule.Window = windowFrom(startTime, endTime)
		rules = append(rules, rule)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return rules, nil
}

// FetchBookings returns confirmed and in-progress bookings scheduled within
// [from, to]. Duration comes from the booked service package.
func (r *Repository) FetchBookings(ctx context.Context, providerID string, from, to time.Time) ([]model.Booking, error) {
	column, err := r.column.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT b.id::text, b.%[1]s::text, b.scheduled_date, b.scheduled_time,
			sp.duration::float8, sp.duration_unit, b.status
		FROM bookings b
		LEFT JOIN service_packages sp ON sp.id = b.service_package_id
		WHERE b.%[1]s = $1
			AND b.status IN ('%[2]s', '%[3]s')
			AND b.scheduled_date BETWEEN $2 AND $3
		ORDER BY b.scheduled_date, b.scheduled_time
	`, column, model.BookingStatusConfirmed, model.BookingStatusInProgress)

	rows, err := r.pool.Query(ctx, query, providerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		var (
			bk       model.Booking
			date     pgtype.Date
			start    pgtype.Time
			duration pgtype.Float8
			unit     pgtype.Text
		)
		if err := rows.Scan(&bk.ID, &bk.ProviderID, &date, &start, &duration, &unit, &bk.Status); err != nil {
			return nil, err
		}
		bk.Date = dateFrom(date)
		if c, ok := clockFromTime(start); ok {
			bk.StartTime = c
		} else {
			bk.StartTime = -1
		}
		bk.DurationMinutes = r.bookingDuration(bk, duration, unit)
		bookings = append(bookings, bk)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return bookings, nil
}

func (r *Repository) bookingDuration(bk model.Booking, value pgtype.Float8, unit pgtype.Text) int {
	if n := durationMinutes(value, unit); n > 0 {
		return n
	}
	r.logger.Warn("booking package duration unusable, blocking fallback",
		"booking_id", bk.ID,
		"provider_id", bk.ProviderID,
		"duration", value.Float64,
		"duration_null", !value.Valid,
		"unit", unit.String,
		"fallback_minutes", FallbackBookingMinutes,
	)
	return FallbackBookingMinutes
}

func (r *Repository) FetchUnavailableDates(ctx context.Context, providerID string, from, to time.Time) ([]model.UnavailableDate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, service_agent_id::text, date, COALESCE(reason, '')
		FROM service_agent_unavailable_dates
		WHERE service_agent_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`, providerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.UnavailableDate
	for rows.Next() {
		var (
			u    model.UnavailableDate
			date pgtype.Date
		)
		if err := rows.Scan(&u.ID, &u.ProviderID, &date, &u.Reason); err != nil {
			return nil, err
		}
		u.Date = dateFrom(date)
		out = append(out, u)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
