package availability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fait-coop/scheduling/services/availability-service/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Source reads a provider's availability records. Implementations resolve
// schema differences (such as the legacy bookings FK column) themselves.
type Source interface {
	FetchRecurringRules(ctx context.Context, providerID string) ([]model.AvailabilityRule, error)
	FetchOneTimeRules(ctx context.Context, providerID string, from, to time.Time) ([]model.AvailabilityRule, error)
	// FetchBookings returns only bookings that occupy time (confirmed, in progress).
	FetchBookings(ctx context.Context, providerID string, from, to time.Time) ([]model.Booking, error)
	FetchUnavailableDates(ctx context.Context, providerID string, from, to time.Time) ([]model.UnavailableDate, error)
}

// SlotCache memoizes resolved slots. Implementations must fail open: a miss
// or backend error just means the slots are computed again.
//
// Lookup reports the provider's cache generation it observed; Store writes
// under that generation, so slots computed from data read before an
// invalidation are never served after it. A negative generation disables Store.
type SlotCache interface {
	Lookup(ctx context.Context, b Bounds) (slots []model.Slot, generation int64, hit bool)
	Store(ctx context.Context, b Bounds, generation int64, slots []model.Slot)
}

type ServiceConfig struct {
	SlotMinutes int
	RangeDays   int
	// FetchTimeout bounds the reads of a single request.
	FetchTimeout time.Duration
}

type Service struct {
	source   Source
	cache    SlotCache
	resolver *Resolver
	logger   *slog.Logger
	cfg      ServiceConfig
	tracer   trace.Tracer
}

// NewService wires a Source and optional cache (nil disables caching).
func NewService(source Source, cache SlotCache, logger *slog.Logger, cfg ServiceConfig) *Service {
	if cfg.SlotMinutes <= 0 {
		cfg.SlotMinutes = DefaultSlotMinutes
	}
	if cfg.RangeDays <= 0 {
		cfg.RangeDays = DefaultRangeDays
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 3 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		source:   source,
		cache:    cache,
		resolver: NewResolver(logger),
		logger:   logger,
		cfg:      cfg,
		tracer:   otel.Tracer("availability"),
	}
}

// AvailableSlots validates q, loads the provider's records and resolves them.
func (s *Service) AvailableSlots(ctx context.Context, q Query) ([]model.Slot, error) {
	if q.SlotMinutes <= 0 {
		q.SlotMinutes = s.cfg.SlotMinutes
	}
	if q.EndDate == nil && !q.StartDate.IsZero() {
		end := model.DateOf(q.StartDate).AddDate(0, 0, s.cfg.RangeDays)
		q.EndDate = &end
	}
	b, err := q.Bounds()
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "availability.slots", trace.WithAttributes(
		attribute.String("provider.id", b.ProviderID),
		attribute.String("range.start", model.FormatDate(b.Start)),
		attribute.String("range.end", model.FormatDate(b.End)),
	))
	defer span.End()

	generation := int64(-1)
	if s.cache != nil {
		var (
			slots []model.Slot
			hit   bool
		)
		if slots, generation, hit = s.cache.Lookup(ctx, b); hit {
			span.SetAttributes(attribute.Bool("cache.hit", true), attribute.Int("slots", len(slots)))
			return slots, nil
		}
	}

	// A booking on the day before the range can run past midnight into it.
	in, err := s.load(ctx, b.ProviderID, b.Start, b.End, b.Start.AddDate(0, 0, -1))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, err
	}

	slots, err := s.resolver.Resolve(q, in)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("cache.hit", false), attribute.Int("slots", len(slots)))

	if s.cache != nil {
		s.cache.Store(ctx, b, generation, slots)
	}
	return slots, nil
}

// CheckAvailability answers a point query for one interval on one day.
func (s *Service) CheckAvailability(ctx context.Context, q CheckQuery) (bool, error) {
	q, err := q.validate()
	if err != nil {
		return false, err
	}

	ctx, span := s.tracer.Start(ctx, "availability.check", trace.WithAttributes(
		attribute.String("provider.id", q.ProviderID),
		attribute.String("date", model.FormatDate(q.Date)),
	))
	defer span.End()

	in, err := s.load(ctx, q.ProviderID, q.Date, q.Date, q.Date.AddDate(0, 0, -1))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return false, err
	}
	ok, err := s.resolver.IsAvailable(q, in)
	if err != nil {
		return false, err
	}
	span.SetAttributes(attribute.Bool("available", ok))
	return ok, nil
}

// load runs the four independent reads one after another; each is a single
// indexed query so parallelism buys nothing at this size.
func (s *Service) load(ctx context.Context, providerID string, from, to, bookingsFrom time.Time) (Inputs, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	var (
		in  Inputs
		err error
	)
	if in.Recurring, err = s.source.FetchRecurringRules(ctx, providerID); err != nil {
		return Inputs{}, s.dataErr("recurring rules", providerID, err)
	}
	if in.OneTime, err = s.source.FetchOneTimeRules(ctx, providerID, from, to); err != nil {
		return Inputs{}, s.dataErr("one-time rules", providerID, err)
	}
	if in.Bookings, err = s.source.FetchBookings(ctx, providerID, bookingsFrom, to); err != nil {
		return Inputs{}, s.dataErr("bookings", providerID, err)
	}
	if in.Unavailable, err = s.source.FetchUnavailableDates(ctx, providerID, from, to); err != nil {
		return Inputs{}, s.dataErr("unavailable dates", providerID, err)
	}
	return in, nil
}

func (s *Service) dataErr(what, providerID string, err error) error {
	s.logger.Error("availability read failed", "what", what, "provider_id", providerID, "err", err)
	return fmt.Errorf("%w: fetch %s: %v", ErrDataAccess, what, err)
}
