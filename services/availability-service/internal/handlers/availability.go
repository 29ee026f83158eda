package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fait-coop/scheduling/libs/httpx"
	"github.com/fait-coop/scheduling/services/availability-service/internal/availability"
	"github.com/fait-coop/scheduling/services/availability-service/internal/model"
	"github.com/go-playground/validator/v10"
)

type SlotService interface {
	AvailableSlots(ctx context.Context, q availability.Query) ([]model.Slot, error)
	CheckAvailability(ctx context.Context, q availability.CheckQuery) (bool, error)
}

type AvailabilityHandler struct {
	svc      SlotService
	logger   *slog.Logger
	validate *validator.Validate
}

func NewAvailabilityHandler(svc SlotService, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc, logger: logger, validate: newValidator()}
}

type slotItem struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Duration int    `json:"duration"`
}

type slotsResponse struct {
	Data []slotItem `json:"data"`
}

type checkResult struct {
	Available bool `json:"available"`
}

type checkResponse struct {
	Data checkResult `json:"data"`
}

// Slots serves GET /available-slots.
func (h *AvailabilityHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	p, err := parseSlotsParams(h.validate, r.URL.Query())
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	size, err := p.slotMinutes()
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Formats were checked by the validator.
	start, _ := model.ParseDate(p.StartDate)
	q := availability.Query{ProviderID: p.ServiceAgentID, StartDate: start, SlotMinutes: size}
	if p.EndDate != "" {
		end, _ := model.ParseDate(p.EndDate)
		if end.Sub(start) > availability.MaxRangeDays*24*time.Hour {
			httpx.WriteError(w, http.StatusBadRequest, fmt.Sprintf("endDate may be at most %d days after startDate", availability.MaxRangeDays))
			return
		}
		q.EndDate = &end
	}

	slots, err := h.svc.AvailableSlots(r.Context(), q)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	items := make([]slotItem, 0, len(slots))
	for _, s := range slots {
		items = append(items, slotItem{
			Date:     model.FormatDate(s.Date),
			Time:     s.Time.String(),
			Duration: s.DurationMinutes,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, slotsResponse{Data: items})
}

// Check serves GET /check-availability.
func (h *AvailabilityHandler) Check(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	p, err := parseCheckParams(h.validate, r.URL.Query())
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, _ := model.ParseDate(p.Date)
	start, _ := model.ParseClock(p.StartTime)
	end, _ := model.ParseClock(p.EndTime)

	ok, err := h.svc.CheckAvailability(r.Context(), availability.CheckQuery{
		ProviderID: p.ServiceAgentID,
		Date:       date,
		Start:      start,
		End:        end,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, checkResponse{Data: checkResult{Available: ok}})
}

func (h *AvailabilityHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, availability.ErrInvalidInput):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, availability.ErrDataAccess):
		httpx.WriteError(w, http.StatusInternalServerError, "failed to load availability")
	case errors.Is(err, context.DeadlineExceeded):
		httpx.WriteError(w, http.StatusGatewayTimeout, "request timed out")
	default:
		h.logger.Error("availability request failed", "path", r.URL.Path, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *AvailabilityHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/available-slots", h.Slots)
	mux.HandleFunc("/check-availability", h.Check)
}
