package handlers

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/fait-coop/scheduling/services/availability-service/internal/model"
	"github.com/go-playground/validator/v10"
)

const minSlotMinutes = 5

type slotsParams struct {
	ServiceAgentID string `query:"serviceAgentId" validate:"required,max=128"`
	StartDate      string `query:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate        string `query:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Duration       string `query:"duration" validate:"omitempty,numeric"`
}

type checkParams struct {
	ServiceAgentID string `query:"serviceAgentId" validate:"required,max=128"`
	Date           string `query:"date" validate:"required,datetime=2006-01-02"`
	StartTime      string `query:"startTime" validate:"required,clock"`
	EndTime        string `query:"endTime" validate:"required,clock"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("query")
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := model.ParseClock(fl.Field().String())
		return err == nil
	})
	return v
}

// providerParam reads the provider id. contractorId is the legacy name and is
// accepted as a synonym; both may be sent only when they agree.
func providerParam(q url.Values) (string, error) {
	agent := strings.TrimSpace(q.Get("serviceAgentId"))
	legacy := strings.TrimSpace(q.Get("contractorId"))
	switch {
	case agent != "" && legacy != "" && agent != legacy:
		return "", errors.New("serviceAgentId and contractorId refer to different providers")
	case agent == "":
		return legacy, nil
	}
	return agent, nil
}

func parseSlotsParams(v *validator.Validate, q url.Values) (slotsParams, error) {
	provider, err := providerParam(q)
	if err != nil {
		return slotsParams{}, err
	}
	p := slotsParams{
		ServiceAgentID: provider,
		StartDate:      strings.TrimSpace(q.Get("startDate")),
		EndDate:        strings.TrimSpace(q.Get("endDate")),
		Duration:       strings.TrimSpace(q.Get("duration")),
	}
	if err := v.Struct(p); err != nil {
		return slotsParams{}, errors.New(validationMessage(err))
	}
	return p, nil
}

func parseCheckParams(v *validator.Validate, q url.Values) (checkParams, error) {
	provider, err := providerParam(q)
	if err != nil {
		return checkParams{}, err
	}
	p := checkParams{
		ServiceAgentID: provider,
		Date:           strings.TrimSpace(q.Get("date")),
		StartTime:      strings.TrimSpace(q.Get("startTime")),
		EndTime:        strings.TrimSpace(q.Get("endTime")),
	}
	if err := v.Struct(p); err != nil {
		return checkParams{}, errors.New(validationMessage(err))
	}
	return p, nil
}

// slotMinutes returns 0 when the duration is absent so the service default applies.
func (p slotsParams) slotMinutes() (int, error) {
	if p.Duration == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(p.Duration)
	if err != nil || n < minSlotMinutes || n > model.MinutesPerDay {
		return 0, fmt.Errorf("duration must be a whole number of minutes between %d and %d", minSlotMinutes, model.MinutesPerDay)
	}
	return n, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid parameters"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "datetime":
		return fe.Field() + " must be a date in YYYY-MM-DD format"
	case "clock":
		return fe.Field() + " must be a time in HH:MM format"
	case "numeric":
		return fe.Field() + " must be a number"
	case "max":
		return fe.Field() + " is too long"
	}
	return "invalid " + fe.Field()
}
