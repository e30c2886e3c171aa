package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"interviewcalendar/internal/delivery/http/helpers"
	"interviewcalendar/internal/delivery/http/middleware"
	"interviewcalendar/internal/domain"
)

// pathUUID reads a UUID path parameter, writing a 400 and returning false when it is
// missing or malformed.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := r.PathValue(name)
	if v == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing "+name)
		return "", false
	}
	if _, err := uuid.Parse(v); err != nil || len(v) != 36 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid "+name)
		return "", false
	}
	return strings.ToLower(v), true
}

// requireCaller returns the authenticated caller or writes a 401.
func requireCaller(w http.ResponseWriter, r *http.Request) (domain.Caller, bool) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return domain.Caller{}, false
	}
	return caller, true
}

func parseDate(field, v string) (time.Time, error) {
	t, err := time.Parse(domain.DateLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a date in YYYY-MM-DD format", field)
	}
	return t, nil
}

func validClock(v string) bool {
	_, err := domain.ParseClock(v)
	return err == nil
}

func validTimezone(tz string) bool {
	if tz == "" {
		return true
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// rangeQuery reads month=YYYY-MM or from=/to= dates from the query string.
// Zero times are returned when neither is given.
func rangeQuery(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	if m := q.Get("month"); m != "" {
		start, err := time.Parse("2006-01", m)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: month must be in YYYY-MM format", domain.ErrInvalidInput)
		}
		from, to := domain.MonthRange(start)
		return from, to, nil
	}
	var from, to time.Time
	var err error
	if s := q.Get("from"); s != "" {
		if from, err = parseDate("from", s); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
		}
	}
	if s := q.Get("to"); s != "" {
		if to, err = parseDate("to", s); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
		}
	}
	return from, to, nil
}
