package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interviewcalendar/internal/delivery/http/helpers"
	"interviewcalendar/internal/domain"
)

func TestAvailabilityController_EmployerAvailability(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantFrom   time.Time
		wantTo     time.Time
	}{
		{"default range", "", http.StatusOK, time.Time{}, time.Time{}},
		{"month", "?month=2025-02", http.StatusOK, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"from to", "?from=2025-03-03&to=2025-03-10", http.StatusOK, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)},
		{"bad month", "?month=March", http.StatusBadRequest, time.Time{}, time.Time{}},
		{"bad date", "?from=03/03/2025", http.StatusBadRequest, time.Time{}, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAvailabilityService{}
			ctrl := NewAvailabilityController(discardLogger(), svc)
			rr := httptest.NewRecorder()

			ctrl.EmployerAvailability(rr, newRequest(http.MethodGet, "/employer/availability"+tt.query, "", &employerCaller, nil))

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			assert.Equal(t, domain.ViewEmployer, svc.query.View)
			assert.Equal(t, tt.wantFrom, svc.query.From)
			assert.Equal(t, tt.wantTo, svc.query.To)
			assert.Equal(t, employerCaller.ID, svc.caller.ID)
		})
	}
}

func TestAvailabilityController_CandidateAvailability(t *testing.T) {
	svc := &mockAvailabilityService{}
	ctrl := NewAvailabilityController(discardLogger(), svc)

	rr := httptest.NewRecorder()
	ctrl.CandidateAvailability(rr, newRequest(http.MethodGet, "/employers/"+testEmployerID+"/availability", "", &candidateCaller,
		map[string]string{"employerID": testEmployerID}))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.ViewCandidate, svc.query.View)
	assert.Equal(t, testEmployerID, svc.query.EmployerID)
	var avail domain.Availability
	require.Nil(t, decodeEnvelope(t, rr, &avail))
	assert.NotNil(t, avail.Days)

	svc.err = domain.ErrEmployerNotFound
	rr = httptest.NewRecorder()
	ctrl.CandidateAvailability(rr, newRequest(http.MethodGet, "/employers/"+testEmployerID+"/availability", "", &candidateCaller,
		map[string]string{"employerID": testEmployerID}))
	require.Equal(t, http.StatusNotFound, rr.Code)
	apiErr := decodeEnvelope(t, rr, nil)
	require.NotNil(t, apiErr)
	assert.Equal(t, helpers.ErrCodeNotFound, apiErr.Code)

	rr = httptest.NewRecorder()
	ctrl.CandidateAvailability(rr, newRequest(http.MethodGet, "/employers/x/availability", "", nil, map[string]string{"employerID": "x"}))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
