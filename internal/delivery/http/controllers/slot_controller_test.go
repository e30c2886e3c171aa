package controllers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interviewcalendar/internal/delivery/http/helpers"
	"interviewcalendar/internal/domain"
)

func TestSlotController_CreateSlot(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		caller     *domain.Caller
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "created",
			body:       `{"date":"2025-03-10","start_time":"09:00","end_time":"09:30","capacity":2,"timezone":"Europe/Berlin"}`,
			caller:     &employerCaller,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "no caller",
			body:       `{"date":"2025-03-10","start_time":"09:00","end_time":"09:30","capacity":2}`,
			wantStatus: http.StatusUnauthorized,
			wantCode:   helpers.ErrCodeUnauthorized,
		},
		{
			name:       "bad clock and capacity",
			body:       `{"date":"2025-03-10","start_time":"9am","end_time":"09:30","capacity":0}`,
			caller:     &employerCaller,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "unknown timezone",
			body:       `{"date":"2025-03-10","start_time":"09:00","end_time":"09:30","capacity":1,"timezone":"Mars/Olympus"}`,
			caller:     &employerCaller,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "unknown field",
			body:       `{"date":"2025-03-10","start_time":"09:00","end_time":"09:30","capacity":1,"booked_count":1}`,
			caller:     &employerCaller,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "overlap",
			body:       `{"date":"2025-03-10","start_time":"09:00","end_time":"09:30","capacity":1}`,
			caller:     &employerCaller,
			svcErr:     fmt.Errorf("create: %w", domain.ErrSlotOverlap),
			wantStatus: http.StatusConflict,
			wantCode:   helpers.ErrCodeSlotOverlap,
		},
		{
			name:       "candidate forbidden",
			body:       `{"date":"2025-03-10","start_time":"09:00","end_time":"09:30","capacity":1}`,
			caller:     &candidateCaller,
			svcErr:     domain.ErrForbidden,
			wantStatus: http.StatusForbidden,
			wantCode:   helpers.ErrCodeForbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *domain.Slot
			svc := &mockSlotService{createFn: func(_ domain.Caller, s *domain.Slot) (*domain.Slot, error) {
				got = s
				if tt.svcErr != nil {
					return nil, tt.svcErr
				}
				s.ID = testSlotID
				return s, nil
			}}
			ctrl := NewSlotController(discardLogger(), svc)
			rr := httptest.NewRecorder()

			ctrl.CreateSlot(rr, newRequest(http.MethodPost, "/employer/slots", tt.body, tt.caller, nil))

			require.Equal(t, tt.wantStatus, rr.Code)
			var slot domain.Slot
			apiErr := decodeEnvelope(t, rr, &slot)
			if tt.wantCode != "" {
				require.NotNil(t, apiErr)
				assert.Equal(t, tt.wantCode, apiErr.Code)
				return
			}
			require.Nil(t, apiErr)
			assert.Equal(t, testSlotID, slot.ID)
			require.NotNil(t, got)
			assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), got.Date)
			assert.Equal(t, 2, got.Capacity)
			assert.Equal(t, "Europe/Berlin", got.Timezone)
		})
	}
}

func TestSlotController_GenerateSlots(t *testing.T) {
	var got domain.SlotSeriesInput
	svc := &mockSlotService{generateFn: func(_ domain.Caller, in domain.SlotSeriesInput) ([]*domain.Slot, []*domain.Slot, error) {
		got = in
		return []*domain.Slot{{ID: "a"}, {ID: "b"}}, nil, nil
	}}
	ctrl := NewSlotController(discardLogger(), svc)

	body := `{"from":"2025-03-10","to":"2025-03-14","weekdays":["Monday","wed"],"window_start":"09:00","window_end":"12:00","slot_minutes":45,"gap_minutes":15,"capacity":1}`
	rr := httptest.NewRecorder()
	ctrl.GenerateSlots(rr, newRequest(http.MethodPost, "/employer/slots/generate", body, &employerCaller, nil))

	require.Equal(t, http.StatusCreated, rr.Code)
	var resp GenerateSlotsResponse
	require.Nil(t, decodeEnvelope(t, rr, &resp))
	assert.Len(t, resp.Created, 2)
	assert.NotNil(t, resp.Skipped)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, got.Weekdays)
	assert.Equal(t, 45*time.Minute, got.Length)
	assert.Equal(t, 15*time.Minute, got.Gap)
	assert.Empty(t, got.EmployerID)

	rr = httptest.NewRecorder()
	admin := domain.Caller{ID: "root", Roles: []domain.Role{domain.RoleAdmin}}
	forEmployer := `{"employer_id":"emp-2","from":"2025-03-10","to":"2025-03-10","window_start":"09:00","window_end":"10:00","slot_minutes":30,"capacity":1}`
	ctrl.GenerateSlots(rr, newRequest(http.MethodPost, "/employer/slots/generate", forEmployer, &admin, nil))
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "emp-2", got.EmployerID)

	rr = httptest.NewRecorder()
	bad := `{"from":"2025-03-10","to":"2025-03-14","weekdays":["funday"],"window_start":"09:00","window_end":"12:00","slot_minutes":45,"capacity":1}`
	ctrl.GenerateSlots(rr, newRequest(http.MethodPost, "/employer/slots/generate", bad, &employerCaller, nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	apiErr := decodeEnvelope(t, rr, nil)
	require.NotNil(t, apiErr)
	assert.Contains(t, apiErr.Message, "funday")
}

func TestSlotController_PathAndUpdate(t *testing.T) {
	t.Run("invalid slot id", func(t *testing.T) {
		ctrl := NewSlotController(discardLogger(), &mockSlotService{})
		rr := httptest.NewRecorder()
		ctrl.GetSlot(rr, newRequest(http.MethodGet, "/employer/slots/nope", "", &employerCaller, map[string]string{"slotID": "nope"}))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("not found", func(t *testing.T) {
		ctrl := NewSlotController(discardLogger(), &mockSlotService{err: domain.ErrSlotNotFound})
		rr := httptest.NewRecorder()
		ctrl.GetSlot(rr, newRequest(http.MethodGet, "/employer/slots/"+testSlotID, "", &employerCaller, map[string]string{"slotID": testSlotID}))
		require.Equal(t, http.StatusNotFound, rr.Code)
		apiErr := decodeEnvelope(t, rr, nil)
		require.NotNil(t, apiErr)
		assert.Equal(t, "slot not found", apiErr.Message)
	})

	t.Run("update passes only set fields", func(t *testing.T) {
		var got domain.SlotUpdate
		svc := &mockSlotService{updateFn: func(_ domain.Caller, id string, upd domain.SlotUpdate) (*domain.Slot, error) {
			got = upd
			return &domain.Slot{ID: id}, nil
		}}
		ctrl := NewSlotController(discardLogger(), svc)
		rr := httptest.NewRecorder()
		ctrl.UpdateSlot(rr, newRequest(http.MethodPatch, "/employer/slots/"+testSlotID, `{"capacity":4}`, &employerCaller, map[string]string{"slotID": testSlotID}))
		require.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, got.Capacity)
		assert.Equal(t, 4, *got.Capacity)
		assert.False(t, got.ChangesSchedule())
	})

	t.Run("empty update rejected", func(t *testing.T) {
		ctrl := NewSlotController(discardLogger(), &mockSlotService{})
		rr := httptest.NewRecorder()
		ctrl.UpdateSlot(rr, newRequest(http.MethodPatch, "/employer/slots/"+testSlotID, `{}`, &employerCaller, map[string]string{"slotID": testSlotID}))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("schedule change on booked slot", func(t *testing.T) {
		svc := &mockSlotService{updateFn: func(domain.Caller, string, domain.SlotUpdate) (*domain.Slot, error) {
			return nil, domain.ErrSlotInUse
		}}
		ctrl := NewSlotController(discardLogger(), svc)
		rr := httptest.NewRecorder()
		ctrl.UpdateSlot(rr, newRequest(http.MethodPatch, "/employer/slots/"+testSlotID, `{"start_time":"10:00"}`, &employerCaller, map[string]string{"slotID": testSlotID}))
		require.Equal(t, http.StatusConflict, rr.Code)
		apiErr := decodeEnvelope(t, rr, nil)
		require.NotNil(t, apiErr)
		assert.Equal(t, helpers.ErrCodeSlotInUse, apiErr.Code)
	})
}

func TestSlotController_AvailabilityAndDelete(t *testing.T) {
	ctrl := NewSlotController(discardLogger(), &mockSlotService{})
	pv := map[string]string{"slotID": testSlotID}

	rr := httptest.NewRecorder()
	ctrl.SetSlotAvailability(rr, newRequest(http.MethodPut, "/employer/slots/"+testSlotID+"/availability", `{}`, &employerCaller, pv))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	ctrl.SetSlotAvailability(rr, newRequest(http.MethodPut, "/employer/slots/"+testSlotID+"/availability", `{"available":false}`, &employerCaller, pv))
	require.Equal(t, http.StatusOK, rr.Code)
	var slot domain.Slot
	require.Nil(t, decodeEnvelope(t, rr, &slot))
	assert.False(t, slot.IsAvailable)

	rr = httptest.NewRecorder()
	ctrl.DeleteSlot(rr, newRequest(http.MethodDelete, "/employer/slots/"+testSlotID, "", &employerCaller, pv))
	require.Equal(t, http.StatusOK, rr.Code)
	var del DeleteSlotResponse
	require.Nil(t, decodeEnvelope(t, rr, &del))
	assert.Equal(t, DeleteSlotResponse{ID: testSlotID, Deleted: true}, del)

	ctrl = NewSlotController(discardLogger(), &mockSlotService{err: domain.ErrSlotInUse})
	rr = httptest.NewRecorder()
	ctrl.DeleteSlot(rr, newRequest(http.MethodDelete, "/employer/slots/"+testSlotID, "", &employerCaller, pv))
	assert.Equal(t, http.StatusConflict, rr.Code)
}
