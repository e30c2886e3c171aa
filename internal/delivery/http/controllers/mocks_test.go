package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"interviewcalendar/internal/delivery/http/helpers"
	"interviewcalendar/internal/delivery/http/middleware"
	"interviewcalendar/internal/domain"
)

const (
	testSlotID     = "8d4f3c2a-1b6e-4f7a-9c0d-2e3f4a5b6c7d"
	testBookingID  = "6f1c2a9e-4b1d-4c3e-9a77-0d5e8f1b2c3d"
	testEmployerID = "3a2b1c0d-9e8f-4a7b-8c6d-5e4f3a2b1c0d"
	testAppID      = "b7e6d5c4-3b2a-4190-8f7e-6d5c4b3a2910"
	testNotifID    = "c1d2e3f4-a5b6-4c7d-8e9f-0a1b2c3d4e5f"
	testToken      = "Zm9vYmFyYmF6cXV4cXV1eHF1dXpfLWFiY2RlZmdoaWo"
)

var (
	employerCaller  = domain.Caller{ID: testEmployerID, Roles: []domain.Role{domain.RoleEmployer}}
	candidateCaller = domain.Caller{ID: "cand-1", Email: "a@example.com", Roles: []domain.Role{domain.RoleCandidate}}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newRequest builds a request with path values set the way the router would, optionally
// carrying an authenticated caller.
func newRequest(method, target, body string, caller *domain.Caller, pathValues map[string]string) *http.Request {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	if caller != nil {
		req = req.WithContext(middleware.SetCaller(req.Context(), *caller))
	}
	return req
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data any) *helpers.APIError {
	t.Helper()
	var env struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	if data != nil && env.Error == nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env.Error
}

type mockSlotService struct {
	createFn   func(caller domain.Caller, slot *domain.Slot) (*domain.Slot, error)
	generateFn func(caller domain.Caller, in domain.SlotSeriesInput) ([]*domain.Slot, []*domain.Slot, error)
	updateFn   func(caller domain.Caller, id string, upd domain.SlotUpdate) (*domain.Slot, error)
	err        error
}

func (m *mockSlotService) CreateSlot(ctx context.Context, caller domain.Caller, slot *domain.Slot) (*domain.Slot, error) {
	if m.createFn != nil {
		return m.createFn(caller, slot)
	}
	return slot, m.err
}

func (m *mockSlotService) GenerateSlots(ctx context.Context, caller domain.Caller, in domain.SlotSeriesInput) ([]*domain.Slot, []*domain.Slot, error) {
	if m.generateFn != nil {
		return m.generateFn(caller, in)
	}
	return nil, nil, m.err
}

func (m *mockSlotService) GetSlot(ctx context.Context, caller domain.Caller, slotID string) (*domain.Slot, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Slot{ID: slotID, EmployerID: caller.ID}, nil
}

func (m *mockSlotService) UpdateSlot(ctx context.Context, caller domain.Caller, slotID string, upd domain.SlotUpdate) (*domain.Slot, error) {
	if m.updateFn != nil {
		return m.updateFn(caller, slotID, upd)
	}
	return nil, m.err
}

func (m *mockSlotService) SetSlotAvailability(ctx context.Context, caller domain.Caller, slotID string, available bool) (*domain.Slot, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Slot{ID: slotID, IsAvailable: available}, nil
}

func (m *mockSlotService) DeleteSlot(ctx context.Context, caller domain.Caller, slotID string) error {
	return m.err
}

type mockAvailabilityService struct {
	query  domain.AvailabilityQuery
	caller domain.Caller
	err    error
}

func (m *mockAvailabilityService) GetAvailability(ctx context.Context, caller domain.Caller, q domain.AvailabilityQuery) (*domain.Availability, error) {
	m.query, m.caller = q, caller
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Availability{EmployerID: q.EmployerID, View: q.View, Days: []domain.DayAvailability{}}, nil
}

type mockBookingService struct {
	createReq  domain.CreateBookingRequest
	filter     domain.BookingFilter
	page       domain.PaginationParams
	statusReq  domain.StatusChangeRequest
	reschedule domain.RescheduleRequest
	feedback   domain.Feedback
	notes      string
	cancelWhy  string
	list       []*domain.Booking
	total      int
	err        error
}

func (m *mockBookingService) booking(id string) (*domain.Booking, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Booking{ID: id, Status: domain.StatusScheduled, ScheduledAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}, nil
}

func (m *mockBookingService) CreateBooking(ctx context.Context, caller domain.Caller, req domain.CreateBookingRequest) (*domain.Booking, error) {
	m.createReq = req
	return m.booking(testBookingID)
}

func (m *mockBookingService) GetBooking(ctx context.Context, caller domain.Caller, bookingID string) (*domain.Booking, error) {
	return m.booking(bookingID)
}

func (m *mockBookingService) ListBookings(ctx context.Context, caller domain.Caller, f domain.BookingFilter, page domain.PaginationParams) ([]*domain.Booking, int, error) {
	m.filter, m.page = f, page
	return m.list, m.total, m.err
}

func (m *mockBookingService) ChangeStatus(ctx context.Context, caller domain.Caller, bookingID string, req domain.StatusChangeRequest) (*domain.Booking, error) {
	m.statusReq = req
	return m.booking(bookingID)
}

func (m *mockBookingService) Cancel(ctx context.Context, caller domain.Caller, bookingID, reason string) (*domain.Booking, error) {
	m.cancelWhy = reason
	return m.booking(bookingID)
}

func (m *mockBookingService) Reschedule(ctx context.Context, caller domain.Caller, bookingID string, req domain.RescheduleRequest) (*domain.Booking, error) {
	m.reschedule = req
	return m.booking(bookingID)
}

func (m *mockBookingService) SubmitFeedback(ctx context.Context, caller domain.Caller, bookingID string, fb domain.Feedback) (*domain.Booking, error) {
	m.feedback = fb
	return m.booking(bookingID)
}

func (m *mockBookingService) UpdateNotes(ctx context.Context, caller domain.Caller, bookingID, notes string) (*domain.Booking, error) {
	m.notes = notes
	return m.booking(bookingID)
}

type mockInvitationService struct {
	change domain.ApplicationStatusChange
	issued *domain.InvitationIssued
	token  string
	slotID string
	from   time.Time
	to     time.Time
	err    error
}

func (m *mockInvitationService) InviteForApplication(ctx context.Context, caller domain.Caller, change domain.ApplicationStatusChange) (*domain.InvitationIssued, error) {
	m.change = change
	return m.issued, m.err
}

func (m *mockInvitationService) GetInvitation(ctx context.Context, token string) (*domain.InvitationContext, error) {
	m.token = token
	if m.err != nil {
		return nil, m.err
	}
	return &domain.InvitationContext{Invitation: &domain.Invitation{ID: "inv-1"}, JobID: "job-1"}, nil
}

func (m *mockInvitationService) InvitationAvailability(ctx context.Context, token string, from, to time.Time) (*domain.Availability, error) {
	m.token, m.from, m.to = token, from, to
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Availability{View: domain.ViewCandidate, Days: []domain.DayAvailability{}}, nil
}

func (m *mockInvitationService) ScheduleFromInvitation(ctx context.Context, token, slotID string) (*domain.Booking, error) {
	m.token, m.slotID = token, slotID
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Booking{ID: testBookingID, SlotID: slotID, Status: domain.StatusScheduled}, nil
}

type mockNotificationService struct {
	unreadOnly bool
	list       []*domain.Notification
	err        error
}

func (m *mockNotificationService) ListNotifications(ctx context.Context, caller domain.Caller, unreadOnly bool, page domain.PaginationParams) ([]*domain.Notification, int, error) {
	m.unreadOnly = unreadOnly
	return m.list, len(m.list), m.err
}

func (m *mockNotificationService) MarkRead(ctx context.Context, caller domain.Caller, id string) (*domain.Notification, error) {
	if m.err != nil {
		return nil, m.err
	}
	now := time.Now()
	return &domain.Notification{ID: id, RecipientID: caller.ID, ReadAt: &now}, nil
}
