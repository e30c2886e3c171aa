package controllers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"interviewcalendar/internal/delivery/http/helpers"
	"interviewcalendar/internal/domain"
)

const maxReasonLength = 500

type BookingController struct {
	Logger  *slog.Logger
	Service domain.BookingService
}

func NewBookingController(logger *slog.Logger, svc domain.BookingService) *BookingController {
	return &BookingController{
		Logger:  logger,
		Service: svc,
	}
}

// BookingSuccessResponse is the success response envelope for endpoints returning one booking.
type BookingSuccessResponse struct {
	Data  *domain.Booking   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// CreateBookingRequest is the request body for POST /bookings.
// Candidates book for themselves; recruiters set candidate_id.
type CreateBookingRequest struct {
	SlotID         string                  `json:"slot_id"`
	JobID          string                  `json:"job_id,omitempty"`
	CandidateID    string                  `json:"candidate_id,omitempty"`
	ApplicationID  *string                 `json:"application_id,omitempty"`
	Candidate      domain.CandidateContact `json:"candidate"`
	InterviewType  domain.InterviewType    `json:"interview_type,omitempty"`
	InterviewRound domain.InterviewRound   `json:"interview_round,omitempty"`
	Meeting        domain.MeetingDetails   `json:"meeting"`
	CandidateNotes string                  `json:"candidate_notes,omitempty"`
}

// Validate implements helpers.Validator.
func (req CreateBookingRequest) Validate() []string {
	var errs []string
	if req.SlotID == "" {
		errs = append(errs, "slot_id is required")
	} else if _, err := uuid.Parse(req.SlotID); err != nil {
		errs = append(errs, "slot_id must be a UUID")
	}
	if strings.TrimSpace(req.Candidate.Name) == "" {
		errs = append(errs, "candidate.name is required")
	}
	if req.InterviewType != "" && !req.InterviewType.Valid() {
		errs = append(errs, "interview_type must be one of: phone, video, in_person, technical, panel")
	}
	if req.InterviewRound != "" && !req.InterviewRound.Valid() {
		errs = append(errs, "interview_round must be one of: screening, first, second, third, final")
	}
	errs = append(errs, req.Meeting.Validate()...)
	if len(req.CandidateNotes) > domain.MaxNotesLength {
		errs = append(errs, fmt.Sprintf("candidate_notes must be at most %d characters", domain.MaxNotesLength))
	}
	return errs
}

func (req CreateBookingRequest) toDomain() domain.CreateBookingRequest {
	return domain.CreateBookingRequest{
		SlotID:         strings.ToLower(req.SlotID),
		JobID:          req.JobID,
		CandidateID:    req.CandidateID,
		Candidate:      req.Candidate,
		InterviewType:  req.InterviewType,
		Round:          req.InterviewRound,
		Meeting:        req.Meeting,
		CandidateNotes: req.CandidateNotes,
		ApplicationID:  req.ApplicationID,
	}
}

// CreateBooking godoc
// @Summary Book an interview slot
// @Description Reserves one unit of an open slot's capacity. Fails with slot_not_open when the slot filled up, closed, or already started.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body controllers.CreateBookingRequest true "Booking"
// @Success 201 {object} controllers.BookingSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: slot_not_open"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /bookings [post]
func (c *BookingController) CreateBooking(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req CreateBookingRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	booking, err := c.Service.CreateBooking(r.Context(), caller, req.toDomain())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, booking)
}

// ListBookingsResponse is the data payload for GET /bookings (200).
type ListBookingsResponse struct {
	Items      []*domain.Booking      `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListBookingsSuccessResponse is the success response envelope for GET /bookings (200).
type ListBookingsSuccessResponse struct {
	Data  ListBookingsResponse `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// ListBookings godoc
// @Summary List the caller's bookings
// @Description Employers see bookings on their calendar; candidates and recruiters see bookings they are the candidate on or made. Ordered by scheduled time.
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param status query string false "Comma-separated statuses"
// @Param from query string false "Scheduled on or after (YYYY-MM-DD)"
// @Param to query string false "Scheduled before (YYYY-MM-DD)"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListBookingsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or invalid_status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /bookings [get]
func (c *BookingController) ListBookings(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var filter domain.BookingFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			st, err := domain.ParseStatus(s)
			if err != nil {
				helpers.WriteServiceError(w, r, c.Logger, err)
				return
			}
			filter.Statuses = append(filter.Statuses, st)
		}
	}
	from, to, err := rangeQuery(r)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if !from.IsZero() {
		filter.From = &from
	}
	if !to.IsZero() {
		filter.To = &to
	}

	params, err := helpers.ParsePagination(r)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	list, total, err := c.Service.ListBookings(r.Context(), caller, filter, params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if list == nil {
		list = []*domain.Booking{}
	}
	meta := helpers.NewPaginationMeta(params, total)
	helpers.WriteJSONSuccess(w, http.StatusOK, ListBookingsResponse{Items: list, Pagination: meta})
}

// GetBooking godoc
// @Summary Get a booking
// @Description Visible to the booking's employer, candidate and booker, and to admins.
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param bookingID path string true "Booking ID (UUID)"
// @Success 200 {object} controllers.BookingSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /bookings/{bookingID} [get]
func (c *BookingController) GetBooking(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	bookingID, ok := pathUUID(w, r, "bookingID")
	if !ok {
		return
	}

	booking, err := c.Service.GetBooking(r.Context(), caller, bookingID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, booking)
}

// ChangeStatusRequest is the request body for POST /bookings/{bookingID}/status.
type ChangeStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Validate implements helpers.Validator. Unknown statuses are reported by the service as invalid_status.
func (req ChangeStatusRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(req.Status) == "" {
		errs = append(errs, "status is required")
	}
	if len(req.Reason) > maxReasonLength {
		errs = append(errs, fmt.Sprintf("reason must be at most %d characters", maxReasonLength))
	}
	return errs
}

// ChangeStatus godoc
// @Summary Move a booking to another status
// @Description Applies one lifecycle transition. Candidates may confirm, cancel or reschedule; employers drive the rest. Late candidate changes inside the notice window are rejected.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param bookingID path string true "Booking ID (UUID)"
// @Param body body controllers.ChangeStatusRequest true "Target status"
// @Success 200 {object} controllers.BookingSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or invalid_status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: transition_not_allowed or notice_window"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /bookings/{bookingID}/status [post]
func (c *BookingController) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	bookingID, ok := pathUUID(w, r, "bookingID")
	if !ok {
		return
	}
	var req ChangeStatusRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}

	booking, err := c.Service.ChangeStatus(r.Context(), caller, bookingID, domain.StatusChangeRequest{Status: status, Reason: req.Reason})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, booking)
}

// CancelBookingRequest is the request body for POST /bookings/{bookingID}/cancel.
type CancelBookingRequest struct {
	Reason string `json:"reason,omitempty"`
}

// Validate implements helpers.Validator.
func (req CancelBookingRequest) Validate() []string {
	if len(req.Reason) > maxReasonLength {
		return []string{fmt.Sprintf("reason must be at most %d characters", maxReasonLength)}
	}
	return nil
}

// CancelBooking godoc
// @Summary Cancel a booking
// @Description Cancels on behalf of whichever side the caller is on and releases the slot.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param bookingID path string true "Booking ID (UUID)"
// @Param body body controllers.CancelBookingRequest false "Reason"
// @Success 200 {object} controllers.BookingSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: transition_not_allowed or notice_window"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /bookings/{bookingID}/cancel [post]
func (c *BookingController) CancelBooking(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	bookingID, ok := pathUUID(w, r, "bookingID")
	if !ok {
		return
	}
	var req CancelBookingRequest
	if r.ContentLength != 0 && !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	booking, err := c.Service.Cancel(r.Context(), caller, bookingID, req.Reason)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, booking)
}

// RescheduleBookingRequest is the request body for POST /bookings/{bookingID}/reschedule.
type RescheduleBookingRequest struct {
	SlotID string `json:"slot_id"`
	Reason string `json:"reason,omitempty"`
}

// Validate implements helpers.Validator.
func (req RescheduleBookingRequest) Validate() []string {
	var errs []string
	if req.SlotID == "" {
		errs = append(errs, "slot_id is required")
	} else if _, err := uuid.Parse(req.SlotID); err != nil {
		errs = append(errs, "slot_id must be a UUID")
	}
	if len(req.Reason) > maxReasonLength {
		errs = append(errs, fmt.Sprintf("reason must be at most %d characters", maxReasonLength))
	}
	return errs
}

// RescheduleBooking godoc
// @Summary Move a booking to another slot
// @Description Moves the booking to another open slot of the same employer, releasing the old slot in the same transaction.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param bookingID path string true "Booking ID (UUID)"
// @Param body body controllers.RescheduleBookingRequest true "New slot"
// @Success 200 {object} controllers.BookingSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: slot_not_open, transition_not_allowed or notice_window"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /bookings/{bookingID}/reschedule [post]
func (c *BookingController) RescheduleBooking(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	bookingID, ok := pathUUID(w, r, "bookingID")
	if !ok {
		return
	}
	var req RescheduleBookingRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	booking, err := c.Service.Reschedule(r.Context(), caller, bookingID, domain.RescheduleRequest{
		SlotID: strings.ToLower(req.SlotID),
		Reason: req.Reason,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, booking)
}

// SubmitFeedbackRequest is the request body for PUT /bookings/{bookingID}/feedback.
type SubmitFeedbackRequest struct {
	Rating         int                   `json:"rating"`
	Recommendation domain.Recommendation `json:"recommendation"`
	Comments       string                `json:"comments,omitempty"`
	Strengths      []string              `json:"strengths,omitempty"`
	Improvements   []string              `json:"improvements,omitempty"`
	NextSteps      string                `json:"next_steps,omitempty"`
}

// Validate implements helpers.Validator.
func (req SubmitFeedbackRequest) Validate() []string {
	var errs []string
	if req.Rating < 1 || req.Rating > 5 {
		errs = append(errs, "rating must be between 1 and 5")
	}
	if req.Recommendation == "" {
		errs = append(errs, "recommendation is required")
	}
	if len(req.Comments) > domain.MaxNotesLength {
		errs = append(errs, fmt.Sprintf("comments must be at most %d characters", domain.MaxNotesLength))
	}
	return errs
}

// SubmitFeedback godoc
// @Summary Record interview feedback
// @Description Employer-side only, once the interview is in progress or completed.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param bookingID path string true "Booking ID (UUID)"
// @Param body body controllers.SubmitFeedbackRequest true "Feedback"
// @Success 200 {object} controllers.BookingSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: transition_not_allowed"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /bookings/{bookingID}/feedback [put]
func (c *BookingController) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	bookingID, ok := pathUUID(w, r, "bookingID")
	if !ok {
		return
	}
	var req SubmitFeedbackRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	booking, err := c.Service.SubmitFeedback(r.Context(), caller, bookingID, domain.Feedback{
		Rating:         req.Rating,
		Recommendation: req.Recommendation,
		Comments:       req.Comments,
		Strengths:      req.Strengths,
		Improvements:   req.Improvements,
		NextSteps:      req.NextSteps,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, booking)
}

// UpdateNotesRequest is the request body for PUT /bookings/{bookingID}/notes.
// The note lands in the caller's own field: candidate_notes or employer_notes.
type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

// Validate implements helpers.Validator.
func (req UpdateNotesRequest) Validate() []string {
	if len(req.Notes) > domain.MaxNotesLength {
		return []string{fmt.Sprintf("notes must be at most %d characters", domain.MaxNotesLength)}
	}
	return nil
}

// UpdateNotes godoc
// @Summary Update the caller's notes on a booking
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param bookingID path string true "Booking ID (UUID)"
// @Param body body controllers.UpdateNotesRequest true "Notes"
// @Success 200 {object} controllers.BookingSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /bookings/{bookingID}/notes [put]
func (c *BookingController) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	bookingID, ok := pathUUID(w, r, "bookingID")
	if !ok {
		return
	}
	var req UpdateNotesRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	booking, err := c.Service.UpdateNotes(r.Context(), caller, bookingID, req.Notes)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, booking)
}
