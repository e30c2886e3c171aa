package controllers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"interviewcalendar/internal/delivery/http/helpers"
	"interviewcalendar/internal/domain"
)

type SlotController struct {
	Logger  *slog.Logger
	Service domain.SlotService
}

func NewSlotController(logger *slog.Logger, svc domain.SlotService) *SlotController {
	return &SlotController{
		Logger:  logger,
		Service: svc,
	}
}

// SlotSuccessResponse is the success response envelope for endpoints returning one slot.
type SlotSuccessResponse struct {
	Data  *domain.Slot      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// CreateSlotRequest is the request body for POST /employer/slots.
// EmployerID is honoured for admins only. Timezone defaults to the employer's.
type CreateSlotRequest struct {
	EmployerID string  `json:"employer_id,omitempty"`
	JobID      *string `json:"job_id,omitempty"`
	Date       string  `json:"date"`
	StartTime  string  `json:"start_time"`
	EndTime    string  `json:"end_time"`
	Timezone   string  `json:"timezone,omitempty"`
	Capacity   int     `json:"capacity"`
}

// Validate implements helpers.Validator.
func (req CreateSlotRequest) Validate() []string {
	var errs []string
	if req.Date == "" {
		errs = append(errs, "date is required")
	} else if _, err := parseDate("date", req.Date); err != nil {
		errs = append(errs, err.Error())
	}
	if !validClock(req.StartTime) {
		errs = append(errs, "start_time must be HH:MM")
	}
	if !validClock(req.EndTime) {
		errs = append(errs, "end_time must be HH:MM")
	}
	if req.Capacity < 1 || req.Capacity > domain.MaxSlotCapacity {
		errs = append(errs, fmt.Sprintf("capacity must be between 1 and %d", domain.MaxSlotCapacity))
	}
	if !validTimezone(req.Timezone) {
		errs = append(errs, "timezone must be an IANA time zone name")
	}
	return errs
}

func (req CreateSlotRequest) toSlot() *domain.Slot {
	date, _ := parseDate("date", req.Date)
	return &domain.Slot{
		EmployerID: req.EmployerID,
		JobID:      req.JobID,
		Date:       date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Timezone:   req.Timezone,
		Capacity:   req.Capacity,
	}
}

// CreateSlot godoc
// @Summary Create an interview slot
// @Description Creates one bookable slot for the calling employer. Slots may not overlap the employer's other slots on the same date.
// @Tags slots
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body controllers.CreateSlotRequest true "Slot"
// @Success 201 {object} controllers.SlotSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: slot_overlap"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /employer/slots [post]
func (c *SlotController) CreateSlot(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req CreateSlotRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	slot, err := c.Service.CreateSlot(r.Context(), caller, req.toSlot())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, slot)
}

// GenerateSlotsRequest is the request body for POST /employer/slots/generate.
// EmployerID is honoured for admins only.
type GenerateSlotsRequest struct {
	EmployerID    string   `json:"employer_id,omitempty"`
	JobID         *string  `json:"job_id,omitempty"`
	From          string   `json:"from"`
	To            string   `json:"to"`
	Weekdays      []string `json:"weekdays,omitempty"`
	WindowStart   string   `json:"window_start"`
	WindowEnd     string   `json:"window_end"`
	SlotMinutes   int      `json:"slot_minutes"`
	GapMinutes    int      `json:"gap_minutes,omitempty"`
	Capacity      int      `json:"capacity"`
	Timezone      string   `json:"timezone,omitempty"`
	weekdayValues []time.Weekday
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// parseWeekday accepts full or three-letter English day names.
func parseWeekday(v string) (time.Weekday, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if len(v) < 3 {
		return 0, false
	}
	wd, ok := weekdayNames[v[:3]]
	return wd, ok
}

// Validate implements helpers.Validator.
func (req *GenerateSlotsRequest) Validate() []string {
	var errs []string
	if _, err := parseDate("from", req.From); err != nil {
		errs = append(errs, err.Error())
	}
	if _, err := parseDate("to", req.To); err != nil {
		errs = append(errs, err.Error())
	}
	if !validClock(req.WindowStart) {
		errs = append(errs, "window_start must be HH:MM")
	}
	if !validClock(req.WindowEnd) {
		errs = append(errs, "window_end must be HH:MM")
	}
	if req.SlotMinutes < 5 || req.SlotMinutes > 8*60 {
		errs = append(errs, "slot_minutes must be between 5 and 480")
	}
	if req.GapMinutes < 0 {
		errs = append(errs, "gap_minutes must not be negative")
	}
	if req.Capacity < 1 || req.Capacity > domain.MaxSlotCapacity {
		errs = append(errs, fmt.Sprintf("capacity must be between 1 and %d", domain.MaxSlotCapacity))
	}
	if !validTimezone(req.Timezone) {
		errs = append(errs, "timezone must be an IANA time zone name")
	}
	req.weekdayValues = req.weekdayValues[:0]
	for _, d := range req.Weekdays {
		wd, ok := parseWeekday(d)
		if !ok {
			errs = append(errs, fmt.Sprintf("unknown weekday %q", d))
			continue
		}
		req.weekdayValues = append(req.weekdayValues, wd)
	}
	return errs
}

func (req *GenerateSlotsRequest) toInput() domain.SlotSeriesInput {
	from, _ := parseDate("from", req.From)
	to, _ := parseDate("to", req.To)
	return domain.SlotSeriesInput{
		EmployerID:  req.EmployerID,
		From:        from,
		To:          to,
		Weekdays:    req.weekdayValues,
		WindowStart: req.WindowStart,
		WindowEnd:   req.WindowEnd,
		Length:      time.Duration(req.SlotMinutes) * time.Minute,
		Gap:         time.Duration(req.GapMinutes) * time.Minute,
		Capacity:    req.Capacity,
		Timezone:    req.Timezone,
		JobID:       req.JobID,
	}
}

// GenerateSlotsResponse lists the slots a series created and those it skipped for overlapping.
type GenerateSlotsResponse struct {
	Created []*domain.Slot `json:"created"`
	Skipped []*domain.Slot `json:"skipped"`
}

// GenerateSlotsSuccessResponse is the success response envelope for POST /employer/slots/generate (201).
type GenerateSlotsSuccessResponse struct {
	Data  GenerateSlotsResponse `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

// GenerateSlots godoc
// @Summary Generate a series of slots
// @Description Splits a daily window into equal slots for every selected weekday in a date range (at most 92 days). Chunks overlapping existing slots are skipped and reported.
// @Tags slots
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body controllers.GenerateSlotsRequest true "Series"
// @Success 201 {object} controllers.GenerateSlotsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /employer/slots/generate [post]
func (c *SlotController) GenerateSlots(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req GenerateSlotsRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	created, skipped, err := c.Service.GenerateSlots(r.Context(), caller, req.toInput())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if created == nil {
		created = []*domain.Slot{}
	}
	if skipped == nil {
		skipped = []*domain.Slot{}
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, GenerateSlotsResponse{Created: created, Skipped: skipped})
}

// GetSlot godoc
// @Summary Get one of the caller's slots
// @Tags slots
// @Produce json
// @Security BearerAuth
// @Param slotID path string true "Slot ID (UUID)"
// @Success 200 {object} controllers.SlotSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /employer/slots/{slotID} [get]
func (c *SlotController) GetSlot(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	slotID, ok := pathUUID(w, r, "slotID")
	if !ok {
		return
	}

	slot, err := c.Service.GetSlot(r.Context(), caller, slotID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, slot)
}

// UpdateSlotRequest is the request body for PATCH /employer/slots/{slotID}. Omitted fields are kept.
type UpdateSlotRequest struct {
	Date      *string `json:"date,omitempty"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
	Timezone  *string `json:"timezone,omitempty"`
	Capacity  *int    `json:"capacity,omitempty"`
}

// Validate implements helpers.Validator.
func (req UpdateSlotRequest) Validate() []string {
	var errs []string
	if req.Date == nil && req.StartTime == nil && req.EndTime == nil && req.Timezone == nil && req.Capacity == nil {
		return []string{"at least one field must be set"}
	}
	if req.Date != nil {
		if _, err := parseDate("date", *req.Date); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if req.StartTime != nil && !validClock(*req.StartTime) {
		errs = append(errs, "start_time must be HH:MM")
	}
	if req.EndTime != nil && !validClock(*req.EndTime) {
		errs = append(errs, "end_time must be HH:MM")
	}
	if req.Timezone != nil && (*req.Timezone == "" || !validTimezone(*req.Timezone)) {
		errs = append(errs, "timezone must be an IANA time zone name")
	}
	if req.Capacity != nil && (*req.Capacity < 1 || *req.Capacity > domain.MaxSlotCapacity) {
		errs = append(errs, fmt.Sprintf("capacity must be between 1 and %d", domain.MaxSlotCapacity))
	}
	return errs
}

func (req UpdateSlotRequest) toUpdate() domain.SlotUpdate {
	upd := domain.SlotUpdate{
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Timezone:  req.Timezone,
		Capacity:  req.Capacity,
	}
	if req.Date != nil {
		d, _ := parseDate("date", *req.Date)
		upd.Date = &d
	}
	return upd
}

// UpdateSlot godoc
// @Summary Update a slot
// @Description Changes date, times, timezone or capacity. Capacity may not drop below the booked count, and the schedule may not change while live bookings hold the slot.
// @Tags slots
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slotID path string true "Slot ID (UUID)"
// @Param body body controllers.UpdateSlotRequest true "Fields to change"
// @Success 200 {object} controllers.SlotSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: slot_in_use or slot_overlap"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /employer/slots/{slotID} [patch]
func (c *SlotController) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	slotID, ok := pathUUID(w, r, "slotID")
	if !ok {
		return
	}
	var req UpdateSlotRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	slot, err := c.Service.UpdateSlot(r.Context(), caller, slotID, req.toUpdate())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, slot)
}

// SetSlotAvailabilityRequest is the request body for PUT /employer/slots/{slotID}/availability.
type SetSlotAvailabilityRequest struct {
	Available *bool `json:"available"`
}

// Validate implements helpers.Validator.
func (req SetSlotAvailabilityRequest) Validate() []string {
	if req.Available == nil {
		return []string{"available is required"}
	}
	return nil
}

// SetSlotAvailability godoc
// @Summary Open or close a slot for booking
// @Tags slots
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slotID path string true "Slot ID (UUID)"
// @Param body body controllers.SetSlotAvailabilityRequest true "Availability flag"
// @Success 200 {object} controllers.SlotSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /employer/slots/{slotID}/availability [put]
func (c *SlotController) SetSlotAvailability(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	slotID, ok := pathUUID(w, r, "slotID")
	if !ok {
		return
	}
	var req SetSlotAvailabilityRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	slot, err := c.Service.SetSlotAvailability(r.Context(), caller, slotID, *req.Available)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, slot)
}

// DeleteSlotResponse is the data payload for DELETE /employer/slots/{slotID} (200).
type DeleteSlotResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// DeleteSlotSuccessResponse is the success response envelope for DELETE /employer/slots/{slotID} (200).
type DeleteSlotSuccessResponse struct {
	Data  DeleteSlotResponse `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// DeleteSlot godoc
// @Summary Delete a slot
// @Description Removes a slot from the calendar. Rejected while any live booking references it.
// @Tags slots
// @Produce json
// @Security BearerAuth
// @Param slotID path string true "Slot ID (UUID)"
// @Success 200 {object} controllers.DeleteSlotSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: slot_in_use"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /employer/slots/{slotID} [delete]
func (c *SlotController) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	slotID, ok := pathUUID(w, r, "slotID")
	if !ok {
		return
	}

	if err := c.Service.DeleteSlot(r.Context(), caller, slotID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, DeleteSlotResponse{ID: slotID, Deleted: true})
}
