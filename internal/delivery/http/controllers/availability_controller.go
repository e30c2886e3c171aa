package controllers

import (
	"log/slog"
	"net/http"

	"interviewcalendar/internal/delivery/http/helpers"
	"interviewcalendar/internal/domain"
)

type AvailabilityController struct {
	Logger  *slog.Logger
	Service domain.AvailabilityService
}

func NewAvailabilityController(logger *slog.Logger, svc domain.AvailabilityService) *AvailabilityController {
	return &AvailabilityController{
		Logger:  logger,
		Service: svc,
	}
}

// AvailabilitySuccessResponse is the success response envelope for availability lookups (200).
type AvailabilitySuccessResponse struct {
	Data  *domain.Availability `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// EmployerAvailability godoc
// @Summary Get the caller's own calendar
// @Description Returns every slot of the calling employer in the range, grouped by date, including booked, closed and placeholder slots. Defaults to the current month. Admins pass employer_id.
// @Tags availability
// @Produce json
// @Security BearerAuth
// @Param month query string false "Month (YYYY-MM)"
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Exclusive end date (YYYY-MM-DD)"
// @Param employer_id query string false "Employer ID (admins only)"
// @Success 200 {object} controllers.AvailabilitySuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /employer/availability [get]
func (c *AvailabilityController) EmployerAvailability(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	from, to, err := rangeQuery(r)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}

	avail, err := c.Service.GetAvailability(r.Context(), caller, domain.AvailabilityQuery{
		EmployerID: r.URL.Query().Get("employer_id"),
		From:       from,
		To:         to,
		View:       domain.ViewEmployer,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, avail)
}

// CandidateAvailability godoc
// @Summary Get an employer's open slots
// @Description Returns the open, non-placeholder, future slots of an employer grouped by date. Defaults to the current month.
// @Tags availability
// @Produce json
// @Security BearerAuth
// @Param employerID path string true "Employer ID (UUID)"
// @Param month query string false "Month (YYYY-MM)"
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Exclusive end date (YYYY-MM-DD)"
// @Success 200 {object} controllers.AvailabilitySuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /employers/{employerID}/availability [get]
func (c *AvailabilityController) CandidateAvailability(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	employerID, ok := pathUUID(w, r, "employerID")
	if !ok {
		return
	}
	from, to, err := rangeQuery(r)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}

	avail, err := c.Service.GetAvailability(r.Context(), caller, domain.AvailabilityQuery{
		EmployerID: employerID,
		From:       from,
		To:         to,
		View:       domain.ViewCandidate,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, avail)
}
