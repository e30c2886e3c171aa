package controllers

import (
	"log/slog"
	"net/http"
	"net/mail"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"interviewcalendar/internal/delivery/http/helpers"
	"interviewcalendar/internal/domain"
)

// tokenRegex matches the URL-safe base64 alphabet invitation tokens are drawn from.
var tokenRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{16,128}$`)

type InvitationController struct {
	Logger  *slog.Logger
	Service domain.InvitationService
}

func NewInvitationController(logger *slog.Logger, svc domain.InvitationService) *InvitationController {
	return &InvitationController{
		Logger:  logger,
		Service: svc,
	}
}

// ApplicationStatusRequest is the request body for POST /employer/applications/{applicationID}/status.
// EmployerID is honoured for admins only.
type ApplicationStatusRequest struct {
	EmployerID     string `json:"employer_id,omitempty"`
	Status         string `json:"status"`
	JobID          string `json:"job_id"`
	JobTitle       string `json:"job_title"`
	CandidateID    string `json:"candidate_id"`
	CandidateName  string `json:"candidate_name"`
	CandidateEmail string `json:"candidate_email"`
	CandidatePhone string `json:"candidate_phone,omitempty"`
}

// Validate implements helpers.Validator.
func (req ApplicationStatusRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(req.Status) == "" {
		errs = append(errs, "status is required")
	}
	if req.JobID == "" {
		errs = append(errs, "job_id is required")
	}
	if req.CandidateID == "" {
		errs = append(errs, "candidate_id is required")
	}
	if strings.TrimSpace(req.CandidateName) == "" {
		errs = append(errs, "candidate_name is required")
	}
	if _, err := mail.ParseAddress(req.CandidateEmail); err != nil {
		errs = append(errs, "candidate_email must be a valid email address")
	}
	return errs
}

// ApplicationStatusResponse is the data payload for POST /employer/applications/{applicationID}/status.
// Invitation is set only when the status invites the candidate to an interview.
type ApplicationStatusResponse struct {
	Invited    bool                     `json:"invited"`
	Invitation *domain.InvitationIssued `json:"invitation,omitempty"`
}

// ApplicationStatusSuccessResponse is the success response envelope for POST /employer/applications/{applicationID}/status.
type ApplicationStatusSuccessResponse struct {
	Data  ApplicationStatusResponse `json:"data"`
	Error *helpers.APIError         `json:"error"`
}

// ApplicationStatusChanged godoc
// @Summary Notify an application status change
// @Description Moving an application to assessment, phone_interview or in_person_interview issues a single-use scheduling link to the candidate, replacing any earlier link. Other statuses are acknowledged without action.
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param applicationID path string true "Application ID (UUID)"
// @Param body body controllers.ApplicationStatusRequest true "New status and candidate"
// @Success 200 {object} controllers.ApplicationStatusSuccessResponse "No invitation issued"
// @Success 201 {object} controllers.ApplicationStatusSuccessResponse "Invitation issued"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /employer/applications/{applicationID}/status [post]
func (c *InvitationController) ApplicationStatusChanged(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	applicationID, ok := pathUUID(w, r, "applicationID")
	if !ok {
		return
	}
	var req ApplicationStatusRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	issued, err := c.Service.InviteForApplication(r.Context(), caller, domain.ApplicationStatusChange{
		EmployerID:     req.EmployerID,
		ApplicationID:  applicationID,
		JobID:          req.JobID,
		JobTitle:       req.JobTitle,
		CandidateID:    req.CandidateID,
		CandidateName:  strings.TrimSpace(req.CandidateName),
		CandidateEmail: strings.TrimSpace(req.CandidateEmail),
		CandidatePhone: req.CandidatePhone,
		Status:         domain.ApplicationStatus(strings.ToLower(strings.TrimSpace(req.Status))),
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if issued == nil {
		helpers.WriteJSONSuccess(w, http.StatusOK, ApplicationStatusResponse{Invited: false})
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, ApplicationStatusResponse{Invited: true, Invitation: issued})
}

// InvitationSuccessResponse is the success response envelope for GET /invitations/{token} (200).
type InvitationSuccessResponse struct {
	Data  *domain.InvitationContext `json:"data"`
	Error *helpers.APIError         `json:"error"`
}

func pathToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := r.PathValue("token")
	if !tokenRegex.MatchString(token) {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, domain.ErrInvitationNotFound.Error())
		return "", false
	}
	return token, true
}

// GetInvitation godoc
// @Summary Open a scheduling link
// @Description Returns the invitation, its pending booking and the employer. Public: the token is the credential.
// @Tags invitations
// @Produce json
// @Param token path string true "Invitation token"
// @Success 200 {object} controllers.InvitationSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: invitation_expired or invitation_used"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations/{token} [get]
func (c *InvitationController) GetInvitation(w http.ResponseWriter, r *http.Request) {
	token, ok := pathToken(w, r)
	if !ok {
		return
	}

	ictx, err := c.Service.GetInvitation(r.Context(), token)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ictx)
}

// InvitationAvailability godoc
// @Summary List times a scheduling link may pick
// @Description Candidate view of the inviting employer's open slots. Defaults to the current month.
// @Tags invitations
// @Produce json
// @Param token path string true "Invitation token"
// @Param month query string false "Month (YYYY-MM)"
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Exclusive end date (YYYY-MM-DD)"
// @Success 200 {object} controllers.AvailabilitySuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: invitation_expired or invitation_used"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations/{token}/availability [get]
func (c *InvitationController) InvitationAvailability(w http.ResponseWriter, r *http.Request) {
	token, ok := pathToken(w, r)
	if !ok {
		return
	}
	from, to, err := rangeQuery(r)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}

	avail, err := c.Service.InvitationAvailability(r.Context(), token, from, to)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, avail)
}

// ScheduleFromInvitationRequest is the request body for POST /invitations/{token}/schedule.
type ScheduleFromInvitationRequest struct {
	SlotID string `json:"slot_id"`
}

// Validate implements helpers.Validator.
func (req ScheduleFromInvitationRequest) Validate() []string {
	if req.SlotID == "" {
		return []string{"slot_id is required"}
	}
	if _, err := uuid.Parse(req.SlotID); err != nil {
		return []string{"slot_id must be a UUID"}
	}
	return nil
}

// ScheduleFromInvitation godoc
// @Summary Pick a time through a scheduling link
// @Description Moves the invitation's pending booking onto the chosen open slot and consumes the link.
// @Tags invitations
// @Accept json
// @Produce json
// @Param token path string true "Invitation token"
// @Param body body controllers.ScheduleFromInvitationRequest true "Chosen slot"
// @Success 200 {object} controllers.BookingSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: slot_not_open, invitation_expired or invitation_used"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations/{token}/schedule [post]
func (c *InvitationController) ScheduleFromInvitation(w http.ResponseWriter, r *http.Request) {
	token, ok := pathToken(w, r)
	if !ok {
		return
	}
	var req ScheduleFromInvitationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	booking, err := c.Service.ScheduleFromInvitation(r.Context(), token, strings.ToLower(req.SlotID))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, booking)
}
