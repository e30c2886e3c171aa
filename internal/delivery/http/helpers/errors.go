package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"interviewcalendar/internal/domain"
)

// SlotTakenMessage is shown when a slot filled up between listing and booking.
const SlotTakenMessage = "this time is no longer available, please choose another"

var conflictCodes = []struct {
	err  error
	code string
}{
	{domain.ErrSlotNotOpen, ErrCodeSlotNotOpen},
	{domain.ErrTransitionNotAllowed, ErrCodeTransitionNotAllowed},
	{domain.ErrNoticeWindow, ErrCodeNoticeWindow},
	{domain.ErrInvitationExpired, ErrCodeInvitationExpired},
	{domain.ErrInvitationUsed, ErrCodeInvitationUsed},
	{domain.ErrSlotInUse, ErrCodeSlotInUse},
	{domain.ErrSlotOverlap, ErrCodeSlotOverlap},
}

// StatusFor maps a service error onto an HTTP status, error code and client message.
func StatusFor(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidStatus):
		return http.StatusBadRequest, ErrCodeInvalidStatus, err.Error()
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrCodeBadRequest, err.Error()
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, ErrCodeForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound, notFoundMessage(err)
	case errors.Is(err, domain.ErrConflict):
		for _, c := range conflictCodes {
			if errors.Is(err, c.err) {
				if c.code == ErrCodeSlotNotOpen {
					return http.StatusConflict, c.code, SlotTakenMessage
				}
				return http.StatusConflict, c.code, c.err.Error()
			}
		}
		return http.StatusConflict, ErrCodeConflict, err.Error()
	}
	return http.StatusInternalServerError, ErrCodeInternalError, "internal server error"
}

func notFoundMessage(err error) string {
	for _, e := range []error{domain.ErrEmployerNotFound, domain.ErrSlotNotFound, domain.ErrBookingNotFound, domain.ErrInvitationNotFound, domain.ErrNotificationNotFound} {
		if errors.Is(err, e) {
			return e.Error()
		}
	}
	return "not found"
}

// WriteServiceError writes the envelope for err. Unmapped errors are logged with the
// request path and method before a 500 is written.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code, msg := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	}
	WriteJSONError(w, status, code, msg)
}
