package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"interviewcalendar/internal/delivery/http/controllers"
	"interviewcalendar/internal/delivery/http/middleware"
	"interviewcalendar/internal/domain"
)

// Controllers groups the handlers the router mounts.
type Controllers struct {
	Health        *controllers.HealthController
	Slots         *controllers.SlotController
	Availability  *controllers.AvailabilityController
	Bookings      *controllers.BookingController
	Invitations   *controllers.InvitationController
	Notifications *controllers.NotificationController
}

// NewRouter initializes the HTTP router with all application routes.
// Health, swagger and invitation routes are public; everything else requires a bearer token.
func NewRouter(c Controllers, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier, logger)
	employer := func(h http.HandlerFunc) http.HandlerFunc {
		return auth(middleware.RequireRole(domain.RoleEmployer, domain.RoleAdmin)(h))
	}

	mux.HandleFunc("GET /health", c.Health.Health)

	// Employer calendar
	mux.HandleFunc("POST /employer/slots", employer(c.Slots.CreateSlot))
	mux.HandleFunc("POST /employer/slots/generate", employer(c.Slots.GenerateSlots))
	mux.HandleFunc("GET /employer/slots/{slotID}", employer(c.Slots.GetSlot))
	mux.HandleFunc("PATCH /employer/slots/{slotID}", employer(c.Slots.UpdateSlot))
	mux.HandleFunc("PUT /employer/slots/{slotID}/availability", employer(c.Slots.SetSlotAvailability))
	mux.HandleFunc("DELETE /employer/slots/{slotID}", employer(c.Slots.DeleteSlot))
	mux.HandleFunc("GET /employer/availability", employer(c.Availability.EmployerAvailability))
	mux.HandleFunc("POST /employer/applications/{applicationID}/status", employer(c.Invitations.ApplicationStatusChanged))

	mux.HandleFunc("GET /employers/{employerID}/availability", auth(c.Availability.CandidateAvailability))

	// Bookings
	mux.HandleFunc("POST /bookings", auth(c.Bookings.CreateBooking))
	mux.HandleFunc("GET /bookings", auth(c.Bookings.ListBookings))
	mux.HandleFunc("GET /bookings/{bookingID}", auth(c.Bookings.GetBooking))
	mux.HandleFunc("POST /bookings/{bookingID}/status", auth(c.Bookings.ChangeStatus))
	mux.HandleFunc("POST /bookings/{bookingID}/cancel", auth(c.Bookings.CancelBooking))
	mux.HandleFunc("POST /bookings/{bookingID}/reschedule", auth(c.Bookings.RescheduleBooking))
	mux.HandleFunc("PUT /bookings/{bookingID}/feedback", auth(c.Bookings.SubmitFeedback))
	mux.HandleFunc("PUT /bookings/{bookingID}/notes", auth(c.Bookings.UpdateNotes))

	// Inbox
	mux.HandleFunc("GET /me/notifications", auth(c.Notifications.ListNotifications))
	mux.HandleFunc("POST /me/notifications/{notificationID}/read", auth(c.Notifications.MarkNotificationRead))

	// Scheduling links
	mux.HandleFunc("GET /invitations/{token}", c.Invitations.GetInvitation)
	mux.HandleFunc("GET /invitations/{token}/availability", c.Invitations.InvitationAvailability)
	mux.HandleFunc("POST /invitations/{token}/schedule", c.Invitations.ScheduleFromInvitation)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
