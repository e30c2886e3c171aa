// Package gcal mirrors interview bookings into a Google Calendar.
package gcal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"interviewcalendar/internal/domain"
)

// Publisher is a domain.EventSubscriber that keeps one calendar event per booking.
type Publisher struct {
	events     *calendar.EventsService
	calendarID string
}

// NewPublisher authenticates with service-account credentials JSON.
func NewPublisher(ctx context.Context, credentialsJSON []byte, calendarID string) (*Publisher, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("parse google credentials: %w", err)
	}
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, creds.TokenSource)))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return newPublisher(svc, calendarID), nil
}

func newPublisher(svc *calendar.Service, calendarID string) *Publisher {
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Publisher{events: calendar.NewEventsService(svc), calendarID: calendarID}
}

func (p *Publisher) Name() string { return "google_calendar" }

func (p *Publisher) Handle(ctx context.Context, ev domain.BookingEvent) error {
	b := ev.Booking
	if b == nil {
		return nil
	}
	switch ev.Type {
	case domain.EventBookingCreated:
		return p.insert(ctx, b)
	case domain.EventBookingRescheduled:
		event, err := eventFor(b)
		if err != nil {
			return err
		}
		return p.patch(ctx, b, &calendar.Event{Start: event.Start, End: event.End, Summary: event.Summary})
	case domain.EventBookingCompleted:
		return p.patch(ctx, b, &calendar.Event{Summary: "[completed] " + summaryFor(b)})
	case domain.EventBookingCancelled, domain.EventBookingNoShow:
		err := p.events.Delete(p.calendarID, eventID(b.ID)).Context(ctx).Do()
		if err != nil && !isStatus(err, http.StatusNotFound, http.StatusGone) {
			return fmt.Errorf("delete calendar event: %w", err)
		}
	}
	return nil
}

func (p *Publisher) insert(ctx context.Context, b *domain.Booking) error {
	event, err := eventFor(b)
	if err != nil {
		return err
	}
	_, err = p.events.Insert(p.calendarID, event).Context(ctx).Do()
	if err != nil && !isStatus(err, http.StatusConflict) {
		return fmt.Errorf("insert calendar event: %w", err)
	}
	return nil
}

// patch updates the booking's event, creating it when it was never inserted.
func (p *Publisher) patch(ctx context.Context, b *domain.Booking, change *calendar.Event) error {
	_, err := p.events.Patch(p.calendarID, eventID(b.ID), change).Context(ctx).Do()
	if isStatus(err, http.StatusNotFound) {
		return p.insert(ctx, b)
	}
	if err != nil {
		return fmt.Errorf("patch calendar event: %w", err)
	}
	return nil
}

// eventID maps a booking id onto the calendar's base32hex id alphabet.
func eventID(bookingID string) string {
	return strings.ToLower(strings.ReplaceAll(bookingID, "-", ""))
}

func summaryFor(b *domain.Booking) string {
	name := b.Candidate.Name
	if name == "" {
		name = b.CandidateID
	}
	return fmt.Sprintf("%s interview: %s", strings.ReplaceAll(string(b.InterviewType), "_", " "), name)
}

func eventFor(b *domain.Booking) (*calendar.Event, error) {
	end, err := b.EndsAt()
	if err != nil {
		return nil, fmt.Errorf("booking end: %w", err)
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		loc = time.UTC
	}
	var desc strings.Builder
	fmt.Fprintf(&desc, "Round: %s\nCandidate: %s <%s>", b.Round, b.Candidate.Name, b.Candidate.Email)
	if b.Meeting.Link != "" {
		fmt.Fprintf(&desc, "\nJoin: %s", b.Meeting.Link)
	}
	if b.Meeting.Phone != "" {
		fmt.Fprintf(&desc, "\nPhone: %s", b.Meeting.Phone)
	}
	if b.Meeting.Instructions != "" {
		fmt.Fprintf(&desc, "\n\n%s", b.Meeting.Instructions)
	}
	return &calendar.Event{
		Id:          eventID(b.ID),
		Summary:     summaryFor(b),
		Description: desc.String(),
		Location:    b.Meeting.Location,
		Start:       &calendar.EventDateTime{DateTime: b.ScheduledAt.In(loc).Format(time.RFC3339), TimeZone: b.Timezone},
		End:         &calendar.EventDateTime{DateTime: end.In(loc).Format(time.RFC3339), TimeZone: b.Timezone},
	}, nil
}

func isStatus(err error, codes ...int) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	for _, c := range codes {
		if gerr.Code == c {
			return true
		}
	}
	return false
}
