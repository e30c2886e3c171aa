package domain

import (
	"context"
	"time"
)

// EventType names a booking lifecycle event.
type EventType string

const (
	EventBookingCreated     EventType = "booking.created"
	EventBookingConfirmed   EventType = "booking.confirmed"
	EventBookingCancelled   EventType = "booking.cancelled"
	EventBookingRescheduled EventType = "booking.rescheduled"
	EventBookingStarted     EventType = "booking.started"
	EventBookingCompleted   EventType = "booking.completed"
	EventBookingNoShow      EventType = "booking.no_show"
	EventBookingReminder    EventType = "booking.reminder"
	EventInvitationCreated  EventType = "invitation.created"
)

// BookingEvent is emitted by a committed booking mutation for side-channel consumers.
type BookingEvent struct {
	Type       EventType
	Booking    *Booking
	Actor      Actor
	Reschedule *RescheduleEntry
	// Audience and Lead are set on reminder events.
	Audience Audience
	Lead     ReminderLead
	// Invitation is set on invitation events.
	Invitation *InvitationNotice
	OccurredAt time.Time
}

// InvitationNotice carries what a candidate needs to act on an invitation.
type InvitationNotice struct {
	ScheduleURL string
	ExpiresAt   time.Time
	CompanyName string
	JobTitle    string
}

// EventPublisher hands committed events to side-channel consumers.
// Publishing never fails from the caller's point of view.
type EventPublisher interface {
	Publish(ctx context.Context, events ...BookingEvent)
}

// EventSubscriber consumes raw booking events, e.g. to mirror them into a calendar.
type EventSubscriber interface {
	Name() string
	Handle(ctx context.Context, ev BookingEvent) error
}
