package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// bookingTransitions is the booking state machine: current status to the statuses it may move to.
// Statuses without an entry are terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	StatusScheduled: {
		StatusConfirmed,
		StatusCancelledByCandidate, StatusCancelledByEmployer,
		StatusRescheduled,
		StatusNoShowCandidate, StatusNoShowEmployer,
	},
	StatusRescheduled: {
		StatusConfirmed,
		StatusCancelledByCandidate, StatusCancelledByEmployer,
		StatusRescheduled,
		StatusNoShowCandidate, StatusNoShowEmployer,
	},
	StatusConfirmed: {
		StatusInProgress,
		StatusCancelledByCandidate, StatusCancelledByEmployer,
		StatusRescheduled,
		StatusNoShowCandidate, StatusNoShowEmployer,
	},
	StatusInProgress: {
		StatusCompleted,
	},
}

// actorTargets limits which statuses each side of a booking may request.
var actorTargets = map[ActorRole][]BookingStatus{
	ActorCandidate: {StatusConfirmed, StatusCancelledByCandidate, StatusRescheduled},
	ActorEmployer: {
		StatusConfirmed, StatusInProgress, StatusCompleted,
		StatusCancelledByEmployer, StatusRescheduled,
		StatusNoShowCandidate, StatusNoShowEmployer,
	},
}

// IsTransitionAllowed reports whether the state machine permits from -> to.
func IsTransitionAllowed(from, to BookingStatus) bool {
	return slices.Contains(bookingTransitions[from], to)
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s BookingStatus) bool {
	return len(bookingTransitions[s]) == 0
}

// AllowedTransitions returns the statuses reachable from s in one step.
func AllowedTransitions(s BookingStatus) []BookingStatus {
	return slices.Clone(bookingTransitions[s])
}

// CancellationFor returns the cancelled status matching the acting side.
func CancellationFor(role ActorRole) BookingStatus {
	if role == ActorCandidate {
		return StatusCancelledByCandidate
	}
	return StatusCancelledByEmployer
}

// NoticePolicy is the minimum lead time before an interview for late changes.
type NoticePolicy struct {
	Window         time.Duration
	EmployerExempt bool
}

// DefaultNoticePolicy requires two hours of notice from candidates only.
var DefaultNoticePolicy = NoticePolicy{Window: 2 * time.Hour, EmployerExempt: true}

func (p NoticePolicy) applies(role ActorRole) bool {
	if p.Window <= 0 {
		return false
	}
	return role == ActorCandidate || !p.EmployerExempt
}

// Transition is a request to move a booking to another status.
type Transition struct {
	To     BookingStatus
	Actor  Actor
	Reason string
	// NewSlot is the destination of a reschedule.
	NewSlot *Slot
	Now     time.Time
	Notice  NoticePolicy
}

// TransitionResult describes the side effects the caller must persist.
type TransitionResult struct {
	From BookingStatus
	To   BookingStatus
	// ReleaseSlotID is the slot that gives back one unit of capacity, if any.
	ReleaseSlotID string
	// ReserveSlotID is the slot that must take one unit of capacity, if any.
	ReserveSlotID string
	Events        []BookingEvent
}

// ApplyTransition validates t against the state machine and applies it to b.
// b is mutated only when the transition is allowed.
func ApplyTransition(b *Booking, t Transition) (*TransitionResult, error) {
	if _, err := ParseStatus(string(t.To)); err != nil {
		return nil, err
	}
	if !IsTransitionAllowed(b.Status, t.To) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, b.Status, t.To)
	}
	if !slices.Contains(actorTargets[t.Actor.Role], t.To) {
		return nil, fmt.Errorf("%w: %s may not set status %s", ErrForbidden, t.Actor.Role, t.To)
	}

	now := t.Now
	if now.IsZero() {
		now = time.Now()
	}
	until := b.ScheduledAt.Sub(now)

	res := &TransitionResult{From: b.Status, To: t.To}
	var reschedule *RescheduleEntry

	switch {
	case t.To == StatusConfirmed:
		if until <= 0 {
			return nil, fmt.Errorf("%w: interview time has passed", ErrTransitionNotAllowed)
		}
		b.ConfirmedAt = &now

	case t.To.IsCancellation():
		if t.Notice.applies(t.Actor.Role) && until <= t.Notice.Window {
			return nil, fmt.Errorf("%w: cancellations need %s notice", ErrNoticeWindow, t.Notice.Window)
		}
		b.CancellationReason = strings.TrimSpace(t.Reason)
		b.CancelledAt = &now
		res.ReleaseSlotID = b.SlotID

	case t.To == StatusRescheduled:
		if t.NewSlot == nil {
			return nil, fmt.Errorf("%w: reschedule needs a destination slot", ErrInvalidInput)
		}
		if t.NewSlot.ID == b.SlotID {
			return nil, fmt.Errorf("%w: booking is already on this slot", ErrInvalidInput)
		}
		if t.NewSlot.EmployerID != b.EmployerID {
			return nil, fmt.Errorf("%w: slot belongs to another employer", ErrForbidden)
		}
		if t.Notice.applies(t.Actor.Role) && until <= t.Notice.Window {
			return nil, fmt.Errorf("%w: reschedules need %s notice", ErrNoticeWindow, t.Notice.Window)
		}
		entry := RescheduleEntry{
			PreviousSlotID: b.SlotID,
			PreviousDate:   b.ScheduledDate.Format(DateLayout),
			PreviousTime:   b.ScheduledTime,
			NewSlotID:      t.NewSlot.ID,
			NewDate:        t.NewSlot.DateKey(),
			NewTime:        t.NewSlot.StartTime,
			Reason:         strings.TrimSpace(t.Reason),
			Actor:          t.Actor,
			At:             now,
		}
		res.ReleaseSlotID = b.SlotID
		res.ReserveSlotID = t.NewSlot.ID
		if err := b.PlaceOn(t.NewSlot); err != nil {
			return nil, err
		}
		b.RescheduleHistory = append(b.RescheduleHistory, entry)
		b.Reminders = ReminderFlags{}
		b.ConfirmedAt = nil
		reschedule = &entry

	case t.To == StatusInProgress:
		b.StartedAt = &now

	case t.To == StatusCompleted:
		b.CompletedAt = &now
	}

	b.Status = t.To
	b.UpdatedAt = now
	res.Events = []BookingEvent{{
		Type:       eventTypeFor(t.To),
		Booking:    b.Clone(),
		Actor:      t.Actor,
		Reschedule: reschedule,
		OccurredAt: now,
	}}
	return res, nil
}

func eventTypeFor(s BookingStatus) EventType {
	switch {
	case s == StatusConfirmed:
		return EventBookingConfirmed
	case s.IsCancellation():
		return EventBookingCancelled
	case s == StatusRescheduled:
		return EventBookingRescheduled
	case s == StatusInProgress:
		return EventBookingStarted
	case s == StatusCompleted:
		return EventBookingCompleted
	case s.IsNoShow():
		return EventBookingNoShow
	}
	return EventBookingCreated
}
