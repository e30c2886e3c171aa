package domain

import "errors"

// Not-found errors. Each wraps ErrNotFound so callers can match either.
var (
	ErrNotFound             = errors.New("not found")
	ErrEmployerNotFound     = notFound("employer not found")
	ErrSlotNotFound         = notFound("slot not found")
	ErrBookingNotFound      = notFound("booking not found")
	ErrInvitationNotFound   = notFound("invitation not found")
	ErrNotificationNotFound = notFound("notification not found")
)

// Validation and authorization errors.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidStatus = errors.New("invalid booking status")
	ErrForbidden     = errors.New("forbidden")
)

// State-conflict errors: the request was well formed but the current state forbids it.
var (
	ErrConflict             = errors.New("conflict")
	ErrSlotNotOpen          = conflict("slot is not open for booking")
	ErrTransitionNotAllowed = conflict("transition not allowed from current status")
	ErrNoticeWindow         = conflict("too close to the interview to change it")
	ErrInvitationExpired    = conflict("invitation expired")
	ErrInvitationUsed       = conflict("invitation already used")
	ErrSlotInUse            = conflict("slot has live bookings")
	ErrSlotOverlap          = conflict("slot overlaps an existing slot")
)

type kindError struct {
	msg  string
	kind error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

func notFound(msg string) error { return &kindError{msg: msg, kind: ErrNotFound} }

func conflict(msg string) error { return &kindError{msg: msg, kind: ErrConflict} }
