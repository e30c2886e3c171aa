package domain

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// BookingStatus is the lifecycle state of an interview booking.
type BookingStatus string

const (
	StatusScheduled            BookingStatus = "scheduled"
	StatusConfirmed            BookingStatus = "confirmed"
	StatusInProgress           BookingStatus = "in_progress"
	StatusCompleted            BookingStatus = "completed"
	StatusCancelledByCandidate BookingStatus = "cancelled_by_candidate"
	StatusCancelledByEmployer  BookingStatus = "cancelled_by_employer"
	StatusNoShowCandidate      BookingStatus = "no_show_candidate"
	StatusNoShowEmployer       BookingStatus = "no_show_employer"
	StatusRescheduled          BookingStatus = "rescheduled"
)

// AllStatuses lists every booking status.
var AllStatuses = []BookingStatus{
	StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted,
	StatusCancelledByCandidate, StatusCancelledByEmployer,
	StatusNoShowCandidate, StatusNoShowEmployer, StatusRescheduled,
}

// ActiveStatuses are the statuses of a booking that still holds an upcoming interview.
var ActiveStatuses = []BookingStatus{StatusScheduled, StatusConfirmed, StatusRescheduled}

// ParseStatus converts a raw string into a BookingStatus.
func ParseStatus(s string) (BookingStatus, error) {
	st := BookingStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllStatuses {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// IsCancellation reports whether the status is one of the cancelled states.
func (s BookingStatus) IsCancellation() bool {
	return s == StatusCancelledByCandidate || s == StatusCancelledByEmployer
}

// IsNoShow reports whether the status records a missed interview.
func (s BookingStatus) IsNoShow() bool {
	return s == StatusNoShowCandidate || s == StatusNoShowEmployer
}

// InterviewType is the kind of interview being held.
type InterviewType string

const (
	InterviewPhone     InterviewType = "phone"
	InterviewVideo     InterviewType = "video"
	InterviewInPerson  InterviewType = "in_person"
	InterviewTechnical InterviewType = "technical"
	InterviewPanel     InterviewType = "panel"
)

func (t InterviewType) Valid() bool {
	switch t {
	case InterviewPhone, InterviewVideo, InterviewInPerson, InterviewTechnical, InterviewPanel:
		return true
	}
	return false
}

// InterviewRound is the stage of the hiring process an interview belongs to.
type InterviewRound string

const (
	RoundScreening InterviewRound = "screening"
	RoundFirst     InterviewRound = "first"
	RoundSecond    InterviewRound = "second"
	RoundThird     InterviewRound = "third"
	RoundFinal     InterviewRound = "final"
)

func (r InterviewRound) Valid() bool {
	switch r {
	case RoundScreening, RoundFirst, RoundSecond, RoundThird, RoundFinal:
		return true
	}
	return false
}

// MeetingType is how the parties meet.
type MeetingType string

const (
	MeetingVideo    MeetingType = "video"
	MeetingPhone    MeetingType = "phone"
	MeetingInPerson MeetingType = "in_person"
)

// MeetingDetails tells both parties where and how to meet.
type MeetingDetails struct {
	Type         MeetingType `json:"type,omitempty"`
	Location     string      `json:"location,omitempty"`
	Link         string      `json:"link,omitempty"`
	Phone        string      `json:"phone,omitempty"`
	Instructions string      `json:"instructions,omitempty"`
}

// Validate checks that the meeting details match the meeting type.
func (m MeetingDetails) Validate() []string {
	var errs []string
	switch m.Type {
	case "":
	case MeetingVideo:
		if m.Link == "" {
			errs = append(errs, "meeting.link is required for video meetings")
		}
	case MeetingPhone:
		if m.Phone == "" {
			errs = append(errs, "meeting.phone is required for phone meetings")
		}
	case MeetingInPerson:
		if m.Location == "" {
			errs = append(errs, "meeting.location is required for in-person meetings")
		}
	default:
		errs = append(errs, "meeting.type must be one of: video, phone, in_person")
	}
	if len(m.Instructions) > 2000 {
		errs = append(errs, "meeting.instructions must be at most 2000 characters")
	}
	return errs
}

// CandidateContact is the candidate's contact data captured at booking time.
type CandidateContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Validate checks the contact snapshot.
func (c CandidateContact) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "candidate.name is required")
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		errs = append(errs, "candidate.email must be a valid email address")
	}
	return errs
}

// Recommendation is the interviewer's hiring recommendation.
type Recommendation string

const (
	RecommendStrongHire   Recommendation = "strong_hire"
	RecommendHire         Recommendation = "hire"
	RecommendMaybe        Recommendation = "maybe"
	RecommendNoHire       Recommendation = "no_hire"
	RecommendStrongNoHire Recommendation = "strong_no_hire"
)

// Feedback is the employer's assessment of a held interview.
type Feedback struct {
	Rating         int            `json:"rating"`
	Comments       string         `json:"comments,omitempty"`
	Recommendation Recommendation `json:"recommendation"`
	Strengths      []string       `json:"strengths,omitempty"`
	Improvements   []string       `json:"improvements,omitempty"`
	NextSteps      string         `json:"next_steps,omitempty"`
	SubmittedBy    string         `json:"submitted_by"`
	SubmittedAt    time.Time      `json:"submitted_at"`
}

// Validate checks rating range and recommendation value.
func (f Feedback) Validate() error {
	var problems []string
	if f.Rating < 1 || f.Rating > 5 {
		problems = append(problems, "rating must be between 1 and 5")
	}
	switch f.Recommendation {
	case RecommendStrongHire, RecommendHire, RecommendMaybe, RecommendNoHire, RecommendStrongNoHire:
	default:
		problems = append(problems, "recommendation must be one of: strong_hire, hire, maybe, no_hire, strong_no_hire")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

// ActorRole identifies which side of a booking is acting.
type ActorRole string

const (
	ActorCandidate ActorRole = "candidate"
	ActorEmployer  ActorRole = "employer"
	ActorSystem    ActorRole = "system"
)

// Actor is a caller resolved against a specific booking.
type Actor struct {
	ID   string    `json:"id"`
	Role ActorRole `json:"role"`
}

// RescheduleEntry records one move of a booking in time.
type RescheduleEntry struct {
	PreviousSlotID string    `json:"previous_slot_id"`
	PreviousDate   string    `json:"previous_date"`
	PreviousTime   string    `json:"previous_time"`
	NewSlotID      string    `json:"new_slot_id"`
	NewDate        string    `json:"new_date"`
	NewTime        string    `json:"new_time"`
	Reason         string    `json:"reason,omitempty"`
	Actor          Actor     `json:"actor"`
	At             time.Time `json:"at"`
}

// Booking is a candidate's reservation against a slot.
// swagger:model Booking
type Booking struct {
	ID                 string            `json:"id"`
	SlotID             string            `json:"slot_id"`
	EmployerID         string            `json:"employer_id"`
	CandidateID        string            `json:"candidate_id"`
	JobID              string            `json:"job_id"`
	ApplicationID      *string           `json:"application_id,omitempty"`
	BookedBy           string            `json:"booked_by"`
	Candidate          CandidateContact  `json:"candidate"`
	BookingToken       string            `json:"booking_token"`
	Status             BookingStatus     `json:"status"`
	InterviewType      InterviewType     `json:"interview_type"`
	Round              InterviewRound    `json:"interview_round"`
	ScheduledDate      time.Time         `json:"scheduled_date"`
	ScheduledTime      string            `json:"scheduled_time"`
	EndTime            string            `json:"end_time"`
	Timezone           string            `json:"timezone"`
	ScheduledAt        time.Time         `json:"scheduled_at"`
	Meeting            MeetingDetails    `json:"meeting"`
	CandidateNotes     string            `json:"candidate_notes,omitempty"`
	EmployerNotes      string            `json:"employer_notes,omitempty"`
	Feedback           *Feedback         `json:"feedback,omitempty"`
	Reminders          ReminderFlags     `json:"reminders"`
	RescheduleHistory  []RescheduleEntry `json:"reschedule_history"`
	CancellationReason string            `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
	ConfirmedAt        *time.Time        `json:"confirmed_at,omitempty"`
	StartedAt          *time.Time        `json:"started_at,omitempty"`
	CompletedAt        *time.Time        `json:"completed_at,omitempty"`
	CancelledAt        *time.Time        `json:"cancelled_at,omitempty"`
}

// PlaceOn copies the schedule of slot onto the booking.
func (b *Booking) PlaceOn(slot *Slot) error {
	at, err := slot.StartsAt()
	if err != nil {
		return err
	}
	b.SlotID = slot.ID
	b.EmployerID = slot.EmployerID
	b.ScheduledDate = slot.Date
	b.ScheduledTime = slot.StartTime
	b.EndTime = slot.EndTime
	b.Timezone = slot.Timezone
	b.ScheduledAt = at.UTC()
	return nil
}

// EndsAt returns the instant the interview is due to end.
func (b *Booking) EndsAt() (time.Time, error) {
	return At(b.ScheduledDate, b.EndTime, b.Timezone)
}

// Clone returns a deep copy safe to hand to event consumers.
func (b *Booking) Clone() *Booking {
	c := *b
	if b.ApplicationID != nil {
		v := *b.ApplicationID
		c.ApplicationID = &v
	}
	if b.Feedback != nil {
		fb := *b.Feedback
		fb.Strengths = append([]string(nil), b.Feedback.Strengths...)
		fb.Improvements = append([]string(nil), b.Feedback.Improvements...)
		c.Feedback = &fb
	}
	c.RescheduleHistory = append([]RescheduleEntry(nil), b.RescheduleHistory...)
	return &c
}

// MaxNotesLength bounds candidate and employer notes.
const MaxNotesLength = 2000

// CreateBookingRequest is the input for booking an open slot.
type CreateBookingRequest struct {
	SlotID         string
	JobID          string
	CandidateID    string
	Candidate      CandidateContact
	InterviewType  InterviewType
	Round          InterviewRound
	Meeting        MeetingDetails
	CandidateNotes string
	ApplicationID  *string
}

// StatusChangeRequest asks for a booking to move to a new status.
type StatusChangeRequest struct {
	Status BookingStatus
	Reason string
}

// RescheduleRequest moves a booking to another slot of the same employer.
type RescheduleRequest struct {
	SlotID string
	Reason string
}

// BookingFilter narrows booking listings.
type BookingFilter struct {
	EmployerID  string
	CandidateID string
	BookedBy    string
	Statuses    []BookingStatus
	From        *time.Time
	To          *time.Time
}

// BookingRepository defines storage operations for bookings.
type BookingRepository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	// GetByIDForUpdate reads the booking and locks it until the transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*Booking, error)
	Update(ctx context.Context, b *Booking) error
	List(ctx context.Context, f BookingFilter, page PaginationParams) ([]*Booking, int, error)
	CountLiveBySlot(ctx context.Context, slotID string) (int, error)
	ListUpcoming(ctx context.Context, from, to time.Time, statuses []BookingStatus) ([]*Booking, error)
	// ClaimReminder marks a reminder as sent, returning false if another sweep already did.
	ClaimReminder(ctx context.Context, bookingID string, audience Audience, lead ReminderLead) (bool, error)
}

// BookingService creates bookings and drives them through their lifecycle.
type BookingService interface {
	CreateBooking(ctx context.Context, caller Caller, req CreateBookingRequest) (*Booking, error)
	GetBooking(ctx context.Context, caller Caller, bookingID string) (*Booking, error)
	ListBookings(ctx context.Context, caller Caller, f BookingFilter, page PaginationParams) ([]*Booking, int, error)
	ChangeStatus(ctx context.Context, caller Caller, bookingID string, req StatusChangeRequest) (*Booking, error)
	Cancel(ctx context.Context, caller Caller, bookingID, reason string) (*Booking, error)
	Reschedule(ctx context.Context, caller Caller, bookingID string, req RescheduleRequest) (*Booking, error)
	SubmitFeedback(ctx context.Context, caller Caller, bookingID string, fb Feedback) (*Booking, error)
	UpdateNotes(ctx context.Context, caller Caller, bookingID, notes string) (*Booking, error)
}
