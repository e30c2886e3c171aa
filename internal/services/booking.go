package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"interviewcalendar/internal/domain"
)

type bookingService struct {
	store          domain.Store
	publisher      domain.EventPublisher
	notice         domain.NoticePolicy
	contextTimeout time.Duration
	now            func() time.Time
	newToken       func() string
}

func NewBookingService(store domain.Store, publisher domain.EventPublisher, notice domain.NoticePolicy, timeout time.Duration) domain.BookingService {
	return &bookingService{
		store:          store,
		publisher:      publisher,
		notice:         notice,
		contextTimeout: timeout,
		now:            time.Now,
		newToken:       uuid.NewString,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, caller domain.Caller, req domain.CreateBookingRequest) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	switch {
	case caller.HasRole(domain.RoleRecruiter) || caller.IsAdmin():
		if req.CandidateID == "" {
			return nil, fmt.Errorf("%w: candidate_id is required", domain.ErrInvalidInput)
		}
	case caller.HasRole(domain.RoleCandidate):
		if req.CandidateID != "" && req.CandidateID != caller.ID {
			return nil, fmt.Errorf("%w: candidates book only for themselves", domain.ErrForbidden)
		}
		req.CandidateID = caller.ID
		if req.Candidate.Email == "" {
			req.Candidate.Email = caller.Email
		}
	default:
		return nil, fmt.Errorf("%w: candidate or recruiter role required", domain.ErrForbidden)
	}
	if req.InterviewType == "" {
		req.InterviewType = domain.InterviewVideo
	}
	if req.Round == "" {
		req.Round = domain.RoundFirst
	}
	if err := validateCreateBooking(req); err != nil {
		return nil, err
	}

	var booking *domain.Booking
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		slot, err := tx.Slots().GetByID(ctx, req.SlotID)
		if err != nil {
			return err
		}
		if slot.IsPlaceholder || startsBefore(slot, s.now()) {
			return domain.ErrSlotNotOpen
		}
		jobID := req.JobID
		if slot.JobID != nil {
			if jobID != "" && jobID != *slot.JobID {
				return fmt.Errorf("%w: slot is reserved for another job", domain.ErrInvalidInput)
			}
			jobID = *slot.JobID
		}
		if jobID == "" {
			return fmt.Errorf("%w: job_id is required", domain.ErrInvalidInput)
		}

		reserved, err := tx.Slots().IncrementBooked(ctx, slot.ID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		b := &domain.Booking{
			CandidateID:       req.CandidateID,
			JobID:             jobID,
			ApplicationID:     req.ApplicationID,
			BookedBy:          caller.ID,
			Candidate:         req.Candidate,
			BookingToken:      s.newToken(),
			Status:            domain.StatusScheduled,
			InterviewType:     req.InterviewType,
			Round:             req.Round,
			Meeting:           req.Meeting,
			CandidateNotes:    strings.TrimSpace(req.CandidateNotes),
			RescheduleHistory: []domain.RescheduleEntry{},
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := b.PlaceOn(reserved); err != nil {
			return err
		}
		if err := tx.Bookings().Create(ctx, b); err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, domain.BookingEvent{
		Type:       domain.EventBookingCreated,
		Booking:    booking.Clone(),
		Actor:      creatorActor(caller),
		OccurredAt: booking.CreatedAt,
	})
	return booking, nil
}

func validateCreateBooking(req domain.CreateBookingRequest) error {
	var problems []string
	if strings.TrimSpace(req.SlotID) == "" {
		problems = append(problems, "slot_id is required")
	}
	problems = append(problems, req.Candidate.Validate()...)
	problems = append(problems, req.Meeting.Validate()...)
	if !req.InterviewType.Valid() {
		problems = append(problems, "interview_type is invalid")
	}
	if !req.Round.Valid() {
		problems = append(problems, "interview_round is invalid")
	}
	if len(req.CandidateNotes) > domain.MaxNotesLength {
		problems = append(problems, fmt.Sprintf("candidate_notes must be at most %d characters", domain.MaxNotesLength))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

func (s *bookingService) GetBooking(ctx context.Context, caller domain.Caller, bookingID string) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	b, err := s.store.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if _, err := resolveActor(caller, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *bookingService) ListBookings(ctx context.Context, caller domain.Caller, f domain.BookingFilter, page domain.PaginationParams) ([]*domain.Booking, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	switch {
	case caller.IsAdmin():
	case caller.HasRole(domain.RoleEmployer):
		f.EmployerID = caller.ID
		f.CandidateID, f.BookedBy = "", ""
	case caller.HasRole(domain.RoleCandidate, domain.RoleRecruiter):
		f.EmployerID = ""
		f.CandidateID, f.BookedBy = caller.ID, caller.ID
	default:
		return nil, 0, fmt.Errorf("%w: no role may list bookings", domain.ErrForbidden)
	}
	bookings, total, err := s.store.Bookings().List(ctx, f, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, total, nil
}

func (s *bookingService) ChangeStatus(ctx context.Context, caller domain.Caller, bookingID string, req domain.StatusChangeRequest) (*domain.Booking, error) {
	status, err := domain.ParseStatus(string(req.Status))
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, caller, bookingID, func(_ domain.Store, _ *domain.Booking, _ domain.Actor) (domain.Transition, error) {
		return domain.Transition{To: status, Reason: req.Reason}, nil
	})
}

func (s *bookingService) Cancel(ctx context.Context, caller domain.Caller, bookingID, reason string) (*domain.Booking, error) {
	return s.transition(ctx, caller, bookingID, func(_ domain.Store, _ *domain.Booking, actor domain.Actor) (domain.Transition, error) {
		return domain.Transition{To: domain.CancellationFor(actor.Role), Reason: reason}, nil
	})
}

func (s *bookingService) Reschedule(ctx context.Context, caller domain.Caller, bookingID string, req domain.RescheduleRequest) (*domain.Booking, error) {
	if strings.TrimSpace(req.SlotID) == "" {
		return nil, fmt.Errorf("%w: slot_id is required", domain.ErrInvalidInput)
	}
	return s.transition(ctx, caller, bookingID, func(tx domain.Store, b *domain.Booking, _ domain.Actor) (domain.Transition, error) {
		slot, err := tx.Slots().GetByID(ctx, req.SlotID)
		if err != nil {
			return domain.Transition{}, err
		}
		if slot.ID != b.SlotID && (slot.IsPlaceholder || !slot.IsOpen() || startsBefore(slot, s.now())) {
			return domain.Transition{}, domain.ErrSlotNotOpen
		}
		return domain.Transition{To: domain.StatusRescheduled, NewSlot: slot, Reason: req.Reason}, nil
	})
}

type transitionBuilder func(tx domain.Store, b *domain.Booking, actor domain.Actor) (domain.Transition, error)

// transition locks the booking, applies the transition and moves slot capacity in one transaction.
// Events are published only after commit.
func (s *bookingService) transition(ctx context.Context, caller domain.Caller, bookingID string, build transitionBuilder) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var (
		out    *domain.Booking
		events []domain.BookingEvent
	)
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		b, err := tx.Bookings().GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		actor, err := resolveActor(caller, b)
		if err != nil {
			return err
		}
		t, err := build(tx, b, actor)
		if err != nil {
			return err
		}
		t.Actor = actor
		t.Now = s.now().UTC()
		t.Notice = s.notice

		res, err := domain.ApplyTransition(b, t)
		if err != nil {
			return err
		}
		if res.ReserveSlotID != "" {
			if _, err := tx.Slots().IncrementBooked(ctx, res.ReserveSlotID); err != nil {
				return err
			}
		}
		if res.ReleaseSlotID != "" {
			if _, err := tx.Slots().DecrementBooked(ctx, res.ReleaseSlotID); err != nil {
				return fmt.Errorf("release slot: %w", err)
			}
		}
		if err := tx.Bookings().Update(ctx, b); err != nil {
			return fmt.Errorf("update booking: %w", err)
		}
		out = b
		events = res.Events
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, events...)
	return out, nil
}

func (s *bookingService) SubmitFeedback(ctx context.Context, caller domain.Caller, bookingID string, fb domain.Feedback) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := fb.Validate(); err != nil {
		return nil, err
	}
	var out *domain.Booking
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		b, err := tx.Bookings().GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		actor, err := resolveActor(caller, b)
		if err != nil {
			return err
		}
		if actor.Role != domain.ActorEmployer {
			return fmt.Errorf("%w: only the employer submits feedback", domain.ErrForbidden)
		}
		if b.Status != domain.StatusCompleted && b.Status != domain.StatusInProgress {
			return fmt.Errorf("%w: feedback needs an in-progress or completed interview", domain.ErrTransitionNotAllowed)
		}
		now := s.now().UTC()
		fb.SubmittedBy = caller.ID
		fb.SubmittedAt = now
		b.Feedback = &fb
		b.UpdatedAt = now
		if err := tx.Bookings().Update(ctx, b); err != nil {
			return fmt.Errorf("update booking: %w", err)
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *bookingService) UpdateNotes(ctx context.Context, caller domain.Caller, bookingID, notes string) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	notes = strings.TrimSpace(notes)
	if len(notes) > domain.MaxNotesLength {
		return nil, fmt.Errorf("%w: notes must be at most %d characters", domain.ErrInvalidInput, domain.MaxNotesLength)
	}
	var out *domain.Booking
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		b, err := tx.Bookings().GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		actor, err := resolveActor(caller, b)
		if err != nil {
			return err
		}
		if actor.Role == domain.ActorEmployer {
			b.EmployerNotes = notes
		} else {
			b.CandidateNotes = notes
		}
		b.UpdatedAt = s.now().UTC()
		if err := tx.Bookings().Update(ctx, b); err != nil {
			return fmt.Errorf("update booking: %w", err)
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
