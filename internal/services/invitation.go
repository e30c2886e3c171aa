package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"interviewcalendar/internal/domain"
)

// Placeholder slots anchor an invitation until the candidate picks a real time.
const (
	placeholderLeadDays = 7
	placeholderStart    = "10:00"
	placeholderEnd      = "11:00"
	supersededReason    = "superseded by a new invitation"
)

// InvitationSettings configures invitation links.
type InvitationSettings struct {
	TTL time.Duration
	// PublicBaseURL is the web origin candidates open scheduling links on.
	PublicBaseURL string
}

func (s InvitationSettings) scheduleURL(token string) string {
	return strings.TrimRight(s.PublicBaseURL, "/") + "/interviews/schedule?token=" + url.QueryEscape(token)
}

type invitationService struct {
	store          domain.Store
	employers      domain.EmployerDirectory
	availability   domain.AvailabilityService
	digester       domain.TokenDigester
	email          domain.EmailService
	publisher      domain.EventPublisher
	logger         *slog.Logger
	settings       InvitationSettings
	contextTimeout time.Duration
	now            func() time.Time
}

func NewInvitationService(
	store domain.Store,
	employers domain.EmployerDirectory,
	availability domain.AvailabilityService,
	digester domain.TokenDigester,
	email domain.EmailService,
	publisher domain.EventPublisher,
	logger *slog.Logger,
	settings InvitationSettings,
	timeout time.Duration,
) domain.InvitationService {
	if settings.TTL <= 0 {
		settings.TTL = domain.DefaultInvitationTTL
	}
	return &invitationService{
		store:          store,
		employers:      employers,
		availability:   availability,
		digester:       digester,
		email:          email,
		publisher:      publisher,
		logger:         logger,
		settings:       settings,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

// InviteForApplication returns nil when the status does not invite to an interview.
func (s *invitationService) InviteForApplication(ctx context.Context, caller domain.Caller, change domain.ApplicationStatusChange) (*domain.InvitationIssued, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	employerID, err := employerScope(caller, change.EmployerID)
	if err != nil {
		return nil, err
	}
	interviewType, ok := domain.InterviewTypeFor(change.Status)
	if !ok {
		return nil, nil
	}
	contact := domain.CandidateContact{Name: change.CandidateName, Email: change.CandidateEmail, Phone: change.CandidatePhone}
	problems := contact.Validate()
	if change.ApplicationID == "" {
		problems = append(problems, "application_id is required")
	}
	if change.JobID == "" {
		problems = append(problems, "job_id is required")
	}
	if change.CandidateID == "" {
		problems = append(problems, "candidate_id is required")
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(problems, "; "))
	}

	employer, err := s.employers.GetByID(ctx, employerID)
	if err != nil {
		return nil, err
	}
	token, err := s.digester.NewToken()
	if err != nil {
		return nil, fmt.Errorf("generate invitation token: %w", err)
	}

	now := s.now().UTC()
	actor := domain.Actor{ID: caller.ID, Role: domain.ActorEmployer}
	issued := &domain.InvitationIssued{ScheduleURL: s.settings.scheduleURL(token)}

	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		revoked, err := s.voidLiveInvitations(ctx, tx, change.ApplicationID, actor, now)
		if err != nil {
			return err
		}
		issued.Revoked = revoked

		loc := employer.Location()
		jobID := change.JobID
		slot := &domain.Slot{
			EmployerID:    employer.ID,
			JobID:         &jobID,
			Date:          domain.DateOnly(now.In(loc).AddDate(0, 0, placeholderLeadDays)),
			StartTime:     placeholderStart,
			EndTime:       placeholderEnd,
			Timezone:      loc.String(),
			Capacity:      1,
			IsAvailable:   true,
			IsPlaceholder: true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.Slots().Create(ctx, slot); err != nil {
			return fmt.Errorf("create placeholder slot: %w", err)
		}
		reserved, err := tx.Slots().IncrementBooked(ctx, slot.ID)
		if err != nil {
			return fmt.Errorf("reserve placeholder slot: %w", err)
		}

		applicationID := change.ApplicationID
		booking := &domain.Booking{
			CandidateID:       change.CandidateID,
			JobID:             change.JobID,
			ApplicationID:     &applicationID,
			BookedBy:          caller.ID,
			Candidate:         contact,
			BookingToken:      uuid.NewString(),
			Status:            domain.StatusScheduled,
			InterviewType:     interviewType,
			Round:             domain.RoundScreening,
			Meeting:           domain.MeetingDetails{Type: meetingTypeFor(interviewType), Phone: contact.Phone},
			RescheduleHistory: []domain.RescheduleEntry{},
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := booking.PlaceOn(reserved); err != nil {
			return err
		}
		if err := tx.Bookings().Create(ctx, booking); err != nil {
			return fmt.Errorf("create placeholder booking: %w", err)
		}

		inv := &domain.Invitation{
			BookingID:      booking.ID,
			ApplicationID:  change.ApplicationID,
			EmployerID:     employer.ID,
			CandidateEmail: contact.Email,
			TokenDigest:    s.digester.Digest(token),
			ExpiresAt:      now.Add(s.settings.TTL),
			CreatedAt:      now,
		}
		if err := tx.Invitations().Create(ctx, inv); err != nil {
			return fmt.Errorf("create invitation: %w", err)
		}
		issued.Invitation = inv
		issued.Booking = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	emailData := &domain.InterviewInvitationEmailData{
		Email:         contact.Email,
		CandidateName: contact.Name,
		CompanyName:   employer.CompanyName,
		JobTitle:      change.JobTitle,
		InterviewType: interviewType,
		ScheduleURL:   issued.ScheduleURL,
		ExpiresAt:     issued.Invitation.ExpiresAt,
	}
	if err := s.email.SendInterviewInvitation(ctx, emailData); err != nil {
		s.logger.WarnContext(ctx, "invitation email failed",
			"booking_id", issued.Booking.ID, "application_id", change.ApplicationID, "err", err)
	}
	s.publisher.Publish(ctx, domain.BookingEvent{
		Type:    domain.EventInvitationCreated,
		Booking: issued.Booking.Clone(),
		Actor:   actor,
		Invitation: &domain.InvitationNotice{
			ScheduleURL: issued.ScheduleURL,
			ExpiresAt:   issued.Invitation.ExpiresAt,
			CompanyName: employer.CompanyName,
			JobTitle:    change.JobTitle,
		},
		OccurredAt: now,
	})
	return issued, nil
}

// voidLiveInvitations revokes earlier invitations of an application and cancels
// their bookings while they still sit on a placeholder slot.
func (s *invitationService) voidLiveInvitations(ctx context.Context, tx domain.Store, applicationID string, actor domain.Actor, now time.Time) (int, error) {
	live, err := tx.Invitations().ListLiveByApplication(ctx, applicationID)
	if err != nil {
		return 0, fmt.Errorf("list live invitations: %w", err)
	}
	for _, inv := range live {
		if err := tx.Invitations().Revoke(ctx, inv.ID, now); err != nil {
			return 0, fmt.Errorf("revoke invitation: %w", err)
		}
		booking, err := tx.Bookings().GetByIDForUpdate(ctx, inv.BookingID)
		if err != nil {
			return 0, fmt.Errorf("load invitation booking: %w", err)
		}
		if booking.Status != domain.StatusScheduled {
			continue
		}
		slot, err := tx.Slots().GetByID(ctx, booking.SlotID)
		if err != nil {
			return 0, fmt.Errorf("load invitation slot: %w", err)
		}
		if !slot.IsPlaceholder {
			continue
		}
		res, err := domain.ApplyTransition(booking, domain.Transition{
			To:     domain.StatusCancelledByEmployer,
			Actor:  actor,
			Reason: supersededReason,
			Now:    now,
		})
		if err != nil {
			return 0, err
		}
		if err := s.retirePlaceholder(ctx, tx, res.ReleaseSlotID); err != nil {
			return 0, err
		}
		if err := tx.Bookings().Update(ctx, booking); err != nil {
			return 0, fmt.Errorf("cancel placeholder booking: %w", err)
		}
	}
	return len(live), nil
}

func (s *invitationService) retirePlaceholder(ctx context.Context, tx domain.Store, slotID string) error {
	if _, err := tx.Slots().DecrementBooked(ctx, slotID); err != nil {
		return fmt.Errorf("release placeholder slot: %w", err)
	}
	if _, err := tx.Slots().SetAvailability(ctx, slotID, false); err != nil {
		return fmt.Errorf("close placeholder slot: %w", err)
	}
	return nil
}

// redeemable checks an invitation and its booking can still be used for scheduling.
func (s *invitationService) redeemable(inv *domain.Invitation, booking *domain.Booking) error {
	switch {
	case inv.RevokedAt != nil:
		return domain.ErrInvitationNotFound
	case inv.UsedAt != nil:
		return domain.ErrInvitationUsed
	case inv.IsExpired(s.now()):
		return domain.ErrInvitationExpired
	case booking != nil && booking.Status != domain.StatusScheduled:
		return domain.ErrInvitationUsed
	}
	return nil
}

func (s *invitationService) GetInvitation(ctx context.Context, token string) (*domain.InvitationContext, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if strings.TrimSpace(token) == "" {
		return nil, domain.ErrInvitationNotFound
	}
	inv, err := s.store.Invitations().GetByDigest(ctx, s.digester.Digest(token))
	if err != nil {
		return nil, err
	}
	if err := s.redeemable(inv, nil); err != nil {
		return nil, err
	}
	booking, err := s.store.Bookings().GetByID(ctx, inv.BookingID)
	if err != nil {
		return nil, fmt.Errorf("load invitation booking: %w", err)
	}
	if err := s.redeemable(inv, booking); err != nil {
		return nil, err
	}
	employer, err := s.employers.GetByID(ctx, inv.EmployerID)
	if err != nil {
		return nil, err
	}
	return &domain.InvitationContext{
		Invitation: inv,
		Booking:    booking,
		Employer:   employer,
		JobID:      booking.JobID,
	}, nil
}

func (s *invitationService) InvitationAvailability(ctx context.Context, token string, from, to time.Time) (*domain.Availability, error) {
	ic, err := s.GetInvitation(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.availability.GetAvailability(ctx, domain.Caller{}, domain.AvailabilityQuery{
		EmployerID: ic.Invitation.EmployerID,
		From:       from,
		To:         to,
		View:       domain.ViewCandidate,
	})
}

func (s *invitationService) ScheduleFromInvitation(ctx context.Context, token, slotID string) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if strings.TrimSpace(token) == "" {
		return nil, domain.ErrInvitationNotFound
	}
	if strings.TrimSpace(slotID) == "" {
		return nil, fmt.Errorf("%w: slot_id is required", domain.ErrInvalidInput)
	}

	var out *domain.Booking
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		inv, err := tx.Invitations().GetByDigestForUpdate(ctx, s.digester.Digest(token))
		if err != nil {
			return err
		}
		booking, err := tx.Bookings().GetByIDForUpdate(ctx, inv.BookingID)
		if err != nil {
			return fmt.Errorf("load invitation booking: %w", err)
		}
		if err := s.redeemable(inv, booking); err != nil {
			return err
		}

		slot, err := tx.Slots().GetByID(ctx, slotID)
		if err != nil {
			return err
		}
		if slot.EmployerID != inv.EmployerID {
			return fmt.Errorf("%w: slot belongs to another employer", domain.ErrForbidden)
		}
		if slot.JobID != nil && *slot.JobID != booking.JobID {
			return fmt.Errorf("%w: slot is reserved for another job", domain.ErrInvalidInput)
		}
		if slot.IsPlaceholder || startsBefore(slot, s.now()) {
			return domain.ErrSlotNotOpen
		}
		reserved, err := tx.Slots().IncrementBooked(ctx, slot.ID)
		if err != nil {
			return err
		}
		if err := s.retirePlaceholder(ctx, tx, booking.SlotID); err != nil {
			return err
		}

		now := s.now().UTC()
		if err := booking.PlaceOn(reserved); err != nil {
			return err
		}
		booking.UpdatedAt = now
		if err := tx.Bookings().Update(ctx, booking); err != nil {
			return fmt.Errorf("update booking: %w", err)
		}
		if err := tx.Invitations().MarkUsed(ctx, inv.ID, now); err != nil {
			return err
		}
		out = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, domain.BookingEvent{
		Type:       domain.EventBookingCreated,
		Booking:    out.Clone(),
		Actor:      domain.Actor{ID: out.CandidateID, Role: domain.ActorCandidate},
		OccurredAt: out.UpdatedAt,
	})
	return out, nil
}

func meetingTypeFor(t domain.InterviewType) domain.MeetingType {
	switch t {
	case domain.InterviewPhone:
		return domain.MeetingPhone
	case domain.InterviewInPerson:
		return domain.MeetingInPerson
	}
	return domain.MeetingVideo
}
