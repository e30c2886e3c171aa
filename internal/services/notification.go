package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"interviewcalendar/internal/domain"
)

const defaultDispatchLimit = 8

// Dispatcher turns booking events into notifications and fans them out to sinks and subscribers.
// Delivery is best effort: failures are logged and never reach the caller.
type Dispatcher struct {
	sinks       []domain.NotificationSink
	subscribers []domain.EventSubscriber
	logger      *slog.Logger
	timeout     time.Duration
	limit       int
}

func NewDispatcher(logger *slog.Logger, timeout time.Duration, sinks []domain.NotificationSink, subscribers []domain.EventSubscriber) *Dispatcher {
	return &Dispatcher{
		sinks:       sinks,
		subscribers: subscribers,
		logger:      logger,
		timeout:     timeout,
		limit:       defaultDispatchLimit,
	}
}

// Publish delivers events. It keeps running when the request context is cancelled
// but gives up after the dispatcher timeout.
func (d *Dispatcher) Publish(ctx context.Context, events ...domain.BookingEvent) {
	if len(events) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	var g errgroup.Group
	g.SetLimit(d.limit)
	for _, ev := range events {
		for _, n := range ComposeNotifications(ev) {
			for _, sink := range d.sinks {
				copied := *n
				g.Go(func() error {
					if err := sink.Send(ctx, &copied); err != nil {
						d.logger.WarnContext(ctx, "notification delivery failed",
							"sink", sink.Name(), "type", string(copied.Type), "booking_id", copied.BookingID, "err", err)
					}
					return nil
				})
			}
		}
		for _, sub := range d.subscribers {
			g.Go(func() error {
				if err := sub.Handle(ctx, ev); err != nil {
					d.logger.WarnContext(ctx, "event subscriber failed",
						"subscriber", sub.Name(), "type", string(ev.Type), "booking_id", bookingIDOf(ev), "err", err)
				}
				return nil
			})
		}
	}
	_ = g.Wait()
}

func bookingIDOf(ev domain.BookingEvent) string {
	if ev.Booking == nil {
		return ""
	}
	return ev.Booking.ID
}

// ComposeNotifications renders the per-recipient notifications for one event.
func ComposeNotifications(ev domain.BookingEvent) []*domain.Notification {
	b := ev.Booking
	if b == nil {
		return nil
	}
	when := describeWhen(b)
	kind := strings.ReplaceAll(string(b.InterviewType), "_", "-")
	candidateName := b.Candidate.Name
	if candidateName == "" {
		candidateName = "The candidate"
	}

	var out []*domain.Notification
	add := func(recipient string, severity domain.Severity, title, message string) {
		if recipient == "" {
			return
		}
		out = append(out, &domain.Notification{
			RecipientID: recipient,
			BookingID:   b.ID,
			Type:        ev.Type,
			Title:       title,
			Message:     message,
			Severity:    severity,
			CreatedAt:   ev.OccurredAt,
		})
	}

	switch ev.Type {
	case domain.EventBookingCreated:
		add(b.CandidateID, domain.SeveritySuccess, "Interview scheduled",
			fmt.Sprintf("Your %s interview is scheduled for %s.", kind, when))
		if ev.Actor.Role == domain.ActorCandidate {
			add(b.EmployerID, domain.SeverityInfo, "New interview booked",
				fmt.Sprintf("%s booked a %s interview for %s.", candidateName, kind, when))
		} else {
			add(b.EmployerID, domain.SeverityInfo, "New interview booked",
				fmt.Sprintf("A %s interview with %s was booked for %s.", kind, candidateName, when))
		}

	case domain.EventBookingConfirmed:
		if ev.Actor.Role == domain.ActorCandidate {
			add(b.EmployerID, domain.SeveritySuccess, "Interview confirmed",
				fmt.Sprintf("%s confirmed the interview on %s.", candidateName, when))
		} else {
			add(b.CandidateID, domain.SeveritySuccess, "Interview confirmed",
				fmt.Sprintf("Your interview on %s is confirmed.", when))
		}

	case domain.EventBookingCancelled:
		reason := ""
		if b.CancellationReason != "" {
			reason = " Reason: " + b.CancellationReason + "."
		}
		if b.Status == domain.StatusCancelledByCandidate {
			add(b.EmployerID, domain.SeverityWarning, "Interview cancelled by candidate",
				fmt.Sprintf("%s cancelled the interview on %s.%s", candidateName, when, reason))
			add(b.CandidateID, domain.SeverityInfo, "Interview cancelled",
				fmt.Sprintf("You cancelled your interview on %s.", when))
		} else {
			add(b.CandidateID, domain.SeverityWarning, "Interview cancelled",
				fmt.Sprintf("Your interview on %s was cancelled by the employer.%s", when, reason))
			add(b.EmployerID, domain.SeverityInfo, "Interview cancelled",
				fmt.Sprintf("You cancelled the interview with %s on %s.", candidateName, when))
		}

	case domain.EventBookingRescheduled:
		previous := ""
		if ev.Reschedule != nil {
			previous = fmt.Sprintf(" (was %s %s)", ev.Reschedule.PreviousDate, ev.Reschedule.PreviousTime)
		}
		by := "the employer"
		if ev.Actor.Role == domain.ActorCandidate {
			by = candidateName
		}
		msg := fmt.Sprintf("The interview was moved to %s%s by %s.", when, previous, by)
		add(b.CandidateID, domain.SeverityWarning, "Interview rescheduled", msg)
		add(b.EmployerID, domain.SeverityWarning, "Interview rescheduled", msg)

	case domain.EventBookingReminder:
		msg := fmt.Sprintf("Your %s interview starts in %s (%s).", kind, ev.Lead, when)
		switch ev.Audience {
		case domain.AudienceCandidate:
			add(b.CandidateID, domain.SeverityInfo, "Upcoming interview", msg)
		case domain.AudienceEmployer:
			add(b.EmployerID, domain.SeverityInfo, "Upcoming interview",
				fmt.Sprintf("Interview with %s starts in %s (%s).", candidateName, ev.Lead, when))
		}

	case domain.EventBookingCompleted:
		add(b.CandidateID, domain.SeveritySuccess, "Interview completed",
			"Thanks for attending your interview. The employer will be in touch.")
		add(b.EmployerID, domain.SeverityInfo, "Feedback requested",
			fmt.Sprintf("Your interview with %s is complete. Please submit feedback.", candidateName))

	case domain.EventBookingNoShow:
		if b.Status == domain.StatusNoShowCandidate {
			add(b.CandidateID, domain.SeverityError, "Missed interview",
				fmt.Sprintf("You were marked as absent from the interview on %s.", when))
			add(b.EmployerID, domain.SeverityWarning, "Candidate did not attend",
				fmt.Sprintf("%s did not attend the interview on %s.", candidateName, when))
		} else {
			add(b.CandidateID, domain.SeverityWarning, "Interviewer did not attend",
				fmt.Sprintf("The interviewer missed your interview on %s. We are sorry.", when))
		}

	case domain.EventInvitationCreated:
		company, expires := "An employer", ""
		if ev.Invitation != nil {
			if ev.Invitation.CompanyName != "" {
				company = ev.Invitation.CompanyName
			}
			expires = fmt.Sprintf(" The link expires on %s.", ev.Invitation.ExpiresAt.UTC().Format(domain.DateLayout))
		}
		add(b.CandidateID, domain.SeverityInfo, "Interview invitation",
			fmt.Sprintf("%s invited you to schedule a %s interview. Check your email for the scheduling link.%s", company, kind, expires))
	}
	return out
}

func describeWhen(b *domain.Booking) string {
	return fmt.Sprintf("%s at %s (%s)", b.ScheduledDate.Format(domain.DateLayout), b.ScheduledTime, b.Timezone)
}

type inboxSink struct {
	repo domain.NotificationRepository
}

// NewInboxSink stores notifications in the in-app inbox.
func NewInboxSink(repo domain.NotificationRepository) domain.NotificationSink {
	return &inboxSink{repo: repo}
}

func (s *inboxSink) Name() string { return "inbox" }

func (s *inboxSink) Send(ctx context.Context, n *domain.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	return s.repo.Create(ctx, n)
}

type notificationService struct {
	repo           domain.NotificationRepository
	contextTimeout time.Duration
	now            func() time.Time
}

func NewNotificationService(repo domain.NotificationRepository, timeout time.Duration) domain.NotificationService {
	return &notificationService{repo: repo, contextTimeout: timeout, now: time.Now}
}

func (s *notificationService) ListNotifications(ctx context.Context, caller domain.Caller, unreadOnly bool, page domain.PaginationParams) ([]*domain.Notification, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if caller.ID == "" {
		return nil, 0, fmt.Errorf("%w: missing caller", domain.ErrForbidden)
	}
	items, total, err := s.repo.ListByRecipient(ctx, caller.ID, unreadOnly, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	return items, total, nil
}

func (s *notificationService) MarkRead(ctx context.Context, caller domain.Caller, notificationID string) (*domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if caller.ID == "" {
		return nil, fmt.Errorf("%w: missing caller", domain.ErrForbidden)
	}
	return s.repo.MarkRead(ctx, notificationID, caller.ID, s.now().UTC())
}
