package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"interviewcalendar/internal/domain"
)

// reminderHorizon is the widest reminder lead; bookings further out are not loaded.
const reminderHorizon = 24 * time.Hour

// ReminderScheduler periodically publishes due interview reminders.
type ReminderScheduler struct {
	bookings  domain.BookingRepository
	publisher domain.EventPublisher
	logger    *slog.Logger
	interval  time.Duration
	now       func() time.Time

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewReminderScheduler(bookings domain.BookingRepository, publisher domain.EventPublisher, logger *slog.Logger, interval time.Duration) *ReminderScheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ReminderScheduler{
		bookings:  bookings,
		publisher: publisher,
		logger:    logger,
		interval:  interval,
		now:       time.Now,
		stopChan:  make(chan struct{}),
	}
}

// Start runs a sweep immediately and then on every tick until Stop or ctx is done.
func (s *ReminderScheduler) Start(ctx context.Context) {
	s.logger.Info("starting reminder scheduler", "interval", s.interval.String())
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop ends the loop and waits for an in-flight sweep to finish.
func (s *ReminderScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("stopping reminder scheduler")
		close(s.stopChan)
	})
	s.wg.Wait()
}

func (s *ReminderScheduler) run(ctx context.Context) {
	s.sweepAndLog(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweepAndLog(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *ReminderScheduler) sweepAndLog(ctx context.Context) {
	sent, err := s.Sweep(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "reminder sweep failed", "err", err)
		return
	}
	if sent > 0 {
		s.logger.InfoContext(ctx, "reminders sent", "count", sent)
	}
}

// Sweep publishes every reminder due now and returns how many were sent.
// A reminder is published only by the sweep that claims its flag.
func (s *ReminderScheduler) Sweep(ctx context.Context) (int, error) {
	now := s.now().UTC()
	upcoming, err := s.bookings.ListUpcoming(ctx, now, now.Add(reminderHorizon), domain.ActiveStatuses)
	if err != nil {
		return 0, fmt.Errorf("list upcoming bookings: %w", err)
	}

	sent := 0
	for _, b := range upcoming {
		for _, audience := range []domain.Audience{domain.AudienceCandidate, domain.AudienceEmployer} {
			lead, due := b.DueReminder(audience, now)
			if !due {
				continue
			}
			claimed, err := s.bookings.ClaimReminder(ctx, b.ID, audience, lead)
			if err != nil {
				s.logger.WarnContext(ctx, "claim reminder failed",
					"booking_id", b.ID, "audience", string(audience), "lead", string(lead), "err", err)
				continue
			}
			if !claimed {
				continue
			}
			b.Reminders.Mark(audience, lead)
			s.publisher.Publish(ctx, domain.BookingEvent{
				Type:       domain.EventBookingReminder,
				Booking:    b.Clone(),
				Actor:      domain.Actor{Role: domain.ActorSystem},
				Audience:   audience,
				Lead:       lead,
				OccurredAt: now,
			})
			sent++
		}
	}
	return sent, nil
}
