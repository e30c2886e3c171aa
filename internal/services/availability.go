package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"interviewcalendar/internal/domain"
)

type availabilityService struct {
	slots          domain.SlotRepository
	employers      domain.EmployerDirectory
	contextTimeout time.Duration
	now            func() time.Time
}

func NewAvailabilityService(slots domain.SlotRepository, employers domain.EmployerDirectory, timeout time.Duration) domain.AvailabilityService {
	return &availabilityService{
		slots:          slots,
		employers:      employers,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

// GetAvailability lists an employer's slots grouped by day. To is exclusive.
func (s *availabilityService) GetAvailability(ctx context.Context, caller domain.Caller, q domain.AvailabilityQuery) (*domain.Availability, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	switch q.View {
	case domain.ViewEmployer:
		id, err := employerScope(caller, q.EmployerID)
		if err != nil {
			return nil, err
		}
		q.EmployerID = id
	case domain.ViewCandidate, "":
		q.View = domain.ViewCandidate
		if q.EmployerID == "" {
			return nil, fmt.Errorf("%w: employer id is required", domain.ErrInvalidInput)
		}
	default:
		return nil, fmt.Errorf("%w: unknown view %q", domain.ErrInvalidInput, q.View)
	}

	from, to, err := s.resolveRange(q.From, q.To)
	if err != nil {
		return nil, err
	}

	employer, err := s.employers.GetByID(ctx, q.EmployerID)
	if err != nil {
		return nil, err
	}
	slots, err := s.slots.ListByEmployer(ctx, employer.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	now := s.now()
	byDay := make(map[string][]domain.SlotAvailability)
	for _, slot := range slots {
		open := slot.IsOpen()
		if q.View == domain.ViewCandidate {
			if !open || slot.IsPlaceholder || startsBefore(slot, now) {
				continue
			}
		}
		key := slot.DateKey()
		byDay[key] = append(byDay[key], domain.SlotAvailability{Slot: slot, Open: open, Remaining: slot.Remaining()})
	}

	keys := make([]string, 0, len(byDay))
	for k := range byDay {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	days := make([]domain.DayAvailability, 0, len(keys))
	for _, k := range keys {
		daySlots := byDay[k]
		sort.SliceStable(daySlots, func(i, j int) bool { return daySlots[i].StartTime < daySlots[j].StartTime })
		days = append(days, domain.DayAvailability{Date: k, Slots: daySlots})
	}

	return &domain.Availability{
		EmployerID: employer.ID,
		View:       q.View,
		From:       from.Format(domain.DateLayout),
		To:         to.Format(domain.DateLayout),
		Days:       days,
	}, nil
}

func (s *availabilityService) resolveRange(from, to time.Time) (time.Time, time.Time, error) {
	switch {
	case from.IsZero() && to.IsZero():
		from, to = domain.MonthRange(s.now())
	case to.IsZero():
		from = domain.DateOnly(from)
		to = from.AddDate(0, 1, 0)
	case from.IsZero():
		to = domain.DateOnly(to)
		from = to.AddDate(0, -1, 0)
	default:
		from, to = domain.DateOnly(from), domain.DateOnly(to)
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to must be after from", domain.ErrInvalidInput)
	}
	if to.Sub(from) > domain.MaxSeriesDays*24*time.Hour {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: range may span at most %d days", domain.ErrInvalidInput, domain.MaxSeriesDays)
	}
	return from, to, nil
}

func startsBefore(slot *domain.Slot, now time.Time) bool {
	at, err := slot.StartsAt()
	if err != nil {
		return true
	}
	return !at.After(now)
}
