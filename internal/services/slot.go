package services

import (
	"context"
	"fmt"
	"time"

	"interviewcalendar/internal/domain"
)

type slotService struct {
	store          domain.Store
	employers      domain.EmployerDirectory
	contextTimeout time.Duration
	now            func() time.Time
}

func NewSlotService(store domain.Store, employers domain.EmployerDirectory, timeout time.Duration) domain.SlotService {
	return &slotService{
		store:          store,
		employers:      employers,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *slotService) CreateSlot(ctx context.Context, caller domain.Caller, slot *domain.Slot) (*domain.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	employerID, err := employerScope(caller, slot.EmployerID)
	if err != nil {
		return nil, err
	}
	employer, err := s.employers.GetByID(ctx, employerID)
	if err != nil {
		return nil, err
	}

	slot.EmployerID = employer.ID
	slot.Date = domain.DateOnly(slot.Date)
	if slot.Timezone == "" {
		slot.Timezone = employer.Location().String()
	}
	slot.BookedCount = 0
	slot.IsAvailable = true
	slot.IsPlaceholder = false
	if err := slot.Validate(); err != nil {
		return nil, err
	}

	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		existing, err := tx.Slots().ListByEmployer(ctx, slot.EmployerID, slot.Date, slot.Date.AddDate(0, 0, 1))
		if err != nil {
			return fmt.Errorf("list slots: %w", err)
		}
		if clash := firstOverlap(slot, existing); clash != nil {
			return fmt.Errorf("%w: %s %s-%s", domain.ErrSlotOverlap, clash.DateKey(), clash.StartTime, clash.EndTime)
		}
		now := s.now().UTC()
		slot.CreatedAt = now
		slot.UpdatedAt = now
		return tx.Slots().Create(ctx, slot)
	})
	if err != nil {
		return nil, err
	}
	return slot, nil
}

func (s *slotService) GenerateSlots(ctx context.Context, caller domain.Caller, in domain.SlotSeriesInput) ([]*domain.Slot, []*domain.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	employerID, err := employerScope(caller, in.EmployerID)
	if err != nil {
		return nil, nil, err
	}
	employer, err := s.employers.GetByID(ctx, employerID)
	if err != nil {
		return nil, nil, err
	}
	if in.Timezone == "" {
		in.Timezone = employer.Location().String()
	}
	planned, err := in.Expand(employer.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(planned) == 0 {
		return nil, nil, fmt.Errorf("%w: the series produces no slots", domain.ErrInvalidInput)
	}
	for _, slot := range planned {
		if err := slot.Validate(); err != nil {
			return nil, nil, err
		}
	}

	created := make([]*domain.Slot, 0, len(planned))
	skipped := make([]*domain.Slot, 0)
	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		from := domain.DateOnly(in.From)
		to := domain.DateOnly(in.To).AddDate(0, 0, 1)
		existing, err := tx.Slots().ListByEmployer(ctx, employer.ID, from, to)
		if err != nil {
			return fmt.Errorf("list slots: %w", err)
		}
		now := s.now().UTC()
		for _, slot := range planned {
			if firstOverlap(slot, existing) != nil {
				skipped = append(skipped, slot)
				continue
			}
			slot.CreatedAt = now
			slot.UpdatedAt = now
			if err := tx.Slots().Create(ctx, slot); err != nil {
				return fmt.Errorf("create slot: %w", err)
			}
			created = append(created, slot)
			existing = append(existing, slot)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return created, skipped, nil
}

func (s *slotService) GetSlot(ctx context.Context, caller domain.Caller, slotID string) (*domain.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	slot, err := s.store.Slots().GetByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if err := authorizeSlotOwner(caller, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

func (s *slotService) UpdateSlot(ctx context.Context, caller domain.Caller, slotID string, upd domain.SlotUpdate) (*domain.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var out *domain.Slot
	err := s.store.WithinTx(ctx, func(tx domain.Store) error {
		slot, err := tx.Slots().GetByIDForUpdate(ctx, slotID)
		if err != nil {
			return err
		}
		if err := authorizeSlotOwner(caller, slot); err != nil {
			return err
		}
		if upd.ChangesSchedule() {
			live, err := tx.Bookings().CountLiveBySlot(ctx, slot.ID)
			if err != nil {
				return fmt.Errorf("count bookings: %w", err)
			}
			if live > 0 {
				return fmt.Errorf("%w: %d live bookings reference this slot", domain.ErrSlotInUse, live)
			}
		}
		upd.Apply(slot)
		if err := slot.Validate(); err != nil {
			return err
		}
		if upd.ChangesSchedule() {
			siblings, err := tx.Slots().ListByEmployer(ctx, slot.EmployerID, slot.Date, slot.Date.AddDate(0, 0, 1))
			if err != nil {
				return fmt.Errorf("list slots: %w", err)
			}
			if clash := firstOverlap(slot, siblings); clash != nil {
				return fmt.Errorf("%w: %s %s-%s", domain.ErrSlotOverlap, clash.DateKey(), clash.StartTime, clash.EndTime)
			}
		}
		if err := tx.Slots().Update(ctx, slot); err != nil {
			return err
		}
		out = slot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *slotService) SetSlotAvailability(ctx context.Context, caller domain.Caller, slotID string, available bool) (*domain.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	slot, err := s.store.Slots().GetByID(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if err := authorizeSlotOwner(caller, slot); err != nil {
		return nil, err
	}
	return s.store.Slots().SetAvailability(ctx, slotID, available)
}

func (s *slotService) DeleteSlot(ctx context.Context, caller domain.Caller, slotID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.store.WithinTx(ctx, func(tx domain.Store) error {
		slot, err := tx.Slots().GetByIDForUpdate(ctx, slotID)
		if err != nil {
			return err
		}
		if err := authorizeSlotOwner(caller, slot); err != nil {
			return err
		}
		live, err := tx.Bookings().CountLiveBySlot(ctx, slot.ID)
		if err != nil {
			return fmt.Errorf("count bookings: %w", err)
		}
		if live > 0 {
			return fmt.Errorf("%w: %d live bookings reference this slot", domain.ErrSlotInUse, live)
		}
		return tx.Slots().Delete(ctx, slot.ID)
	})
}

// firstOverlap returns the first non-placeholder slot in existing that overlaps slot.
func firstOverlap(slot *domain.Slot, existing []*domain.Slot) *domain.Slot {
	for _, other := range existing {
		if other.IsPlaceholder || (slot.ID != "" && other.ID == slot.ID) {
			continue
		}
		if slot.Overlaps(other) {
			return other
		}
	}
	return nil
}
