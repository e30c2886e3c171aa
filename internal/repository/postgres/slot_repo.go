package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"interviewcalendar/internal/domain"
)

const slotColumns = `id, employer_id, job_id, slot_date, start_time, end_time, timezone,
		capacity, booked_count, is_available, is_placeholder, created_at, updated_at`

type slotRepository struct {
	DB DBTX
}

func NewSlotRepository(db DBTX) domain.SlotRepository {
	return &slotRepository{DB: db}
}

func scanSlot(sc rowScanner) (*domain.Slot, error) {
	s := &domain.Slot{}
	var jobID sql.NullString
	err := sc.Scan(
		&s.ID, &s.EmployerID, &jobID, &s.Date, &s.StartTime, &s.EndTime, &s.Timezone,
		&s.Capacity, &s.BookedCount, &s.IsAvailable, &s.IsPlaceholder, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.JobID = stringPtr(jobID)
	s.Date = domain.DateOnly(s.Date)
	return s, nil
}

func (r *slotRepository) Create(ctx context.Context, s *domain.Slot) error {
	query := `
		INSERT INTO interview_slots (employer_id, job_id, slot_date, start_time, end_time, timezone,
			capacity, booked_count, is_available, is_placeholder, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		s.EmployerID, nullString(s.JobID), s.Date, s.StartTime, s.EndTime, s.Timezone,
		s.Capacity, s.BookedCount, s.IsAvailable, s.IsPlaceholder, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
}

func (r *slotRepository) GetByID(ctx context.Context, id string) (*domain.Slot, error) {
	return r.get(ctx, id, false)
}

// GetByIDForUpdate row-locks the slot until the surrounding transaction ends.
// Bookings reserve capacity under the same lock, so none can land while it is held.
func (r *slotRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Slot, error) {
	return r.get(ctx, id, true)
}

func (r *slotRepository) get(ctx context.Context, id string, forUpdate bool) (*domain.Slot, error) {
	query := `SELECT ` + slotColumns + `
		FROM interview_slots
		WHERE id = $1 AND deleted_at IS NULL`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	s, err := scanSlot(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSlotNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *slotRepository) ListByEmployer(ctx context.Context, employerID string, from, to time.Time) ([]*domain.Slot, error) {
	query := `SELECT ` + slotColumns + `
		FROM interview_slots
		WHERE employer_id = $1 AND slot_date >= $2 AND slot_date < $3 AND deleted_at IS NULL
		ORDER BY slot_date, start_time
	`
	rows, err := r.DB.QueryContext(ctx, query, employerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	slots := make([]*domain.Slot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func (r *slotRepository) Update(ctx context.Context, s *domain.Slot) error {
	query := `
		UPDATE interview_slots
		SET slot_date = $1, start_time = $2, end_time = $3, timezone = $4, capacity = $5, updated_at = NOW()
		WHERE id = $6 AND deleted_at IS NULL AND booked_count <= $5
		RETURNING updated_at
	`
	err := r.DB.QueryRowContext(ctx, query, s.Date, s.StartTime, s.EndTime, s.Timezone, s.Capacity, s.ID).Scan(&s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: capacity is below current bookings or slot is gone", domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *slotRepository) SetAvailability(ctx context.Context, id string, available bool) (*domain.Slot, error) {
	query := `
		UPDATE interview_slots
		SET is_available = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + slotColumns
	s, err := scanSlot(r.DB.QueryRowContext(ctx, query, id, available))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSlotNotFound
		}
		return nil, err
	}
	return s, nil
}

// Delete retires the slot; rows stay for bookings that reference it.
func (r *slotRepository) Delete(ctx context.Context, id string) error {
	query := `
		UPDATE interview_slots
		SET deleted_at = NOW(), is_available = FALSE, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrSlotNotFound
	}
	return nil
}

func (r *slotRepository) IncrementBooked(ctx context.Context, id string) (*domain.Slot, error) {
	query := `
		UPDATE interview_slots
		SET booked_count = booked_count + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL AND is_available AND booked_count < capacity
		RETURNING ` + slotColumns
	s, err := scanSlot(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSlotNotOpen
		}
		return nil, err
	}
	return s, nil
}

func (r *slotRepository) DecrementBooked(ctx context.Context, id string) (*domain.Slot, error) {
	query := `
		UPDATE interview_slots
		SET booked_count = GREATEST(booked_count - 1, 0), updated_at = NOW()
		WHERE id = $1
		RETURNING ` + slotColumns
	s, err := scanSlot(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSlotNotFound
		}
		return nil, err
	}
	return s, nil
}
