package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"interviewcalendar/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var slotRowColumns = []string{
	"id", "employer_id", "job_id", "slot_date", "start_time", "end_time", "timezone",
	"capacity", "booked_count", "is_available", "is_placeholder", "created_at", "updated_at",
}

func slotRow(id string, capacity, booked int64, available bool) *sqlmock.Rows {
	ts := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(slotRowColumns).AddRow(
		id, "emp-1", nil, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), "10:00", "10:30", "UTC",
		capacity, booked, available, false, ts, ts,
	)
}

func TestSlotRepository_Create(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	jobID := "job-1"

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantID  string
		wantErr bool
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO interview_slots`).
					WithArgs("emp-1", "job-1", sqlmock.AnyArg(), "10:00", "10:30", "UTC", 2, 0, true, false, ts, ts).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("slot-1"))
			},
			wantID: "slot-1",
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO interview_slots`).WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			slot := &domain.Slot{
				EmployerID: "emp-1", JobID: &jobID, Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
				StartTime: "10:00", EndTime: "10:30", Timezone: "UTC", Capacity: 2, IsAvailable: true,
				CreatedAt: ts, UpdatedAt: ts,
			}
			err = NewSlotRepository(db).Create(ctx, slot)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, slot.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSlotRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT .+ FROM interview_slots\s+WHERE id = \$1 AND deleted_at IS NULL`).
			WithArgs("slot-1").
			WillReturnRows(slotRow("slot-1", 2, 1, true))

		s, err := NewSlotRepository(db).GetByID(ctx, "slot-1")
		require.NoError(t, err)
		require.Equal(t, "slot-1", s.ID)
		require.Nil(t, s.JobID)
		require.Equal(t, 1, s.Remaining())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("for update locks the row", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT .+ FROM interview_slots\s+WHERE id = \$1 AND deleted_at IS NULL FOR UPDATE$`).
			WithArgs("slot-1").
			WillReturnRows(slotRow("slot-1", 1, 0, true))

		s, err := NewSlotRepository(db).GetByIDForUpdate(ctx, "slot-1")
		require.NoError(t, err)
		require.Equal(t, "slot-1", s.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT .+ FROM interview_slots`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err = NewSlotRepository(db).GetByID(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrSlotNotFound)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestSlotRepository_ListByEmployer(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	rows := slotRow("slot-1", 1, 0, true)
	rows.AddRow("slot-2", "emp-1", "job-9", time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), "11:00", "11:30", "UTC",
		int64(3), int64(3), true, false, from, from)
	mock.ExpectQuery(`SELECT .+ FROM interview_slots\s+WHERE employer_id = \$1`).
		WithArgs("emp-1", from, to).
		WillReturnRows(rows)

	slots, err := NewSlotRepository(db).ListByEmployer(ctx, "emp-1", from, to)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	require.NotNil(t, slots[1].JobID)
	require.Equal(t, "job-9", *slots[1].JobID)
	require.False(t, slots[1].IsOpen())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepository_Update(t *testing.T) {
	ctx := context.Background()
	slot := &domain.Slot{
		ID: "slot-1", Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		StartTime: "10:00", EndTime: "10:30", Timezone: "UTC", Capacity: 1,
	}

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		updated := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
		mock.ExpectQuery(`UPDATE interview_slots`).
			WithArgs(slot.Date, "10:00", "10:30", "UTC", 1, "slot-1").
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(updated))

		require.NoError(t, NewSlotRepository(db).Update(ctx, slot))
		require.Equal(t, updated, slot.UpdatedAt)
	})

	t.Run("capacity below bookings", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`UPDATE interview_slots`).WillReturnError(sql.ErrNoRows)
		err = NewSlotRepository(db).Update(ctx, slot)
		require.ErrorIs(t, err, domain.ErrConflict)
	})
}

func TestSlotRepository_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "soft deletes",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE interview_slots\s+SET deleted_at = NOW\(\)`).
					WithArgs("slot-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "already gone",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE interview_slots`).
					WithArgs("slot-1").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: domain.ErrSlotNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			err = NewSlotRepository(db).Delete(ctx, "slot-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSlotRepository_IncrementBooked(t *testing.T) {
	ctx := context.Background()

	t.Run("reserves a seat", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`UPDATE interview_slots\s+SET booked_count = booked_count \+ 1`).
			WithArgs("slot-1").
			WillReturnRows(slotRow("slot-1", 1, 1, true))

		s, err := NewSlotRepository(db).IncrementBooked(ctx, "slot-1")
		require.NoError(t, err)
		require.Equal(t, 1, s.BookedCount)
		require.False(t, s.IsOpen())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("guard rejects a full slot", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`UPDATE interview_slots`).
			WithArgs("slot-1").
			WillReturnError(sql.ErrNoRows)

		_, err = NewSlotRepository(db).IncrementBooked(ctx, "slot-1")
		require.ErrorIs(t, err, domain.ErrSlotNotOpen)
	})
}

func TestSlotRepository_DecrementBooked(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`UPDATE interview_slots\s+SET booked_count = GREATEST\(booked_count - 1, 0\)`).
		WithArgs("slot-1").
		WillReturnRows(slotRow("slot-1", 1, 0, true))

	s, err := NewSlotRepository(db).DecrementBooked(ctx, "slot-1")
	require.NoError(t, err)
	require.True(t, s.IsOpen())
	require.NoError(t, mock.ExpectationsWereMet())
}
