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

var notificationRowColumns = []string{"id", "recipient_id", "booking_id", "type", "title", "message", "severity", "read_at", "created_at"}

func TestNotificationRepository_Create(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO notifications`).
		WithArgs("cand-1", "bk-1", "booking.confirmed", "Interview confirmed", "See you soon", "success", ts).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("n-1"))

	n := &domain.Notification{
		RecipientID: "cand-1", BookingID: "bk-1", Type: domain.EventBookingConfirmed,
		Title: "Interview confirmed", Message: "See you soon", Severity: domain.SeveritySuccess, CreatedAt: ts,
	}
	require.NoError(t, NewNotificationRepository(db).Create(ctx, n))
	require.Equal(t, "n-1", n.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_ListByRecipient(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		unreadOnly bool
		countQuery string
	}{
		{name: "all", unreadOnly: false, countQuery: `SELECT COUNT\(\*\) FROM notifications WHERE recipient_id = \$1$`},
		{name: "unread only", unreadOnly: true, countQuery: `SELECT COUNT\(\*\) FROM notifications WHERE recipient_id = \$1 AND read_at IS NULL`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectQuery(tt.countQuery).
				WithArgs("cand-1").
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
			mock.ExpectQuery(`SELECT .+ FROM notifications .+ ORDER BY created_at DESC`).
				WithArgs("cand-1", 20, 0).
				WillReturnRows(sqlmock.NewRows(notificationRowColumns).
					AddRow("n-1", "cand-1", nil, "booking.reminder", "Reminder", "Soon", "info", nil, ts))

			items, total, err := NewNotificationRepository(db).ListByRecipient(ctx, "cand-1", tt.unreadOnly, domain.PaginationParams{})
			require.NoError(t, err)
			require.Equal(t, 1, total)
			require.Len(t, items, 1)
			require.Empty(t, items[0].BookingID)
			require.Nil(t, items[0].ReadAt)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestNotificationRepository_MarkRead(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)

	t.Run("marks own notification", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`UPDATE notifications\s+SET read_at = COALESCE\(read_at, \$3\)`).
			WithArgs("n-1", "cand-1", at).
			WillReturnRows(sqlmock.NewRows(notificationRowColumns).
				AddRow("n-1", "cand-1", "bk-1", "booking.created", "Booked", "Done", "success", at, at))

		n, err := NewNotificationRepository(db).MarkRead(ctx, "n-1", "cand-1", at)
		require.NoError(t, err)
		require.NotNil(t, n.ReadAt)
		require.Equal(t, "bk-1", n.BookingID)
	})

	t.Run("someone else's notification", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`UPDATE notifications`).WillReturnError(sql.ErrNoRows)
		_, err = NewNotificationRepository(db).MarkRead(ctx, "n-1", "intruder", at)
		require.ErrorIs(t, err, domain.ErrNotificationNotFound)
	})
}
