package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"interviewcalendar/internal/domain"
)

const notificationColumns = `id, recipient_id, booking_id, type, title, message, severity, read_at, created_at`

type notificationRepository struct {
	DB DBTX
}

func NewNotificationRepository(db DBTX) domain.NotificationRepository {
	return &notificationRepository{DB: db}
}

func scanNotification(sc rowScanner) (*domain.Notification, error) {
	n := &domain.Notification{}
	var bookingID sql.NullString
	var readAt sql.NullTime
	if err := sc.Scan(&n.ID, &n.RecipientID, &bookingID, &n.Type, &n.Title, &n.Message, &n.Severity, &readAt, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.BookingID = bookingID.String
	n.ReadAt = timePtr(readAt)
	return n, nil
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (recipient_id, booking_id, type, title, message, severity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		n.RecipientID, nullString(&n.BookingID), string(n.Type), n.Title, n.Message, string(n.Severity), n.CreatedAt,
	).Scan(&n.ID)
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, page domain.PaginationParams) ([]*domain.Notification, int, error) {
	where := `WHERE recipient_id = $1`
	if unreadOnly {
		where += ` AND read_at IS NULL`
	}
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications `+where, recipientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + notificationColumns + `
		FROM notifications
		` + where + `
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, recipientID, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]*domain.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID string, at time.Time) (*domain.Notification, error) {
	query := `
		UPDATE notifications
		SET read_at = COALESCE(read_at, $3)
		WHERE id = $1 AND recipient_id = $2
		RETURNING ` + notificationColumns
	n, err := scanNotification(r.DB.QueryRowContext(ctx, query, id, recipientID, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotificationNotFound
		}
		return nil, err
	}
	return n, nil
}
