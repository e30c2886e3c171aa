package domain

import (
	"context"
	"time"
)

// Severity grades how prominently a notification is shown.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is one message for one recipient.
// swagger:model Notification
type Notification struct {
	ID          string     `json:"id"`
	RecipientID string     `json:"recipient_id"`
	BookingID   string     `json:"booking_id,omitempty"`
	Type        EventType  `json:"type"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	Severity    Severity   `json:"severity"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NotificationSink delivers composed notifications somewhere.
type NotificationSink interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// NotificationRepository stores the in-app notification inbox.
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, page PaginationParams) ([]*Notification, int, error)
	MarkRead(ctx context.Context, id, recipientID string, at time.Time) (*Notification, error)
}

// NotificationService exposes a caller's inbox.
type NotificationService interface {
	ListNotifications(ctx context.Context, caller Caller, unreadOnly bool, page PaginationParams) ([]*Notification, int, error)
	MarkRead(ctx context.Context, caller Caller, notificationID string) (*Notification, error)
}
