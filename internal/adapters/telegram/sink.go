// Package telegram mirrors interview notifications to an operations chat.
package telegram

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"interviewcalendar/internal/domain"
)

type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Sink is a domain.NotificationSink that posts each notification to one chat.
type Sink struct {
	sender messageSender
	chatID int64
}

// NewSink creates a bot client for token. The token is not checked against the API
// until the first message is sent.
func NewSink(token string, chatID int64) (*Sink, error) {
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Sink{sender: b, chatID: chatID}, nil
}

func (s *Sink) Name() string { return "telegram" }

func (s *Sink) Send(ctx context.Context, n *domain.Notification) error {
	_, err := s.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    s.chatID,
		Text:      formatMessage(n),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

var severityIcon = map[domain.Severity]string{
	domain.SeverityInfo:    "ℹ️",
	domain.SeveritySuccess: "✅",
	domain.SeverityWarning: "⚠️",
	domain.SeverityError:   "❌",
}

func formatMessage(n *domain.Notification) string {
	var sb strings.Builder
	if icon, ok := severityIcon[n.Severity]; ok {
		sb.WriteString(icon)
		sb.WriteString(" ")
	}
	fmt.Fprintf(&sb, "<b>%s</b>\n%s\n\n", html.EscapeString(n.Title), html.EscapeString(n.Message))
	fmt.Fprintf(&sb, "<code>%s</code> to <code>%s</code>", html.EscapeString(string(n.Type)), html.EscapeString(n.RecipientID))
	if n.BookingID != "" {
		fmt.Fprintf(&sb, "\nbooking <code>%s</code>", html.EscapeString(n.BookingID))
	}
	return sb.String()
}
