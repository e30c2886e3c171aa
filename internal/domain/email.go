package domain

import (
	"context"
	"time"
)

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// InterviewInvitationEmailData holds data for the interview invitation email.
type InterviewInvitationEmailData struct {
	Email         string
	CandidateName string
	CompanyName   string
	JobTitle      string
	InterviewType InterviewType
	ScheduleURL   string
	ExpiresAt     time.Time
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendInterviewInvitation(ctx context.Context, data *InterviewInvitationEmailData) error
}
