package services

import (
	"context"
	"fmt"
	"log/slog"

	"interviewcalendar/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendInterviewInvitation sends the scheduling link using the "interview_invitation" template.
func (s *emailService) SendInterviewInvitation(ctx context.Context, data *domain.InterviewInvitationEmailData) error {
	if data == nil {
		return fmt.Errorf("interview invitation data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("interview_invitation", data)
	if err != nil {
		return fmt.Errorf("failed to render interview_invitation template: %w", err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send interview invitation email: %w", err)
	}
	s.logger.InfoContext(ctx, "interview invitation email sent", "to", data.Email)
	return nil
}
