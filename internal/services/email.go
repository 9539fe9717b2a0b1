package services

import (
	"context"
	"fmt"
	"log"

	"remoteevents/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer}
}

// SendRegistrationConfirmation sends the registration confirmation using
// the "registration" template, or "waitlist" when the participant landed
// on the waiting list.
func (s *emailService) SendRegistrationConfirmation(ctx context.Context, data *domain.RegistrationEmailData) error {
	if data == nil {
		return fmt.Errorf("registration email data is nil")
	}
	template := "registration"
	if data.OnWaitlist {
		template = "waitlist"
	}
	subject, htmlBody, textBody, err := s.renderer.Render(template, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", template, err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send registration email: %w", err)
	}
	log.Printf("[EMAIL] Registration confirmation sent to %s", data.Email)
	return nil
}

// SendCancellationConfirmation sends the cancellation confirmation using the "cancellation" template.
func (s *emailService) SendCancellationConfirmation(ctx context.Context, data *domain.CancellationEmailData) error {
	if data == nil {
		return fmt.Errorf("cancellation email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("cancellation", data)
	if err != nil {
		return fmt.Errorf("failed to render cancellation template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send cancellation email: %w", err)
	}
	log.Printf("[EMAIL] Cancellation confirmation sent to %s", data.Email)
	return nil
}
