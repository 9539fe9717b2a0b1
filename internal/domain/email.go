package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// RegistrationEmailData holds data for the registration confirmation email,
// also used for the waitlist variant.
type RegistrationEmailData struct {
	Email       string
	FirstName   string
	EventTitle  string
	Status      string
	OnWaitlist  bool
	UpdateToken string
	CancelToken string
	Language    string // optional, for future locale/templates
}

// CancellationEmailData holds data for the cancellation confirmation email.
type CancellationEmailData struct {
	Email      string
	FirstName  string
	EventTitle string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendRegistrationConfirmation(ctx context.Context, data *RegistrationEmailData) error
	SendCancellationConfirmation(ctx context.Context, data *CancellationEmailData) error
}
