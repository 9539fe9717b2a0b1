package services

import (
	"context"
	"errors"
	"testing"

	"remoteevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	to      []string
	subject []string
	err     error
}

func (m *fakeMailer) Send(to, subject, html, text string) error {
	if m.err != nil {
		return m.err
	}
	m.to = append(m.to, to)
	m.subject = append(m.subject, subject)
	return nil
}

type fakeRenderer struct {
	lastTemplate string
	err          error
}

func (r *fakeRenderer) Render(templateName string, data any) (string, string, string, error) {
	r.lastTemplate = templateName
	if r.err != nil {
		return "", "", "", r.err
	}
	return "subject: " + templateName, "<p>body</p>", "body", nil
}

func TestSendRegistrationConfirmation(t *testing.T) {
	mailer := &fakeMailer{}
	renderer := &fakeRenderer{}
	svc := NewEmailService(mailer, renderer)

	err := svc.SendRegistrationConfirmation(context.Background(), &domain.RegistrationEmailData{
		Email: "ada@example.org",
	})
	require.NoError(t, err)
	assert.Equal(t, "registration", renderer.lastTemplate)
	assert.Equal(t, []string{"ada@example.org"}, mailer.to)
}

func TestSendRegistrationConfirmation_WaitlistTemplate(t *testing.T) {
	mailer := &fakeMailer{}
	renderer := &fakeRenderer{}
	svc := NewEmailService(mailer, renderer)

	err := svc.SendRegistrationConfirmation(context.Background(), &domain.RegistrationEmailData{
		Email:      "ada@example.org",
		OnWaitlist: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "waitlist", renderer.lastTemplate)
}

func TestSendRegistrationConfirmation_Errors(t *testing.T) {
	t.Run("nil data", func(t *testing.T) {
		svc := NewEmailService(&fakeMailer{}, &fakeRenderer{})
		require.Error(t, svc.SendRegistrationConfirmation(context.Background(), nil))
	})

	t.Run("render failure", func(t *testing.T) {
		mailer := &fakeMailer{}
		svc := NewEmailService(mailer, &fakeRenderer{err: errors.New("bad template")})
		err := svc.SendRegistrationConfirmation(context.Background(), &domain.RegistrationEmailData{Email: "a@b.c"})
		require.Error(t, err)
		assert.Empty(t, mailer.to)
	})

	t.Run("send failure", func(t *testing.T) {
		svc := NewEmailService(&fakeMailer{err: errors.New("smtp down")}, &fakeRenderer{})
		err := svc.SendRegistrationConfirmation(context.Background(), &domain.RegistrationEmailData{Email: "a@b.c"})
		require.Error(t, err)
	})
}

func TestSendCancellationConfirmation(t *testing.T) {
	mailer := &fakeMailer{}
	renderer := &fakeRenderer{}
	svc := NewEmailService(mailer, renderer)

	err := svc.SendCancellationConfirmation(context.Background(), &domain.CancellationEmailData{
		Email: "ada@example.org",
	})
	require.NoError(t, err)
	assert.Equal(t, "cancellation", renderer.lastTemplate)
	assert.Equal(t, []string{"ada@example.org"}, mailer.to)
}
