package services

import (
	"context"
	"errors"
	"fmt"

	"remoteevents/internal/domain"
	"remoteevents/internal/profiles"
)

// GetForm produces the dynamic registration-form specification for one
// event, action and caller. The specs returned here come from the same
// profile resolution the validation side uses.
func (s *registrationService) GetForm(ctx context.Context, req domain.FormRequest) (*domain.FormResult, error) {
	action := req.Action
	if action == "" {
		action = domain.ActionCreate
	}

	run := s.newRun(action, domain.Submission{
		EventID:         req.EventID,
		Token:           req.Token,
		Profile:         req.Profile,
		RemoteContactID: req.RemoteContactID,
		Locale:          req.Locale,
	})

	var tokenUsage string
	switch action {
	case domain.ActionCreate:
		tokenUsage = domain.TokenUsageInvite
	case domain.ActionUpdate:
		tokenUsage = domain.TokenUsageUpdate
	case domain.ActionCancel:
		tokenUsage = domain.TokenUsageCancel
	default:
		return nil, fmt.Errorf("%w: unknown action %q", domain.ErrInvalidInput, action)
	}

	if req.Token != "" {
		if err := s.resolveEventFromToken(ctx, run, tokenUsage); err != nil {
			return nil, err
		}
	} else {
		if err := s.resolveEventByID(ctx, run); err != nil {
			return nil, err
		}
	}
	if run.HasErrors() {
		return nil, fmt.Errorf("%w", domain.ErrEventRequired)
	}

	if run.ContactID == "" && req.RemoteContactID != "" {
		contact, err := s.contacts.GetByID(ctx, req.RemoteContactID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("get contact: %w", err)
		}
		if contact != nil {
			run.ContactID = contact.ID
			run.Contact = contact
		}
	}
	if run.Contact == nil && run.ContactID != "" {
		contact, err := s.contacts.GetByID(ctx, run.ContactID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("get contact: %w", err)
		}
		run.Contact = contact
	}

	s.resolveProfile(run)
	if run.HasErrors() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, run.Errors()[0].Message)
	}

	result := &domain.FormResult{
		EventID:         run.Event.ID,
		Profile:         run.ProfileName,
		Action:          action,
		RemoteContactID: req.RemoteContactID,
	}
	if name := displayName(run.Contact); name != "" {
		result.Greeting = fmt.Sprintf("Welcome back, %s", name)
	}
	if run.Event.IntroText != "" {
		result.Status = append(result.Status, domain.Message{Message: run.Event.IntroText})
	}

	switch action {
	case domain.ActionCreate:
		return s.buildCreateForm(ctx, run, result)
	case domain.ActionUpdate:
		return s.buildUpdateForm(ctx, run, result)
	default:
		return s.buildCancelForm(ctx, run, result)
	}
}

func (s *registrationService) buildCreateForm(ctx context.Context, run *regRun, result *domain.FormResult) (*domain.FormResult, error) {
	// Eligibility decides whether the form is offered at all; the
	// invitation flow (token-identified participant) bypasses it.
	if run.Participant == nil {
		decision, err := run.view.CanRegister(ctx, run.Event, run.ContactID)
		if err != nil {
			return nil, err
		}
		if !decision.Allowed() {
			result.Fields = []domain.FieldSpec{}
			result.Status = append(result.Status, domain.Message{Message: decision.Reason()})
			return result, nil
		}
	}

	specs := profiles.AddDefaults(run.profile, run.profile.Fields(run.Submission.Locale), run.Contact)
	if run.Event.AllowMultiple {
		for n := 1; n <= run.Event.MaxAdditionalParticipants; n++ {
			specs = append(specs, profiles.AdditionalSpecs(run.profile, n, run.Submission.Locale)...)
		}
	}
	if run.Event.IsMonetary {
		if err := s.loadPriceConfiguration(ctx, run); err != nil {
			return nil, err
		}
		specs = append(specs, profiles.PriceSpecs(run.Event, run.priceFields, run.optionUsage, run.Submission.Locale)...)
	}
	if run.Participant != nil {
		// Invitation flow: offer the confirm field.
		specs = append(specs, domain.FieldSpec{
			Name:     "confirm",
			Type:     domain.FieldCheckbox,
			Entity:   domain.EntityNone,
			Required: true,
			Label:    "Confirm participation",
			Weight:   5,
		})
	}

	waitlisted, err := run.view.HasActiveWaitlist(ctx, run.Event)
	if err != nil {
		return nil, err
	}
	if waitlisted {
		result.Status = append(result.Status, domain.Message{Message: "The event is currently booked out; new registrations are added to the waitlist"})
	}
	result.Fields = specs
	return result, nil
}

func (s *registrationService) buildUpdateForm(ctx context.Context, run *regRun, result *domain.FormResult) (*domain.FormResult, error) {
	decision, err := run.view.CanEditRegistration(ctx, run.Event, run.ContactID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed() {
		result.Fields = []domain.FieldSpec{}
		result.Status = append(result.Status, domain.Message{Message: decision.Reason()})
		return result, nil
	}

	specs := profiles.AddDefaults(run.profile, run.profile.Fields(run.Submission.Locale), run.Contact)
	// Prefill participant-entity fields from the existing registration.
	if run.Participant != nil && run.Participant.Fields != nil {
		for i := range specs {
			if specs[i].Entity != domain.EntityParticipant {
				continue
			}
			if v, ok := run.Participant.Fields[specs[i].Name]; ok && v != "" {
				specs[i].Value = v
			}
		}
	}
	result.Fields = specs
	return result, nil
}

func (s *registrationService) buildCancelForm(ctx context.Context, run *regRun, result *domain.FormResult) (*domain.FormResult, error) {
	if run.Participant == nil {
		active, err := run.view.ActiveRegistration(ctx, run.Event.ID, run.ContactID)
		if err != nil {
			return nil, err
		}
		run.Participant = active
	}
	if run.Participant == nil {
		result.Fields = []domain.FieldSpec{}
		result.Status = append(result.Status, domain.Message{Message: "No active registration found for this event"})
		return result, nil
	}
	if decision := s.elig.ParticipantCanBeCancelled(run.Event, run.Participant); !decision.Allowed() {
		result.Fields = []domain.FieldSpec{}
		result.Status = append(result.Status, domain.Message{Message: decision.Reason()})
		return result, nil
	}
	result.Fields = []domain.FieldSpec{
		{
			Name:     "confirm_cancellation",
			Type:     domain.FieldCheckbox,
			Entity:   domain.EntityNone,
			Required: true,
			Label:    "Confirm cancellation",
			Weight:   10,
		},
	}
	return result, nil
}
