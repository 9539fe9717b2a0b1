package services

import (
	"context"
	"errors"
	"fmt"

	"remoteevents/internal/domain"
)

type eventService struct {
	events   domain.EventRepository
	contacts domain.ContactRepository
	elig     *Eligibility
}

// NewEventService creates the personalized event listing service.
func NewEventService(events domain.EventRepository, contacts domain.ContactRepository, elig *Eligibility) domain.EventService {
	return &eventService{events: events, contacts: contacts, elig: elig}
}

// ListRemoteEvents returns the active events with the capability flags of
// the calling contact (or of an anonymous caller when no remote contact id
// is supplied).
func (s *eventService) ListRemoteEvents(ctx context.Context, remoteContactID string) ([]*domain.EventInfo, error) {
	events, err := s.events.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	contactID := ""
	if remoteContactID != "" {
		contact, err := s.contacts.GetByID(ctx, remoteContactID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("get contact: %w", err)
		}
		if contact != nil {
			contactID = contact.ID
		}
	}

	view := s.elig.View()
	infos := make([]*domain.EventInfo, 0, len(events))
	for _, event := range events {
		flags := domain.EventFlags{}

		decision, err := view.CanRegister(ctx, event, contactID)
		if err != nil {
			return nil, err
		}
		flags.CanRegister = decision.Allowed()
		flags.CannotRegisterWhy = decision.Reason()

		waitlisted, err := view.HasActiveWaitlist(ctx, event)
		if err != nil {
			return nil, err
		}
		flags.WaitlistActive = waitlisted

		if contactID != "" {
			active, err := view.ActiveRegistration(ctx, event.ID, contactID)
			if err != nil {
				return nil, err
			}
			if active != nil {
				flags.IsRegistered = true
				flags.RegisteredStatus = active.Status

				edit, err := view.CanEditRegistration(ctx, event, contactID)
				if err != nil {
					return nil, err
				}
				flags.CanEdit = edit.Allowed()
				flags.CanCancel = s.elig.ParticipantCanBeCancelled(event, active).Allowed()
			}
		}

		infos = append(infos, &domain.EventInfo{Event: event, Flags: flags})
	}
	return infos, nil
}
