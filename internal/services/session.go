package services

import (
	"context"
	"errors"
	"fmt"

	"remoteevents/internal/domain"
)

type sessionService struct {
	sessions     domain.SessionRepository
	participants domain.ParticipantRepository
	statuses     *domain.StatusIndex
}

// NewSessionService creates the workshop/session sub-feature service.
func NewSessionService(sessions domain.SessionRepository, participants domain.ParticipantRepository, statuses *domain.StatusIndex) domain.SessionService {
	return &sessionService{sessions: sessions, participants: participants, statuses: statuses}
}

// ListEventSessions returns the active sessions of an event with their
// current registration counts.
func (s *sessionService) ListEventSessions(ctx context.Context, eventID string) ([]*domain.SessionWithCounts, error) {
	sessions, err := s.sessions.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	ids := make([]string, 0, len(sessions))
	for _, sess := range sessions {
		ids = append(ids, sess.ID)
	}
	counts := map[string]int{}
	if len(ids) > 0 {
		counts, err = s.sessions.CountRegistrations(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("count session registrations: %w", err)
		}
	}
	result := make([]*domain.SessionWithCounts, 0, len(sessions))
	for _, sess := range sessions {
		if !sess.IsActive {
			continue
		}
		n := counts[sess.ID]
		result = append(result, &domain.SessionWithCounts{
			Session:    sess,
			Registered: n,
			IsFull:     sess.MaxParticipants > 0 && n >= sess.MaxParticipants,
		})
	}
	return result, nil
}

// SetParticipantSessions rebooks the participant's session set. The new
// set must respect per-session capacity (sessions the participant already
// holds do not count against them) and slot exclusivity: at most one
// session per slot.
func (s *sessionService) SetParticipantSessions(ctx context.Context, participantID string, sessionIDs []string) error {
	participant, err := s.participants.GetByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get participant: %w", err)
	}
	if s.statuses.Class(participant.Status) == domain.ClassNegative {
		return fmt.Errorf("%w: registration is cancelled", domain.ErrInvalidInput)
	}

	current, err := s.sessions.ListRegistrationsByParticipant(ctx, participantID)
	if err != nil {
		return fmt.Errorf("list session registrations: %w", err)
	}
	held := make(map[string]bool, len(current))
	for _, reg := range current {
		held[reg.SessionID] = true
	}

	// Validate the target set before touching anything.
	bySlot := make(map[string]string)
	wanted := make(map[string]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		if wanted[id] {
			continue
		}
		wanted[id] = true

		sess, err := s.sessions.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: unknown session %s", domain.ErrInvalidInput, id)
			}
			return fmt.Errorf("get session: %w", err)
		}
		if sess.EventID != participant.EventID {
			return fmt.Errorf("%w: session %s belongs to another event", domain.ErrInvalidInput, id)
		}
		if !sess.IsActive {
			return fmt.Errorf("%w: session '%s' is not open", domain.ErrInvalidInput, sess.Title)
		}
		if sess.SlotID != "" {
			if other, clash := bySlot[sess.SlotID]; clash {
				return fmt.Errorf("%w: sessions '%s' and '%s' share a time slot", domain.ErrInvalidInput, other, sess.Title)
			}
			bySlot[sess.SlotID] = sess.Title
		}
		if !held[id] && sess.MaxParticipants > 0 {
			counts, err := s.sessions.CountRegistrations(ctx, []string{id})
			if err != nil {
				return fmt.Errorf("count session registrations: %w", err)
			}
			if counts[id] >= sess.MaxParticipants {
				return fmt.Errorf("%w: session '%s' is booked out", domain.ErrInvalidInput, sess.Title)
			}
		}
	}

	// Drop registrations no longer wanted, then add the new ones.
	for _, reg := range current {
		if !wanted[reg.SessionID] {
			if err := s.sessions.DeleteRegistration(ctx, reg.SessionID, participantID); err != nil {
				return fmt.Errorf("delete session registration: %w", err)
			}
		}
	}
	for id := range wanted {
		if held[id] {
			continue
		}
		reg := &domain.SessionRegistration{SessionID: id, ParticipantID: participantID}
		if err := s.sessions.CreateRegistration(ctx, reg); err != nil {
			return fmt.Errorf("create session registration: %w", err)
		}
	}
	return nil
}
