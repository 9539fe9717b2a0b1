package domain

import (
	"context"
	"time"
)

// Slot is a mutual-exclusivity group for sessions; a participant may hold
// at most one session registration per slot.
// swagger:model Slot
type Slot struct {
	ID      string `json:"id"`
	EventID string `json:"event_id"`
	Label   string `json:"label"`
	Weight  int    `json:"weight"`
}

// Session is a workshop or track session within an event, with its own
// capacity independent of the event's.
// swagger:model Session
type Session struct {
	ID              string     `json:"id"`
	EventID         string     `json:"event_id"`
	SlotID          string     `json:"slot_id,omitempty"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Location        string     `json:"location,omitempty"`
	StartTime       *time.Time `json:"start_time,omitempty"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	MaxParticipants int        `json:"max_participants"` // 0 = unlimited
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Speaker is a roster entry shown with an event or session.
// swagger:model Speaker
type Speaker struct {
	ID        string `json:"id"`
	EventID   string `json:"event_id"`
	SessionID string `json:"session_id,omitempty"`
	Name      string `json:"name"`
	Role      string `json:"role,omitempty"`
	Bio       string `json:"bio,omitempty"`
}

// SessionRegistration joins a participant to a session.
// swagger:model SessionRegistration
type SessionRegistration struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	ParticipantID string    `json:"participant_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// SessionWithCounts bundles a session with its current registration count.
// swagger:model SessionWithCounts
type SessionWithCounts struct {
	Session    *Session `json:"session"`
	Registered int      `json:"registered"`
	IsFull     bool     `json:"is_full"`
}

// SessionRepository defines storage for sessions, slots, speakers and
// session registrations.
type SessionRepository interface {
	ListByEventID(ctx context.Context, eventID string) ([]*Session, error)
	GetByID(ctx context.Context, id string) (*Session, error)
	ListSlotsByEventID(ctx context.Context, eventID string) ([]*Slot, error)
	ListSpeakersByEventID(ctx context.Context, eventID string) ([]*Speaker, error)
	CountRegistrations(ctx context.Context, sessionIDs []string) (map[string]int, error)
	ListRegistrationsByParticipant(ctx context.Context, participantID string) ([]*SessionRegistration, error)
	CreateRegistration(ctx context.Context, reg *SessionRegistration) error
	DeleteRegistration(ctx context.Context, sessionID, participantID string) error
}

// SessionService exposes the workshop sub-feature: listing with counts and
// rebooking a participant's session set under capacity and slot rules.
type SessionService interface {
	ListEventSessions(ctx context.Context, eventID string) ([]*SessionWithCounts, error)
	SetParticipantSessions(ctx context.Context, participantID string, sessionIDs []string) error
}
