package domain

import (
	"context"
	"time"
)

// Event is the registration configuration for one activity. Events are
// administered in the CRM; this service reads them and only ever touches
// their registration counts indirectly through participants.
// swagger:model Event
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	IsActive  bool `json:"is_active"`
	Suspended bool `json:"registration_suspended"`

	RegistrationStart *time.Time `json:"registration_start,omitempty"`
	RegistrationEnd   *time.Time `json:"registration_end,omitempty"`

	MaxParticipants  int  `json:"max_participants"` // 0 = unlimited
	HasWaitlist      bool `json:"has_waitlist"`
	RequiresApproval bool `json:"requires_approval"`
	RequiresContact  bool `json:"requires_contact"` // anonymous submissions rejected

	// Self-service cancel/transfer.
	AllowSelfCancelXfer bool `json:"allow_selfcancelxfer"`
	SelfCancelXferHours int  `json:"selfcancelxfer_time"` // hours before start, 0 = no limit

	// Enabled registration profiles per context, first entry is a fallback
	// when no default is configured.
	Profiles             []string `json:"enabled_profiles"`
	DefaultProfile       string   `json:"default_profile"`
	UpdateProfiles       []string `json:"enabled_update_profiles"`
	DefaultUpdateProfile string   `json:"default_update_profile"`

	// Monetary configuration.
	IsMonetary bool   `json:"is_monetary"`
	Currency   string `json:"currency,omitempty"`
	FeeLabel   string `json:"fee_label,omitempty"`

	// Multi-participant registration.
	AllowMultiple             bool `json:"allow_multiple_participants"`
	MaxAdditionalParticipants int  `json:"max_additional_participants"`

	IntroText     string `json:"intro_text,omitempty"`
	FooterText    string `json:"footer_text,omitempty"`
	BookedOutText string `json:"booked_out_text,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Started reports whether the event has started at the given time.
func (e *Event) Started(now time.Time) bool {
	return !e.StartDate.After(now)
}

// Ended reports whether the event end date has passed. Events without an
// end date never end for registration purposes.
func (e *Event) Ended(now time.Time) bool {
	return e.EndDate != nil && e.EndDate.Before(now)
}

// RegistrationOpen reports whether the registration window is open.
func (e *Event) RegistrationOpen(now time.Time) bool {
	if e.RegistrationStart != nil && e.RegistrationStart.After(now) {
		return false
	}
	if e.RegistrationEnd != nil && e.RegistrationEnd.Before(now) {
		return false
	}
	return true
}

// CreateProfile resolves the effective profile name for a create submission.
// An explicitly requested profile must be in the enabled list.
func (e *Event) CreateProfile(requested string) (string, bool) {
	return resolveProfile(requested, e.Profiles, e.DefaultProfile)
}

// UpdateProfile resolves the effective profile name for an update submission.
func (e *Event) UpdateProfile(requested string) (string, bool) {
	return resolveProfile(requested, e.UpdateProfiles, e.DefaultUpdateProfile)
}

func resolveProfile(requested string, enabled []string, def string) (string, bool) {
	if requested != "" {
		for _, name := range enabled {
			if name == requested {
				return requested, true
			}
		}
		return "", false
	}
	if def != "" {
		return def, true
	}
	if len(enabled) > 0 {
		return enabled[0], true
	}
	return "", false
}

// EventRepository defines read access to event configuration.
type EventRepository interface {
	GetByID(ctx context.Context, id string) (*Event, error)
	ListActive(ctx context.Context) ([]*Event, error)
}

// EventFlags are the per-contact capability flags attached to a listed event.
// swagger:model EventFlags
type EventFlags struct {
	CanRegister       bool   `json:"can_register"`
	CannotRegisterWhy string `json:"cannot_register_reason,omitempty"`
	CanEdit           bool   `json:"can_edit"`
	CanCancel         bool   `json:"can_cancel"`
	WaitlistActive    bool   `json:"is_waitlist_active"`
	IsRegistered      bool   `json:"is_registered"`
	RegisteredStatus  string `json:"registered_status,omitempty"`
}

// EventInfo bundles an event with the flags computed for one caller.
// swagger:model EventInfo
type EventInfo struct {
	Event *Event     `json:"event"`
	Flags EventFlags `json:"flags"`
}

// EventService lists events with personalized capability flags.
type EventService interface {
	ListRemoteEvents(ctx context.Context, remoteContactID string) ([]*EventInfo, error)
}
