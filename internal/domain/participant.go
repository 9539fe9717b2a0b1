package domain

import (
	"context"
	"time"
)

// StatusClass is the coarse classification of a participant status. Every
// eligibility and counting rule works on the class, never on the raw status.
type StatusClass string

const (
	ClassPositive StatusClass = "Positive"
	ClassPending  StatusClass = "Pending"
	ClassNegative StatusClass = "Negative"
	ClassWaiting  StatusClass = "Waiting"
)

// Well-known participant status names. The status table may carry more.
const (
	StatusRegistered       = "Registered"
	StatusAttended         = "Attended"
	StatusAwaitingApproval = "Awaiting approval"
	StatusPendingPayLater  = "Pending from pay later"
	StatusInvited          = "Invited"
	StatusOnWaitlist       = "On waitlist"
	StatusCancelled        = "Cancelled"
	StatusRejected         = "Rejected"
	StatusExpired          = "Expired"
	StatusNoShow           = "No-show"
)

// ParticipantStatus describes one fine-grained status and whether
// participants holding it count toward event capacity.
// swagger:model ParticipantStatus
type ParticipantStatus struct {
	Name      string      `json:"name"`
	Class     StatusClass `json:"class"`
	IsCounted bool        `json:"is_counted"`
}

// Role is a participant role; only roles with IsFilter set count toward
// capacity.
type Role struct {
	Name     string `json:"name"`
	IsFilter bool   `json:"is_filter"`
}

// DefaultRoleAttendee is assigned when a submission carries no role.
const DefaultRoleAttendee = "Attendee"

// Participant is one registration of one contact to one event. Participants
// are never hard-deleted; cancellation moves them to a Negative-class status.
// swagger:model Participant
type Participant struct {
	ID             string            `json:"id"`
	EventID        string            `json:"event_id"`
	ContactID      string            `json:"contact_id"`
	Status         string            `json:"status"`
	Roles          []string          `json:"roles"`
	RegisteredAt   time.Time         `json:"registered_at"`
	RegisteredByID string            `json:"registered_by_id,omitempty"`
	IsTest         bool              `json:"is_test,omitempty"`
	Fields         map[string]string `json:"fields,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// NewParticipant returns a new Participant. ID is set by the repository on
// create.
func NewParticipant(eventID, contactID, status string, roles []string, registeredAt time.Time) *Participant {
	if len(roles) == 0 {
		roles = []string{DefaultRoleAttendee}
	}
	return &Participant{
		EventID:      eventID,
		ContactID:    contactID,
		Status:       status,
		Roles:        roles,
		RegisteredAt: registeredAt,
	}
}

// ParticipantFilter narrows participant queries.
type ParticipantFilter struct {
	EventID     string
	ContactID   string
	Classes     []StatusClass
	Statuses    []string
	ExcludeTest bool
}

// ParticipantRepository defines storage operations for participants.
type ParticipantRepository interface {
	Create(ctx context.Context, p *Participant) error
	GetByID(ctx context.Context, id string) (*Participant, error)
	List(ctx context.Context, f ParticipantFilter) ([]*Participant, error)
	ListRegisteredBy(ctx context.Context, registeredByID string) ([]*Participant, error)
	Update(ctx context.Context, p *Participant) error
	UpdateStatus(ctx context.Context, ids []string, status string) error
}

// StatusRepository provides the status metadata table.
type StatusRepository interface {
	ListStatuses(ctx context.Context) ([]*ParticipantStatus, error)
	ListRoles(ctx context.Context) ([]*Role, error)
}

// DefaultStatuses is the seed status metadata used when the CRM provides
// none, and by tests.
func DefaultStatuses() []*ParticipantStatus {
	return []*ParticipantStatus{
		{Name: StatusRegistered, Class: ClassPositive, IsCounted: true},
		{Name: StatusAttended, Class: ClassPositive, IsCounted: true},
		{Name: StatusAwaitingApproval, Class: ClassPending, IsCounted: true},
		{Name: StatusPendingPayLater, Class: ClassPending, IsCounted: true},
		{Name: StatusInvited, Class: ClassPending, IsCounted: false},
		{Name: StatusOnWaitlist, Class: ClassWaiting, IsCounted: true},
		{Name: StatusCancelled, Class: ClassNegative, IsCounted: false},
		{Name: StatusRejected, Class: ClassNegative, IsCounted: false},
		{Name: StatusExpired, Class: ClassNegative, IsCounted: false},
		{Name: StatusNoShow, Class: ClassNegative, IsCounted: false},
	}
}

// DefaultRoles is the seed role metadata.
func DefaultRoles() []*Role {
	return []*Role{
		{Name: DefaultRoleAttendee, IsFilter: true},
		{Name: "Speaker", IsFilter: false},
		{Name: "Host", IsFilter: false},
		{Name: "Volunteer", IsFilter: false},
	}
}

// StatusIndex resolves status names to their metadata.
type StatusIndex struct {
	byName map[string]*ParticipantStatus
	roles  map[string]*Role
}

// NewStatusIndex builds an index over status and role metadata.
func NewStatusIndex(statuses []*ParticipantStatus, roles []*Role) *StatusIndex {
	idx := &StatusIndex{
		byName: make(map[string]*ParticipantStatus, len(statuses)),
		roles:  make(map[string]*Role, len(roles)),
	}
	for _, s := range statuses {
		idx.byName[s.Name] = s
	}
	for _, r := range roles {
		idx.roles[r.Name] = r
	}
	return idx
}

// Class returns the status class for a status name; unknown statuses are
// treated as Pending so they never count as cancelled by accident.
func (i *StatusIndex) Class(status string) StatusClass {
	if s, ok := i.byName[status]; ok {
		return s.Class
	}
	return ClassPending
}

// IsCounted reports whether the named status counts toward capacity.
func (i *StatusIndex) IsCounted(status string) bool {
	if s, ok := i.byName[status]; ok {
		return s.IsCounted
	}
	return false
}

// RoleCounts reports whether a participant with the given roles is subject
// to capacity counting. A participant counts if any of its roles is a
// filter role; participants without roles count.
func (i *StatusIndex) RoleCounts(roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, name := range roles {
		if r, ok := i.roles[name]; ok && r.IsFilter {
			return true
		}
	}
	return false
}

// ParticipantChange is one audit-trail row recorded when the update or
// cancel pipeline mutates a participant.
// swagger:model ParticipantChange
type ParticipantChange struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participant_id"`
	Field         string    `json:"field"`
	OldValue      string    `json:"old_value"`
	NewValue      string    `json:"new_value"`
	Source        string    `json:"source"`
	ChangedAt     time.Time `json:"changed_at"`
}

// ParticipantChangeRepository stores the audit trail.
type ParticipantChangeRepository interface {
	Record(ctx context.Context, changes []*ParticipantChange) error
	ListByParticipantID(ctx context.Context, participantID string) ([]*ParticipantChange, error)
}
