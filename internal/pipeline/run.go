package pipeline

import (
	"sync/atomic"
	"time"

	"remoteevents/internal/domain"
)

// Run is the shared mutable context one API call threads through its
// handler chain: the submission, lazily resolved identity, in-progress
// entity data and the three message channels.
type Run struct {
	Submission domain.Submission
	Action     string
	Now        time.Time

	// Resolved once, cached for the lifetime of the run.
	Event       *domain.Event
	ProfileName string
	ContactID   string
	Contact     *domain.Contact

	// Participant identified via token (invitation/update/cancel flows).
	Participant *domain.Participant

	// Status the create pipeline determined for new participants.
	NewStatus string

	// In-progress entity data collected from the submission.
	ContactFields     map[string]string
	ParticipantFields map[string]string

	// Planned updates computed by the update pipeline, one combined write
	// per entity.
	PlannedContactUpdates     map[string]string
	PlannedParticipantUpdates map[string]string

	// Participants selected for cancellation (registrant + additionals).
	CancelSet []*domain.Participant

	// Results of the create pipeline.
	CreatedParticipant     *domain.Participant
	AdditionalParticipants []*domain.Participant
	Order                  *domain.Order

	// Flags preventing duplicate work by later handlers.
	ContactUpdated     bool
	ParticipantUpdated bool
	StatusDetermined   bool

	errors   []domain.Message
	warnings []domain.Message
	status   []domain.Message

	consumed atomic.Bool
}

// NewRun wraps a submission for one pipeline execution.
func NewRun(action string, sub domain.Submission, now time.Time) *Run {
	return &Run{
		Submission:                sub,
		Action:                    action,
		Now:                       now,
		ContactFields:             make(map[string]string),
		ParticipantFields:         make(map[string]string),
		PlannedContactUpdates:     make(map[string]string),
		PlannedParticipantUpdates: make(map[string]string),
	}
}

func (r *Run) consumeRun() (already bool) {
	return r.consumed.Swap(true)
}

// AddError appends a blocking, optionally field-addressed error.
func (r *Run) AddError(field, message string) {
	r.errors = append(r.errors, domain.Message{Message: message, Field: field})
}

// AddWarning appends a non-blocking warning.
func (r *Run) AddWarning(field, message string) {
	r.warnings = append(r.warnings, domain.Message{Message: message, Field: field})
}

// AddStatus appends a neutral status/info message.
func (r *Run) AddStatus(message string) {
	r.status = append(r.status, domain.Message{Message: message})
}

// HasErrors reports whether any blocking error has accumulated.
func (r *Run) HasErrors() bool { return len(r.errors) > 0 }

// Errors returns the accumulated errors.
func (r *Run) Errors() []domain.Message { return r.errors }

// Warnings returns the accumulated warnings.
func (r *Run) Warnings() []domain.Message { return r.warnings }

// Status returns the accumulated status messages.
func (r *Run) Status() []domain.Message { return r.status }

// Result folds the run into the API result shape. All channels are always
// present, never nil.
func (r *Run) Result() *domain.RegistrationResult {
	res := &domain.RegistrationResult{
		IsError:  r.HasErrors(),
		Errors:   r.errors,
		Warnings: r.warnings,
		Status:   r.status,
	}
	if res.Errors == nil {
		res.Errors = []domain.Message{}
	}
	if res.Warnings == nil {
		res.Warnings = []domain.Message{}
	}
	if res.Status == nil {
		res.Status = []domain.Message{}
	}
	if res.IsError {
		res.ErrorMessage = r.errors[0].Message
	}
	if r.CreatedParticipant != nil {
		res.ParticipantID = r.CreatedParticipant.ID
	} else if r.Participant != nil && !res.IsError {
		res.ParticipantID = r.Participant.ID
	}
	return res
}
