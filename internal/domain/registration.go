package domain

import "context"

// Registration actions as submitted by remote clients.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionCancel = "cancel"
)

// Message is one user-facing diagnostic, optionally addressed to a field.
// swagger:model Message
type Message struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Submission is the raw inbound payload of a form/validate/submit/update/
// cancel call. Fields holds every profile field by name, including
// additional_<n>_ prefixed blocks and price/payment fields.
// swagger:model Submission
type Submission struct {
	EventID         string            `json:"event_id,omitempty"`
	Token           string            `json:"token,omitempty"`
	Profile         string            `json:"profile,omitempty"`
	RemoteContactID string            `json:"remote_contact_id,omitempty"`
	ContactID       string            `json:"contact_id,omitempty"`
	Locale          string            `json:"locale,omitempty"`
	Fields          map[string]string `json:"fields,omitempty"`
}

// Field returns a submitted field value and whether it was present.
func (s *Submission) Field(name string) (string, bool) {
	v, ok := s.Fields[name]
	return v, ok
}

// FormRequest parameterizes get_form.
// swagger:model FormRequest
type FormRequest struct {
	EventID         string `json:"event_id,omitempty"`
	Token           string `json:"token,omitempty"`
	Action          string `json:"action,omitempty"` // create|update|cancel, default create
	Profile         string `json:"profile,omitempty"`
	RemoteContactID string `json:"remote_contact_id,omitempty"`
	Locale          string `json:"locale,omitempty"`
}

// RegistrationResult carries the outcome of validate/submit/update/cancel.
// All three message channels are always returned so clients can render
// blocking errors, soft guidance and confirmations distinctly.
// swagger:model RegistrationResult
type RegistrationResult struct {
	ParticipantID string    `json:"participant_id,omitempty"`
	IsError       bool      `json:"is_error"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	Errors        []Message `json:"errors"`
	Warnings      []Message `json:"warnings"`
	Status        []Message `json:"status"`
}

// RegistrationService is the remote registration API surface.
type RegistrationService interface {
	GetForm(ctx context.Context, req FormRequest) (*FormResult, error)
	Validate(ctx context.Context, sub Submission) (*RegistrationResult, error)
	Submit(ctx context.Context, sub Submission) (*RegistrationResult, error)
	Update(ctx context.Context, sub Submission) (*RegistrationResult, error)
	Cancel(ctx context.Context, sub Submission) (*RegistrationResult, error)
}
