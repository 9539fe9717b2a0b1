package domain

// FieldType is the rendering type tag of a form field.
type FieldType string

const (
	FieldText        FieldType = "Text"
	FieldTextarea    FieldType = "Textarea"
	FieldSelect      FieldType = "Select"
	FieldMultiSelect FieldType = "Multi-Select"
	FieldCheckbox    FieldType = "Checkbox"
	FieldDate        FieldType = "Date"
	FieldDatetime    FieldType = "Datetime"
	FieldFile        FieldType = "File"
	FieldValue       FieldType = "Value"
	FieldFieldset    FieldType = "fieldset"
)

// FieldEntity names which record a field value is written to.
type FieldEntity string

const (
	EntityContact     FieldEntity = "Contact"
	EntityParticipant FieldEntity = "Participant"
	EntityNone        FieldEntity = "None"
)

// Validation rule names understood by the profile validator. They map onto
// go-playground/validator tags.
const (
	RuleEmail     = "Email"
	RuleInteger   = "Integer"
	RuleFloat     = "Float"
	RuleBoolean   = "Boolean"
	RuleDate      = "Date"
	RuleTimestamp = "Timestamp"
	RuleIBAN      = "IBAN"
	RuleBIC       = "BIC"
)

// FieldSpec describes one form field: how to render it, how to validate a
// submitted value, and where the value ends up.
// swagger:model FieldSpec
type FieldSpec struct {
	Name        string            `json:"name"`
	Type        FieldType         `json:"type"`
	Entity      FieldEntity       `json:"entity"`
	Required    bool              `json:"required"`
	Validation  string            `json:"validation,omitempty"`
	MaxLength   int               `json:"maxlength,omitempty"`
	Label       string            `json:"label"`
	Description string            `json:"description,omitempty"`
	Parent      string            `json:"parent,omitempty"` // fieldset grouping
	Weight      int               `json:"weight"`
	Options     map[string]string `json:"options,omitempty"`
	Value       string            `json:"value,omitempty"` // prefill
	// PrefillFrom names the contact/participant field used for prefilling;
	// empty means Name.
	PrefillFrom string `json:"-"`
}

// FormResult is the get_form response payload: the ordered field specs plus
// the standard fields and any greeting/status messages.
// swagger:model FormResult
type FormResult struct {
	EventID         string      `json:"event_id"`
	Profile         string      `json:"profile"`
	Action          string      `json:"action"`
	RemoteContactID string      `json:"remote_contact_id,omitempty"`
	Greeting        string      `json:"greeting,omitempty"`
	Fields          []FieldSpec `json:"fields"`
	Status          []Message   `json:"status,omitempty"`
}
