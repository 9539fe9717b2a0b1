package domain

import "context"

// Contact is the CRM person record. The service only ever reads or writes
// the field subset named by the active registration profile; contact
// lifecycle belongs to the CRM and its matching service.
// swagger:model Contact
type Contact struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

// Common contact field keys used by the built-in profiles.
const (
	ContactFieldEmail        = "email"
	ContactFieldPrefix       = "prefix"
	ContactFieldFirstName    = "first_name"
	ContactFieldLastName     = "last_name"
	ContactFieldOrganization = "organization"
	ContactFieldPhone        = "phone"
	ContactFieldStreet       = "street_address"
	ContactFieldPostalCode   = "postal_code"
	ContactFieldCity         = "city"
	ContactFieldCountry      = "country"
)

// ContactRepository defines the storage operations the pipelines need on
// contacts. Updates write only the submitted subset.
type ContactRepository interface {
	GetByID(ctx context.Context, id string) (*Contact, error)
	UpdateFields(ctx context.Context, id string, fields map[string]string) error
}

// ContactMatcher is the external dedupe/create service (XCM). Given a
// matcher profile and identity fields it returns the id of an existing or
// newly created contact.
type ContactMatcher interface {
	MatchOrCreate(ctx context.Context, profile string, fields map[string]string) (contactID string, err error)
}
