package profiles

import "remoteevents/internal/domain"

// Built-in profile names.
const (
	NameStandard1 = "Standard1"
	NameStandard2 = "Standard2"
	NameStandard3 = "Standard3"
)

// standardProfile implements the three built-in contact profiles: tier 1
// is email+name, tier 2 adds the postal address, tier 3 adds phone and
// organization.
type standardProfile struct {
	name string
	tier int
}

func (p *standardProfile) Name() string { return p.name }

func (p *standardProfile) Fields(locale string) []domain.FieldSpec {
	specs := []domain.FieldSpec{
		{
			Name:   "contact_base",
			Type:   domain.FieldFieldset,
			Entity: domain.EntityNone,
			Label:  localize(locale, "Contact Data"),
			Weight: 10,
		},
		{
			Name:       domain.ContactFieldEmail,
			Type:       domain.FieldText,
			Entity:     domain.EntityContact,
			Required:   true,
			Validation: domain.RuleEmail,
			MaxLength:  254,
			Label:      localize(locale, "Email"),
			Parent:     "contact_base",
			Weight:     20,
		},
		{
			Name:    domain.ContactFieldPrefix,
			Type:    domain.FieldSelect,
			Entity:  domain.EntityContact,
			Label:   localize(locale, "Prefix"),
			Parent:  "contact_base",
			Weight:  30,
			Options: map[string]string{"mr": "Mr.", "ms": "Ms.", "mx": "Mx."},
		},
		{
			Name:      domain.ContactFieldFirstName,
			Type:      domain.FieldText,
			Entity:    domain.EntityContact,
			Required:  true,
			MaxLength: 64,
			Label:     localize(locale, "First Name"),
			Parent:    "contact_base",
			Weight:    40,
		},
		{
			Name:      domain.ContactFieldLastName,
			Type:      domain.FieldText,
			Entity:    domain.EntityContact,
			Required:  true,
			MaxLength: 64,
			Label:     localize(locale, "Last Name"),
			Parent:    "contact_base",
			Weight:    50,
		},
	}

	if p.tier >= 2 {
		specs = append(specs,
			domain.FieldSpec{
				Name:   "contact_address",
				Type:   domain.FieldFieldset,
				Entity: domain.EntityNone,
				Label:  localize(locale, "Contact Address"),
				Weight: 60,
			},
			domain.FieldSpec{
				Name:      domain.ContactFieldStreet,
				Type:      domain.FieldText,
				Entity:    domain.EntityContact,
				MaxLength: 96,
				Label:     localize(locale, "Street Address"),
				Parent:    "contact_address",
				Weight:    70,
			},
			domain.FieldSpec{
				Name:      domain.ContactFieldPostalCode,
				Type:      domain.FieldText,
				Entity:    domain.EntityContact,
				MaxLength: 12,
				Label:     localize(locale, "Postal Code"),
				Parent:    "contact_address",
				Weight:    80,
			},
			domain.FieldSpec{
				Name:      domain.ContactFieldCity,
				Type:      domain.FieldText,
				Entity:    domain.EntityContact,
				MaxLength: 64,
				Label:     localize(locale, "City"),
				Parent:    "contact_address",
				Weight:    90,
			},
			domain.FieldSpec{
				Name:      domain.ContactFieldCountry,
				Type:      domain.FieldText,
				Entity:    domain.EntityContact,
				MaxLength: 64,
				Label:     localize(locale, "Country"),
				Parent:    "contact_address",
				Weight:    100,
			},
		)
	}

	if p.tier >= 3 {
		specs = append(specs,
			domain.FieldSpec{
				Name:      domain.ContactFieldPhone,
				Type:      domain.FieldText,
				Entity:    domain.EntityContact,
				MaxLength: 32,
				Label:     localize(locale, "Phone"),
				Parent:    "contact_base",
				Weight:    110,
			},
			domain.FieldSpec{
				Name:      domain.ContactFieldOrganization,
				Type:      domain.FieldText,
				Entity:    domain.EntityContact,
				MaxLength: 128,
				Label:     localize(locale, "Organization"),
				Parent:    "contact_base",
				Weight:    120,
			},
		)
	}

	specs = append(specs, domain.FieldSpec{
		Name:      "note",
		Type:      domain.FieldTextarea,
		Entity:    domain.EntityParticipant,
		MaxLength: 2000,
		Label:     localize(locale, "Note"),
		Weight:    500,
	})
	return specs
}

func (p *standardProfile) XCMProfile() string { return "" }

// localize is the label translation hook. Only the default locale ships
// with the service; the CRM side carries the translation tables.
func localize(locale, label string) string {
	return label
}
