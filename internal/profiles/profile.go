// Package profiles implements the pluggable registration profiles: named
// field-spec contracts that decide which fields a form offers, how a
// submission is validated, and which entity each value is written to.
package profiles

import (
	"remoteevents/internal/domain"
	"remoteevents/internal/pipeline"
)

// Profile is the capability contract of a registration profile. Fields
// drives both form building and validation; both sides must go through the
// same resolution or they diverge.
type Profile interface {
	Name() string
	Fields(locale string) []domain.FieldSpec
}

// SubmissionValidator is implemented by profiles that replace the generic
// field-spec validation walker.
type SubmissionValidator interface {
	ValidateSubmission(run *pipeline.Run)
}

// DefaultValuer is implemented by profiles that replace the generic
// contact-based prefill.
type DefaultValuer interface {
	AddDefaultValues(specs []domain.FieldSpec, contact *domain.Contact)
}

// MatcherProfile returns the XCM matcher profile a registration profile
// wants; the empty string selects the matcher default.
type MatcherProfile interface {
	XCMProfile() string
}

// Validate runs the profile's own validation when it has one, otherwise
// the generic walker over its field specs.
func Validate(p Profile, run *pipeline.Run) {
	if v, ok := p.(SubmissionValidator); ok {
		v.ValidateSubmission(run)
		return
	}
	ValidateSpecs(p.Fields(run.Submission.Locale), run, "")
}

// AddDefaults prefills field specs from a contact record.
func AddDefaults(p Profile, specs []domain.FieldSpec, contact *domain.Contact) []domain.FieldSpec {
	if contact == nil {
		return specs
	}
	if dv, ok := p.(DefaultValuer); ok {
		dv.AddDefaultValues(specs, contact)
		return specs
	}
	for i := range specs {
		if specs[i].Entity != domain.EntityContact {
			continue
		}
		source := specs[i].PrefillFrom
		if source == "" {
			source = specs[i].Name
		}
		if v, ok := contact.Fields[source]; ok && v != "" {
			specs[i].Value = v
		}
	}
	return specs
}

// XCMProfileName returns the matcher profile configured by p, if any.
func XCMProfileName(p Profile) string {
	if m, ok := p.(MatcherProfile); ok {
		return m.XCMProfile()
	}
	return ""
}

// CollectEntityFields splits submitted values by target entity according
// to the profile's specs. Unknown submission keys are ignored.
func CollectEntityFields(p Profile, run *pipeline.Run) (contact, participant map[string]string) {
	contact = make(map[string]string)
	participant = make(map[string]string)
	for _, spec := range p.Fields(run.Submission.Locale) {
		v, ok := run.Submission.Field(spec.Name)
		if !ok || v == "" {
			continue
		}
		switch spec.Entity {
		case domain.EntityContact:
			contact[spec.Name] = v
		case domain.EntityParticipant:
			participant[spec.Name] = v
		}
	}
	return contact, participant
}
