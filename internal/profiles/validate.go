package profiles

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"remoteevents/internal/domain"
	"remoteevents/internal/pipeline"
)

// validate is the shared validator instance; rule tags below are stock
// go-playground tags, no custom registrations needed.
var validate = validator.New()

// ruleTags maps field-spec validation rule names onto validator tags.
var ruleTags = map[string]string{
	domain.RuleEmail:     "email",
	domain.RuleInteger:   "number",
	domain.RuleFloat:     "numeric",
	domain.RuleBoolean:   "boolean",
	domain.RuleDate:      "datetime=2006-01-02",
	domain.RuleTimestamp: "datetime=2006-01-02 15:04:05",
	domain.RuleIBAN:      "iban",
	domain.RuleBIC:       "bic",
}

// maxFileBytes caps File field payloads (decoded size, estimated from the
// base64 length).
const maxFileBytes = 8 << 20

// ValidateSpecs walks the field specs against the run's submission and
// adds one field-addressed error per violation: required-but-missing,
// format mismatch, over-length, unknown option. Field names are looked up
// under the given prefix (additional-participant blocks). File fields are
// optional on update regardless of the spec.
func ValidateSpecs(specs []domain.FieldSpec, run *pipeline.Run, prefix string) {
	for _, spec := range specs {
		if spec.Type == domain.FieldFieldset || spec.Type == domain.FieldValue {
			continue
		}
		name := prefix + spec.Name
		value, submitted := run.Submission.Field(name)

		if value == "" {
			required := spec.Required
			if spec.Type == domain.FieldFile && run.Action == domain.ActionUpdate {
				required = false
			}
			if required {
				run.AddError(name, fmt.Sprintf("Required field '%s' is missing", spec.Label))
			}
			continue
		}
		if !submitted {
			continue
		}

		if spec.MaxLength > 0 && len(value) > spec.MaxLength {
			run.AddError(name, fmt.Sprintf("Value of field '%s' exceeds maximum length of %d", spec.Label, spec.MaxLength))
			continue
		}

		switch spec.Type {
		case domain.FieldFile:
			// Submitted as base64; estimate the decoded size.
			if len(value)/4*3 > maxFileBytes {
				run.AddError(name, fmt.Sprintf("File submitted for '%s' is too large", spec.Label))
			}
			continue
		case domain.FieldSelect:
			if len(spec.Options) > 0 {
				if _, ok := spec.Options[value]; !ok {
					run.AddError(name, fmt.Sprintf("Invalid option for field '%s'", spec.Label))
				}
			}
			continue
		case domain.FieldCheckbox:
			if err := validate.Var(value, "boolean"); err != nil {
				run.AddError(name, fmt.Sprintf("Field '%s' must be a boolean value", spec.Label))
			}
			continue
		}

		if spec.Validation == "" {
			continue
		}
		tag, ok := ruleTags[spec.Validation]
		if !ok {
			// Unknown rule names are a configuration problem, not a user one.
			run.AddWarning(name, fmt.Sprintf("Unknown validation rule '%s' ignored", spec.Validation))
			continue
		}
		if err := validate.Var(value, tag); err != nil {
			run.AddError(name, fmt.Sprintf("Value of field '%s' is not a valid %s", spec.Label, spec.Validation))
		}
	}
}
