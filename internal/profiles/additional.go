package profiles

import (
	"fmt"

	"remoteevents/internal/domain"
	"remoteevents/internal/pipeline"
)

// AdditionalPrefix formats the field prefix of the n-th additional
// participant block (1-based).
func AdditionalPrefix(n int) string {
	return fmt.Sprintf("additional_%d_", n)
}

// AdditionalSpecs reuses the profile's field specs under the block prefix.
// The fieldset parents are prefixed as well so the blocks group correctly
// in the rendered form.
func AdditionalSpecs(p Profile, n int, locale string) []domain.FieldSpec {
	prefix := AdditionalPrefix(n)
	base := p.Fields(locale)
	specs := make([]domain.FieldSpec, 0, len(base)+1)
	specs = append(specs, domain.FieldSpec{
		Name:   prefix + "block",
		Type:   domain.FieldFieldset,
		Entity: domain.EntityNone,
		Label:  fmt.Sprintf("%s %d", localize(locale, "Additional Participant"), n),
		Weight: 2000 + n*100,
	})
	for _, spec := range base {
		spec.Name = prefix + spec.Name
		if spec.Parent != "" {
			spec.Parent = prefix + spec.Parent
		} else if spec.Type != domain.FieldFieldset {
			spec.Parent = prefix + "block"
		}
		spec.Weight += 2000 + n*100
		specs = append(specs, spec)
	}
	return specs
}

// AdditionalBlocksPresent returns the 1-based indexes of the additional
// participant blocks actually carried by the submission, up to max.
func AdditionalBlocksPresent(run *pipeline.Run, max int) []int {
	var present []int
	for n := 1; n <= max; n++ {
		prefix := AdditionalPrefix(n)
		for name, value := range run.Submission.Fields {
			if value != "" && len(name) > len(prefix) && name[:len(prefix)] == prefix {
				present = append(present, n)
				break
			}
		}
	}
	return present
}

// ValidateAdditionalBlocks runs the spec walker over each submitted
// additional-participant block. Blocks the submission does not carry are
// skipped entirely; required fields only bind within a present block.
func ValidateAdditionalBlocks(p Profile, run *pipeline.Run, max int) {
	for _, n := range AdditionalBlocksPresent(run, max) {
		ValidateSpecs(p.Fields(run.Submission.Locale), run, AdditionalPrefix(n))
	}
}
