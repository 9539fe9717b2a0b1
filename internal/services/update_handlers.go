package services

import (
	"context"
	"errors"
	"fmt"

	"remoteevents/internal/domain"
	"remoteevents/internal/pipeline"
	"remoteevents/internal/profiles"
)

// Apply handlers run last in their stage so every planning handler has
// populated the diff maps before the single combined write per entity.
const prioApply = 10

func (s *registrationService) registerUpdateHandlers() {
	r := s.updateRunner
	r.Register(pipeline.NewHandler(pipeline.StageBeforeIdentification, prioDefault, s.handlePrepareUpdate))
	r.Register(pipeline.NewHandler(pipeline.StageIdentification, prioDefault, s.handleIdentifyForUpdate))
	r.Register(pipeline.NewHandler(pipeline.StageAfterIdentification, prioDefault, s.handleLoadUpdateRecords))
	r.Register(pipeline.NewHandler(pipeline.StageBeforeUpdate, prioVerify, s.handleVerifyCanEdit))
	r.Register(pipeline.NewHandler(pipeline.StageBeforeUpdate, prioDefault, s.handleValidateUpdate))
	r.Register(pipeline.NewHandler(pipeline.StageUpdateContact, prioDefault, s.handlePlanContactUpdates))
	r.Register(pipeline.NewHandler(pipeline.StageUpdateContact, prioApply, s.handleApplyContactUpdates))
	r.Register(pipeline.NewHandler(pipeline.StageUpdateParticipant, prioDefault, s.handlePlanParticipantUpdates))
	r.Register(pipeline.NewHandler(pipeline.StageUpdateParticipant, prioApply, s.handleApplyParticipantUpdates))
	r.Register(pipeline.NewHandler(pipeline.StageCommunication, prioDefault, s.handleUpdateDone))
}

func (s *registrationService) handlePrepareUpdate(ctx context.Context, run *regRun) error {
	if run.Submission.Token != "" {
		if err := s.resolveEventFromToken(ctx, run, domain.TokenUsageUpdate); err != nil {
			return err
		}
	} else {
		if err := s.resolveEventByID(ctx, run); err != nil {
			return err
		}
	}
	if run.HasErrors() {
		return nil
	}
	s.resolveProfile(run)
	return nil
}

// handleIdentifyForUpdate resolves the registration to update: a token
// already did, otherwise the active registration of the remote contact.
func (s *registrationService) handleIdentifyForUpdate(ctx context.Context, run *regRun) error {
	if run.Participant != nil {
		return nil
	}
	contactID := run.Submission.RemoteContactID
	if contactID == "" {
		contactID = run.Submission.ContactID
	}
	if contactID == "" {
		run.AddError("", "Changing a registration requires a token or contact identification")
		return nil
	}
	active, err := run.view.ActiveRegistration(ctx, run.Event.ID, contactID)
	if err != nil {
		return err
	}
	if active == nil {
		run.AddError("", "No active registration found for this event")
		return nil
	}
	run.Participant = active
	run.ContactID = active.ContactID
	return nil
}

// handleLoadUpdateRecords reloads the current contact and participant;
// both must exist for an update.
func (s *registrationService) handleLoadUpdateRecords(ctx context.Context, run *regRun) error {
	participant, err := s.participants.GetByID(ctx, run.Participant.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			run.AddError("", "The registration to update no longer exists")
			return nil
		}
		return fmt.Errorf("get participant: %w", err)
	}
	run.Participant = participant

	contact, err := s.contacts.GetByID(ctx, run.ContactID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			run.AddError("", "The contact of this registration no longer exists")
			return nil
		}
		return fmt.Errorf("get contact: %w", err)
	}
	run.Contact = contact
	return nil
}

func (s *registrationService) handleVerifyCanEdit(ctx context.Context, run *regRun) error {
	decision, err := run.view.CanEditRegistration(ctx, run.Event, run.ContactID)
	if err != nil {
		return err
	}
	if !decision.Allowed() {
		run.AddError("", decision.Reason())
	}
	return nil
}

func (s *registrationService) handleValidateUpdate(ctx context.Context, run *regRun) error {
	profiles.Validate(run.profile, run.Run)
	return nil
}

// handlePlanContactUpdates diffs submitted contact fields against the
// loaded contact into the planned-updates map.
func (s *registrationService) handlePlanContactUpdates(ctx context.Context, run *regRun) error {
	for name, value := range contactFieldsFor(run.profile, run, "") {
		if run.Contact.Fields[name] != value {
			run.PlannedContactUpdates[name] = value
		}
	}
	return nil
}

// handleApplyContactUpdates performs the one combined contact write.
func (s *registrationService) handleApplyContactUpdates(ctx context.Context, run *regRun) error {
	if run.ContactUpdated || len(run.PlannedContactUpdates) == 0 {
		return nil
	}
	if err := s.contacts.UpdateFields(ctx, run.ContactID, run.PlannedContactUpdates); err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	run.ContactUpdated = true
	return nil
}

// handlePlanParticipantUpdates diffs submitted participant fields against
// the loaded participant.
func (s *registrationService) handlePlanParticipantUpdates(ctx context.Context, run *regRun) error {
	_, submitted := profiles.CollectEntityFields(run.profile, run.Run)
	for name, value := range submitted {
		if run.Participant.Fields[name] != value {
			run.PlannedParticipantUpdates[name] = value
		}
	}
	return nil
}

// handleApplyParticipantUpdates performs the one combined participant
// write and records the audit trail.
func (s *registrationService) handleApplyParticipantUpdates(ctx context.Context, run *regRun) error {
	if run.ParticipantUpdated || len(run.PlannedParticipantUpdates) == 0 {
		return nil
	}
	var changes []*domain.ParticipantChange
	if run.Participant.Fields == nil {
		run.Participant.Fields = make(map[string]string)
	}
	for name, value := range run.PlannedParticipantUpdates {
		changes = append(changes, &domain.ParticipantChange{
			ParticipantID: run.Participant.ID,
			Field:         name,
			OldValue:      run.Participant.Fields[name],
			NewValue:      value,
			Source:        "remote-update",
			ChangedAt:     run.Now,
		})
		run.Participant.Fields[name] = value
	}
	if err := s.participants.Update(ctx, run.Participant); err != nil {
		return fmt.Errorf("update participant: %w", err)
	}
	if err := s.changes.Record(ctx, changes); err != nil {
		// The update itself succeeded; a lost audit row is operator-visible
		// but must not fail the request.
		s.logger.WarnContext(ctx, "audit trail write failed", "participant_id", run.Participant.ID, "err", err)
	}
	run.ParticipantUpdated = true
	run.view.InvalidateEvent(run.Event.ID)
	return nil
}

func (s *registrationService) handleUpdateDone(ctx context.Context, run *regRun) error {
	if run.ContactUpdated || run.ParticipantUpdated {
		run.AddStatus("Your registration has been updated")
	} else {
		run.AddStatus("Your registration is unchanged")
	}
	return nil
}
