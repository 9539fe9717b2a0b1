package services

import (
	"context"
	"fmt"

	"remoteevents/internal/domain"
	"remoteevents/internal/pipeline"
)

func (s *registrationService) registerCancelHandlers() {
	r := s.cancelRunner
	r.Register(pipeline.NewHandler(pipeline.StageBeforeIdentification, prioDefault, s.handlePrepareCancel))
	r.Register(pipeline.NewHandler(pipeline.StageIdentification, prioDefault, s.handleIdentifyForCancel))
	r.Register(pipeline.NewHandler(pipeline.StageAfterIdentification, prioDefault, s.handleLoadContact))
	r.Register(pipeline.NewHandler(pipeline.StageBeforeCancel, prioDefault, s.handleCollectCancelSet))
	r.Register(pipeline.NewHandler(pipeline.StageCancel, prioVerify, s.handleGateCancelSet))
	r.Register(pipeline.NewHandler(pipeline.StageCancel, prioDefault, s.handleApplyCancel))
	r.Register(pipeline.NewHandler(pipeline.StageCommunication, prioDefault, s.handleSendCancellation))
}

func (s *registrationService) handlePrepareCancel(ctx context.Context, run *regRun) error {
	if run.Submission.Token != "" {
		return s.resolveEventFromToken(ctx, run, domain.TokenUsageCancel)
	}
	return s.resolveEventByID(ctx, run)
}

// handleIdentifyForCancel resolves the registration to cancel when no
// token already did.
func (s *registrationService) handleIdentifyForCancel(ctx context.Context, run *regRun) error {
	if run.Participant != nil {
		return nil
	}
	contactID := run.Submission.RemoteContactID
	if contactID == "" {
		contactID = run.Submission.ContactID
	}
	if contactID == "" {
		run.AddError("", "Cancelling a registration requires a token or contact identification")
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

// handleCollectCancelSet gathers the registrant plus every additional
// participant they registered.
func (s *registrationService) handleCollectCancelSet(ctx context.Context, run *regRun) error {
	run.CancelSet = []*domain.Participant{run.Participant}
	extra, err := s.participants.ListRegisteredBy(ctx, run.Participant.ID)
	if err != nil {
		return fmt.Errorf("list additional participants: %w", err)
	}
	for _, p := range extra {
		if p.EventID == run.Event.ID {
			run.CancelSet = append(run.CancelSet, p)
		}
	}
	return nil
}

// handleGateCancelSet applies the per-participant gate. The identified
// registrant failing the gate is a hard error; an additional participant
// failing it is skipped with a warning.
func (s *registrationService) handleGateCancelSet(ctx context.Context, run *regRun) error {
	eligible := run.CancelSet[:0]
	for _, p := range run.CancelSet {
		decision := s.elig.ParticipantCanBeCancelled(run.Event, p)
		if decision.Allowed() {
			eligible = append(eligible, p)
			continue
		}
		if p.ID == run.Participant.ID {
			run.AddError("", decision.Reason())
		} else {
			run.AddWarning("", fmt.Sprintf("A linked registration could not be cancelled: %s", decision.Reason()))
		}
	}
	run.CancelSet = eligible
	return nil
}

// handleApplyCancel performs the batch status transition and the audit
// trail, then invalidates the event caches so waitlist queries within this
// request see the freed seats.
func (s *registrationService) handleApplyCancel(ctx context.Context, run *regRun) error {
	if len(run.CancelSet) == 0 {
		return nil
	}
	ids := make([]string, 0, len(run.CancelSet))
	changes := make([]*domain.ParticipantChange, 0, len(run.CancelSet))
	for _, p := range run.CancelSet {
		ids = append(ids, p.ID)
		changes = append(changes, &domain.ParticipantChange{
			ParticipantID: p.ID,
			Field:         "status",
			OldValue:      p.Status,
			NewValue:      domain.StatusCancelled,
			Source:        "remote-cancel",
			ChangedAt:     run.Now,
		})
	}
	if err := s.participants.UpdateStatus(ctx, ids, domain.StatusCancelled); err != nil {
		return fmt.Errorf("cancel participants: %w", err)
	}
	if err := s.changes.Record(ctx, changes); err != nil {
		s.logger.WarnContext(ctx, "audit trail write failed", "participant_id", run.Participant.ID, "err", err)
	}
	for _, p := range run.CancelSet {
		p.Status = domain.StatusCancelled
	}
	run.ParticipantUpdated = true
	run.view.InvalidateEvent(run.Event.ID)
	if len(ids) == 1 {
		run.AddStatus("Your registration has been cancelled")
	} else {
		run.AddStatus(fmt.Sprintf("Your registration and %d linked registrations have been cancelled", len(ids)-1))
	}
	return nil
}

func (s *registrationService) handleSendCancellation(ctx context.Context, run *regRun) error {
	if !run.ParticipantUpdated || run.Contact == nil {
		return nil
	}
	email := run.Contact.Fields[domain.ContactFieldEmail]
	if email == "" {
		return nil
	}
	data := &domain.CancellationEmailData{
		Email:      email,
		FirstName:  run.Contact.Fields[domain.ContactFieldFirstName],
		EventTitle: run.Event.Title,
	}
	if err := s.emails.SendCancellationConfirmation(ctx, data); err != nil {
		s.logger.WarnContext(ctx, "cancellation email failed", "participant_id", run.Participant.ID, "err", err)
		run.AddWarning("", "The cancellation confirmation email could not be sent")
	}
	return nil
}
