package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"remoteevents/internal/domain"
	"remoteevents/internal/pipeline"
	"remoteevents/internal/profiles"
)

// Handler priorities within a stage. Third-party handlers interpose by
// registering between these.
const (
	prioValidate = 120
	prioVerify   = 110
	prioDefault  = 100
	prioConfirm  = 90
	prioStatus   = 80
	prioOrder    = 60
)

func (s *registrationService) registerCreateHandlers() {
	r := s.createRunner
	r.Register(pipeline.NewHandler(pipeline.StageBeforeIdentification, prioDefault, s.handlePrepareCreate))
	r.Register(pipeline.NewHandler(pipeline.StageIdentification, prioDefault, s.handleIdentifyContact))
	r.Register(pipeline.NewHandler(pipeline.StageIdentification, prioConfirm, s.handleMatchContact))
	r.Register(pipeline.NewHandler(pipeline.StageAfterIdentification, prioDefault, s.handleLoadContact))
	r.Register(pipeline.NewHandler(pipeline.StageBeforeCreate, prioValidate, s.handleValidateCreate))
	r.Register(pipeline.NewHandler(pipeline.StageBeforeCreate, prioVerify, s.handleVerifyCanRegister))
	r.Register(pipeline.NewHandler(pipeline.StageBeforeCreate, prioConfirm, s.handleConfirmation))
	r.Register(pipeline.NewHandler(pipeline.StageBeforeCreate, prioStatus, s.handleDetermineStatus))
	r.Register(pipeline.NewHandler(pipeline.StageCreate, prioDefault, s.handleCreateParticipant))
	r.Register(pipeline.NewHandler(pipeline.StageCreate, prioConfirm, s.handleAdditionalParticipants))
	r.Register(pipeline.NewHandler(pipeline.StageCreate, prioOrder, s.handleCreateOrder))
	r.Register(pipeline.NewHandler(pipeline.StageCommunication, prioDefault, s.handleSendConfirmation))
}

// handlePrepareCreate resolves event, profile and price configuration.
func (s *registrationService) handlePrepareCreate(ctx context.Context, run *regRun) error {
	return s.prepareCreate(ctx, run)
}

func (s *registrationService) prepareCreate(ctx context.Context, run *regRun) error {
	if run.Submission.Token != "" {
		if err := s.resolveEventFromToken(ctx, run, domain.TokenUsageInvite); err != nil {
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
	if run.HasErrors() {
		return nil
	}
	return s.loadPriceConfiguration(ctx, run)
}

// handleIdentifyContact resolves the contact in precedence order: invite
// token (already resolved into run.Participant), remote contact id,
// explicit contact id.
func (s *registrationService) handleIdentifyContact(ctx context.Context, run *regRun) error {
	if run.ContactID != "" {
		return nil
	}
	if run.Submission.RemoteContactID != "" {
		contact, err := s.contacts.GetByID(ctx, run.Submission.RemoteContactID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				run.AddError("remote_contact_id", "The remote contact reference could not be resolved")
				return nil
			}
			return fmt.Errorf("get contact: %w", err)
		}
		run.ContactID = contact.ID
		run.Contact = contact
		return nil
	}
	if run.Submission.ContactID != "" {
		run.ContactID = run.Submission.ContactID
	}
	return nil
}

// handleMatchContact calls XCM when no contact was identified. A matcher
// failure with an already-known id indicates misconfiguration and is
// logged as a warning before escalating; without an id it is a hard error
// either way.
func (s *registrationService) handleMatchContact(ctx context.Context, run *regRun) error {
	if run.ContactUpdated {
		return nil
	}
	fields := contactFieldsFor(run.profile, run, "")
	if run.ContactID == "" && len(fields) == 0 {
		run.AddError("", "No contact could be identified from the submission")
		return nil
	}
	contactID, err := s.matcher.MatchOrCreate(ctx, profiles.XCMProfileName(run.profile), fields)
	if err != nil {
		if run.ContactID != "" {
			s.logger.WarnContext(ctx, "contact matcher failed for identified contact, check matcher profile configuration",
				"contact_id", run.ContactID, "err", err)
			run.AddWarning("", "Contact matching is misconfigured for this event")
		}
		run.AddError("", "Contact could not be identified or created")
		return nil
	}
	if run.ContactID != "" && run.ContactID != contactID {
		s.logger.WarnContext(ctx, "contact matcher resolved a different contact",
			"submitted", run.ContactID, "matched", contactID)
	}
	run.ContactID = contactID
	// Prevents duplicate matching calls by later handlers.
	run.ContactUpdated = true
	run.ContactFields = fields
	return nil
}

// handleLoadContact loads the identified contact record for prefill and
// communication. A matcher-resolved id without a local row is fine (the
// matcher may store contacts elsewhere); the run keeps working off the
// submitted contact fields then. For ids the client asserted directly, a
// missing row stays a hard error.
func (s *registrationService) handleLoadContact(ctx context.Context, run *regRun) error {
	if run.Contact != nil || run.ContactID == "" {
		return nil
	}
	contact, err := s.contacts.GetByID(ctx, run.ContactID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			if run.ContactUpdated {
				return nil
			}
			run.AddError("", "The identified contact no longer exists")
			return nil
		}
		return fmt.Errorf("get contact: %w", err)
	}
	run.Contact = contact
	return nil
}

// handleValidateCreate walks the profile specs, the additional blocks and
// the price/payment fields.
func (s *registrationService) handleValidateCreate(ctx context.Context, run *regRun) error {
	return s.validateCreateSubmission(ctx, run)
}

func (s *registrationService) validateCreateSubmission(ctx context.Context, run *regRun) error {
	profiles.Validate(run.profile, run.Run)
	if run.Event.AllowMultiple {
		profiles.ValidateAdditionalBlocks(run.profile, run.Run, run.Event.MaxAdditionalParticipants)
	}
	if run.Event.IsMonetary {
		selections := profiles.CollectPriceSelections(run.Run, run.priceFields, run.optionUsage, "")
		if run.Event.AllowMultiple {
			for _, n := range profiles.AdditionalBlocksPresent(run.Run, run.Event.MaxAdditionalParticipants) {
				selections = append(selections,
					profiles.CollectPriceSelections(run.Run, run.priceFields, run.optionUsage, profiles.AdditionalPrefix(n))...)
			}
		}
		if len(selections) > 0 {
			profiles.ValidatePayment(run.Run)
		}
	}
	return nil
}

// handleVerifyCanRegister re-runs the obstruction chain now that the
// contact is known. Skipped when a participant was identified via token
// (invitation flow).
func (s *registrationService) handleVerifyCanRegister(ctx context.Context, run *regRun) error {
	if run.Participant != nil {
		return nil
	}
	decision, err := run.view.CanRegister(ctx, run.Event, run.ContactID)
	if err != nil {
		return err
	}
	if !decision.Allowed() {
		run.AddError("", decision.Reason())
	}
	return nil
}

// handleConfirmation implements the invitation confirm flow: an explicit
// confirm field on a token-identified participant transitions it directly,
// bypassing status determination.
func (s *registrationService) handleConfirmation(ctx context.Context, run *regRun) error {
	// Validation runs earlier in this stage; never commit the transition
	// for a submission that already failed it.
	if run.Participant == nil || run.HasErrors() {
		return nil
	}
	raw, ok := run.Submission.Field("confirm")
	if !ok || raw == "" {
		return nil
	}
	confirmed, err := strconv.ParseBool(raw)
	if err != nil {
		run.AddError("confirm", "Field 'confirm' must be a boolean value")
		return nil
	}

	var status string
	if !confirmed {
		status = domain.StatusRejected
	} else {
		waitlisted, err := run.view.HasActiveWaitlist(ctx, run.Event)
		if err != nil {
			return err
		}
		if waitlisted {
			status = domain.StatusOnWaitlist
			run.AddStatus("You have been added to the waitlist")
		} else {
			status = domain.StatusRegistered
		}
	}

	unlock := s.locks.Lock(run.Event.ID)
	err = s.participants.UpdateStatus(ctx, []string{run.Participant.ID}, status)
	unlock()
	if err != nil {
		return fmt.Errorf("update participant status: %w", err)
	}
	run.Participant.Status = status
	run.CreatedParticipant = run.Participant
	run.ParticipantUpdated = true
	run.StatusDetermined = true
	run.view.InvalidateEvent(run.Event.ID)
	return nil
}

// handleDetermineStatus picks the default status for new participants:
// waitlist first, then approval, then registered.
func (s *registrationService) handleDetermineStatus(ctx context.Context, run *regRun) error {
	if run.Participant != nil || run.StatusDetermined || run.HasErrors() {
		return nil
	}
	waitlisted, err := run.view.HasActiveWaitlist(ctx, run.Event)
	if err != nil {
		return err
	}
	switch {
	case waitlisted:
		run.NewStatus = domain.StatusOnWaitlist
		run.AddStatus("The event is currently booked out, you have been added to the waitlist")
	case run.Event.RequiresApproval:
		run.NewStatus = domain.StatusAwaitingApproval
		run.AddStatus("Your registration requires approval by the organizer")
	default:
		run.NewStatus = domain.StatusRegistered
	}
	run.StatusDetermined = true
	return nil
}

// handleCreateParticipant performs the participant write. The per-event
// lock serializes the capacity re-check and the create against concurrent
// submissions in this process.
func (s *registrationService) handleCreateParticipant(ctx context.Context, run *regRun) error {
	if run.ParticipantUpdated {
		return nil
	}

	_, participantFields := profiles.CollectEntityFields(run.profile, run.Run)
	for k, v := range run.ParticipantFields {
		participantFields[k] = v
	}
	run.ParticipantFields = participantFields

	unlock := s.locks.Lock(run.Event.ID)
	defer unlock()

	// Re-check capacity under the lock; the earlier check may have raced.
	if run.Event.MaxParticipants > 0 && run.NewStatus == domain.StatusRegistered {
		run.view.InvalidateEvent(run.Event.ID)
		count, err := run.view.RegistrationCount(ctx, run.Event.ID, CountFilter{OnlyCounted: true})
		if err != nil {
			return err
		}
		if count >= run.Event.MaxParticipants {
			if run.Event.HasWaitlist {
				run.NewStatus = domain.StatusOnWaitlist
				run.AddStatus("The event is currently booked out, you have been added to the waitlist")
			} else {
				text := run.Event.BookedOutText
				if text == "" {
					text = "Event is booked out"
				}
				run.AddError("", text)
				return nil
			}
		}
	}

	p := domain.NewParticipant(run.Event.ID, run.ContactID, run.NewStatus, rolesFromSubmission(run), run.Now)
	p.Fields = run.ParticipantFields
	if err := s.participants.Create(ctx, p); err != nil {
		return fmt.Errorf("create participant: %w", err)
	}
	run.CreatedParticipant = p
	run.ParticipantUpdated = true
	run.view.InvalidateEvent(run.Event.ID)
	return nil
}

func rolesFromSubmission(run *regRun) []string {
	if role, ok := run.Submission.Field("role"); ok && role != "" {
		return []string{role}
	}
	return nil
}

// handleAdditionalParticipants registers the additional blocks: each gets
// its own contact match and eligibility check, all failures are collected
// before aborting, and creation only happens when every block passed.
func (s *registrationService) handleAdditionalParticipants(ctx context.Context, run *regRun) error {
	if !run.Event.AllowMultiple || run.CreatedParticipant == nil {
		return nil
	}
	blocks := profiles.AdditionalBlocksPresent(run.Run, run.Event.MaxAdditionalParticipants)
	if len(blocks) == 0 {
		return nil
	}

	type pending struct {
		block     int
		contactID string
	}
	var toCreate []pending
	for _, n := range blocks {
		prefix := profiles.AdditionalPrefix(n)
		fields := contactFieldsFor(run.profile, run, prefix)
		if len(fields) == 0 {
			run.AddError(prefix+"email", fmt.Sprintf("Additional participant %d has no contact data", n))
			continue
		}
		contactID, err := s.matcher.MatchOrCreate(ctx, profiles.XCMProfileName(run.profile), fields)
		if err != nil {
			run.AddError(prefix+"email", fmt.Sprintf("Contact of additional participant %d could not be identified", n))
			continue
		}
		decision, err := run.view.CanRegister(ctx, run.Event, contactID)
		if err != nil {
			return err
		}
		if !decision.Allowed() {
			run.AddError(prefix+"email", fmt.Sprintf("Additional participant %d: %s", n, decision.Reason()))
			continue
		}
		toCreate = append(toCreate, pending{block: n, contactID: contactID})
	}
	// Exhaustive collection: abort only after every block was checked.
	if run.HasErrors() {
		return nil
	}

	for _, pc := range toCreate {
		p := domain.NewParticipant(run.Event.ID, pc.contactID, run.NewStatus, nil, run.Now)
		p.RegisteredByID = run.CreatedParticipant.ID
		if err := s.participants.Create(ctx, p); err != nil {
			return fmt.Errorf("create additional participant: %w", err)
		}
		run.AdditionalParticipants = append(run.AdditionalParticipants, p)
		run.additionalBlocks = append(run.additionalBlocks, pc.block)
	}
	if len(toCreate) > 0 {
		run.view.InvalidateEvent(run.Event.ID)
	}
	return nil
}

// handleCreateOrder builds the monetary order: one line item per submitted
// price selection, tagged to the participant it registers, then the
// payment-side record. Failures here are reported but the already-created
// participants are kept; the response still carries the participant id so
// operators can reconcile.
func (s *registrationService) handleCreateOrder(ctx context.Context, run *regRun) error {
	if !run.Event.IsMonetary || run.CreatedParticipant == nil {
		return nil
	}

	type block struct {
		prefix        string
		participantID string
	}
	blocks := []block{{prefix: "", participantID: run.CreatedParticipant.ID}}
	for i, p := range run.AdditionalParticipants {
		blocks = append(blocks, block{prefix: profiles.AdditionalPrefix(run.additionalBlocks[i]), participantID: p.ID})
	}

	order := &domain.Order{
		ID:        uuid.NewString(),
		EventID:   run.Event.ID,
		ContactID: run.ContactID,
		Currency:  run.Event.Currency,
		Status:    domain.OrderStatusPending,
		CreatedAt: run.Now,
	}
	for _, b := range blocks {
		for _, sel := range profiles.CollectPriceSelections(run.Run, run.priceFields, run.optionUsage, b.prefix) {
			label := sel.Field.Label
			optionID := ""
			unit := sel.Field.UnitPrice
			if sel.Option != nil {
				label = sel.Option.Label
				optionID = sel.Option.ID
				unit = sel.Option.Price
			}
			item := &domain.LineItem{
				OrderID:       order.ID,
				ParticipantID: b.participantID,
				PriceFieldID:  sel.Field.ID,
				OptionID:      optionID,
				Label:         label,
				Quantity:      sel.Quantity,
				Count:         sel.SeatCount(),
				UnitPrice:     unit,
				Total:         sel.Total(),
			}
			order.Total += item.Total
			order.Items = append(order.Items, item)
		}
	}
	if len(order.Items) == 0 {
		return nil
	}

	method, _ := run.Submission.Field(profiles.FieldPaymentMethod)
	order.PaymentMethod = method
	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "order creation failed after participant creation, manual reconciliation needed",
			"participant_id", run.CreatedParticipant.ID, "err", err)
		run.AddError("", "Your registration was recorded but the payment could not be processed")
		return nil
	}
	run.Order = order
	run.view.InvalidateEvent(run.Event.ID)

	switch method {
	case domain.PaymentMethodPayLater:
		run.AddStatus(fmt.Sprintf("An invoice over %s %.2f will be sent to you", order.Currency, float64(order.Total)/100))
	case domain.PaymentMethodDirectDebit:
		iban, _ := run.Submission.Field(profiles.FieldPaymentIBAN)
		bic, _ := run.Submission.Field(profiles.FieldPaymentBIC)
		holder, _ := run.Submission.Field(profiles.FieldPaymentAccountHolder)
		mandate := &domain.Mandate{
			OrderID:   order.ID,
			IBAN:      iban,
			BIC:       bic,
			Holder:    holder,
			CreatedAt: run.Now,
		}
		if err := s.orders.CreateMandate(ctx, mandate); err != nil {
			s.logger.ErrorContext(ctx, "mandate creation failed after order creation, manual reconciliation needed",
				"order_id", order.ID, "err", err)
			run.AddError("", "Your registration was recorded but the direct debit mandate could not be created")
			return nil
		}
		run.AddStatus(fmt.Sprintf("%s %.2f will be collected by direct debit", order.Currency, float64(order.Total)/100))
	}
	return nil
}

// handleSendConfirmation emails the registrant. Mail problems never block
// a committed registration.
func (s *registrationService) handleSendConfirmation(ctx context.Context, run *regRun) error {
	if run.CreatedParticipant == nil {
		return nil
	}
	// Without a local contact row the submitted fields are authoritative.
	email := run.ContactFields[domain.ContactFieldEmail]
	firstName := run.ContactFields[domain.ContactFieldFirstName]
	if run.Contact != nil {
		if v := run.Contact.Fields[domain.ContactFieldEmail]; v != "" {
			email = v
		}
		if v := run.Contact.Fields[domain.ContactFieldFirstName]; v != "" {
			firstName = v
		}
	}
	if email == "" {
		return nil
	}
	updateToken, err := s.tokens.Encode(domain.TokenEntityParticipant, run.CreatedParticipant.ID, domain.TokenUsageUpdate, s.tokenTTL)
	if err != nil {
		return fmt.Errorf("encode update token: %w", err)
	}
	cancelToken, err := s.tokens.Encode(domain.TokenEntityParticipant, run.CreatedParticipant.ID, domain.TokenUsageCancel, s.tokenTTL)
	if err != nil {
		return fmt.Errorf("encode cancel token: %w", err)
	}
	data := &domain.RegistrationEmailData{
		Email:       email,
		FirstName:   firstName,
		EventTitle:  run.Event.Title,
		Status:      run.CreatedParticipant.Status,
		OnWaitlist:  run.CreatedParticipant.Status == domain.StatusOnWaitlist,
		UpdateToken: updateToken,
		CancelToken: cancelToken,
	}
	if err := s.emails.SendRegistrationConfirmation(ctx, data); err != nil {
		s.logger.WarnContext(ctx, "confirmation email failed", "participant_id", run.CreatedParticipant.ID, "err", err)
		run.AddWarning("", "The confirmation email could not be sent")
	}
	return nil
}
