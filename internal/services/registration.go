package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"remoteevents/internal/domain"
	"remoteevents/internal/pipeline"
	"remoteevents/internal/profiles"
)

// regRun extends the shared pipeline run with the request-scoped
// collaborators the handlers need: the eligibility view and the resolved
// profile and price configuration.
type regRun struct {
	*pipeline.Run
	view        *EligibilityView
	profile     profiles.Profile
	priceFields []*domain.PriceField
	optionUsage map[string]int
	// Submission block numbers of the created additional participants,
	// parallel to Run.AdditionalParticipants. Blocks need not be
	// contiguous, so the price handler cannot derive them from the index.
	additionalBlocks []int
}

type registrationService struct {
	logger       *slog.Logger
	events       domain.EventRepository
	contacts     domain.ContactRepository
	participants domain.ParticipantRepository
	orders       domain.OrderRepository
	prices       domain.PriceFieldRepository
	changes      domain.ParticipantChangeRepository
	matcher      domain.ContactMatcher
	tokens       domain.TokenCodec
	emails       domain.EmailService
	elig         *Eligibility
	statuses     *domain.StatusIndex
	locks        *eventLocks
	tokenTTL     time.Duration
	now          func() time.Time

	createRunner *pipeline.Runner[*regRun]
	updateRunner *pipeline.Runner[*regRun]
	cancelRunner *pipeline.Runner[*regRun]
}

// RegistrationServiceDeps bundles the collaborators of the registration
// service.
type RegistrationServiceDeps struct {
	Logger       *slog.Logger
	Events       domain.EventRepository
	Contacts     domain.ContactRepository
	Participants domain.ParticipantRepository
	Orders       domain.OrderRepository
	Prices       domain.PriceFieldRepository
	Changes      domain.ParticipantChangeRepository
	Matcher      domain.ContactMatcher
	Tokens       domain.TokenCodec
	Emails       domain.EmailService
	Eligibility  *Eligibility
	Statuses     *domain.StatusIndex
	TokenTTL     time.Duration
}

// NewRegistrationService wires the create/update/cancel pipelines and
// returns the remote registration API surface.
func NewRegistrationService(deps RegistrationServiceDeps) domain.RegistrationService {
	if deps.TokenTTL == 0 {
		deps.TokenTTL = 90 * 24 * time.Hour
	}
	s := &registrationService{
		logger:       deps.Logger,
		events:       deps.Events,
		contacts:     deps.Contacts,
		participants: deps.Participants,
		orders:       deps.Orders,
		prices:       deps.Prices,
		changes:      deps.Changes,
		matcher:      deps.Matcher,
		tokens:       deps.Tokens,
		emails:       deps.Emails,
		elig:         deps.Eligibility,
		statuses:     deps.Statuses,
		locks:        newEventLocks(),
		tokenTTL:     deps.TokenTTL,
		now:          time.Now,
		createRunner: pipeline.NewRunner[*regRun](),
		updateRunner: pipeline.NewRunner[*regRun](),
		cancelRunner: pipeline.NewRunner[*regRun](),
	}
	s.registerCreateHandlers()
	s.registerUpdateHandlers()
	s.registerCancelHandlers()
	return s
}

func (s *registrationService) newRun(action string, sub domain.Submission) *regRun {
	return &regRun{
		Run:  pipeline.NewRun(action, sub, s.now()),
		view: s.elig.View(),
	}
}

// Submit runs the full create pipeline and commits a registration.
func (s *registrationService) Submit(ctx context.Context, sub domain.Submission) (*domain.RegistrationResult, error) {
	run := s.newRun(domain.ActionCreate, sub)
	if err := s.createRunner.Execute(ctx, run, pipeline.CreateStages); err != nil {
		return nil, err
	}
	return run.Result(), nil
}

// Validate checks a create submission without side effects: event and
// profile resolution plus the full field walk, but no contact matching and
// no writes.
func (s *registrationService) Validate(ctx context.Context, sub domain.Submission) (*domain.RegistrationResult, error) {
	run := s.newRun(domain.ActionCreate, sub)
	if err := s.prepareCreate(ctx, run); err != nil {
		return nil, err
	}
	if !run.HasErrors() {
		if err := s.validateCreateSubmission(ctx, run); err != nil {
			return nil, err
		}
	}
	return run.Result(), nil
}

// Update runs the update pipeline.
func (s *registrationService) Update(ctx context.Context, sub domain.Submission) (*domain.RegistrationResult, error) {
	run := s.newRun(domain.ActionUpdate, sub)
	if err := s.updateRunner.Execute(ctx, run, pipeline.UpdateStages); err != nil {
		return nil, err
	}
	return run.Result(), nil
}

// Cancel runs the cancel pipeline.
func (s *registrationService) Cancel(ctx context.Context, sub domain.Submission) (*domain.RegistrationResult, error) {
	run := s.newRun(domain.ActionCancel, sub)
	if err := s.cancelRunner.Execute(ctx, run, pipeline.CancelStages); err != nil {
		return nil, err
	}
	return run.Result(), nil
}

// resolveEventFromToken resolves the participant and event referenced by a
// token of the given usage.
func (s *registrationService) resolveEventFromToken(ctx context.Context, run *regRun, usage string) error {
	participantID, err := s.tokens.Decode(domain.TokenEntityParticipant, run.Submission.Token, usage)
	if err != nil {
		run.AddError("token", "The supplied token is invalid or has expired")
		return nil
	}
	p, err := s.participants.GetByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			run.AddError("token", "The registration referenced by this token no longer exists")
			return nil
		}
		return fmt.Errorf("get participant: %w", err)
	}
	run.Participant = p
	run.ContactID = p.ContactID
	event, err := run.view.Event(ctx, p.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			run.AddError("event_id", "Event could not be determined")
			return nil
		}
		return fmt.Errorf("get event: %w", err)
	}
	run.Event = event
	return nil
}

// resolveEventByID loads the event named by the submission.
func (s *registrationService) resolveEventByID(ctx context.Context, run *regRun) error {
	if run.Submission.EventID == "" {
		run.AddError("event_id", "Event could not be determined")
		return nil
	}
	event, err := run.view.Event(ctx, run.Submission.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			run.AddError("event_id", "Event could not be determined")
			return nil
		}
		return fmt.Errorf("get event: %w", err)
	}
	run.Event = event
	return nil
}

// resolveProfile resolves and instantiates the effective profile for the
// run's action.
func (s *registrationService) resolveProfile(run *regRun) {
	var name string
	var ok bool
	if run.Action == domain.ActionUpdate {
		name, ok = run.Event.UpdateProfile(run.Submission.Profile)
	} else {
		name, ok = run.Event.CreateProfile(run.Submission.Profile)
	}
	if !ok {
		run.AddError("profile", fmt.Sprintf("Profile '%s' is not enabled for this event", run.Submission.Profile))
		return
	}
	p, err := profiles.Get(name)
	if err != nil {
		run.AddError("profile", fmt.Sprintf("Profile '%s' is not available", name))
		return
	}
	run.ProfileName = name
	run.profile = p
}

// loadPriceConfiguration caches the event's price fields and option usage
// on the run.
func (s *registrationService) loadPriceConfiguration(ctx context.Context, run *regRun) error {
	if !run.Event.IsMonetary {
		return nil
	}
	fields, err := s.prices.ListByEventID(ctx, run.Event.ID)
	if err != nil {
		return fmt.Errorf("list price fields: %w", err)
	}
	usage, err := s.prices.OptionUsage(ctx, run.Event.ID)
	if err != nil {
		return fmt.Errorf("load option usage: %w", err)
	}
	run.priceFields = fields
	run.optionUsage = usage
	return nil
}

// contactFieldsFor collects the contact-entity values of one submission
// block (prefix "" is the primary registrant).
func contactFieldsFor(p profiles.Profile, run *regRun, prefix string) map[string]string {
	fields := make(map[string]string)
	for _, spec := range p.Fields(run.Submission.Locale) {
		if spec.Entity != domain.EntityContact {
			continue
		}
		if v, ok := run.Submission.Field(prefix + spec.Name); ok && v != "" {
			fields[spec.Name] = v
		}
	}
	return fields
}

// displayName builds a short salutation name from contact fields.
func displayName(c *domain.Contact) string {
	if c == nil {
		return ""
	}
	name := strings.TrimSpace(c.Fields[domain.ContactFieldFirstName] + " " + c.Fields[domain.ContactFieldLastName])
	if name == "" {
		name = c.Fields[domain.ContactFieldEmail]
	}
	return name
}
