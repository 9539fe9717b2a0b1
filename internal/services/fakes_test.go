package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"remoteevents/internal/domain"
)

// In-memory fakes for the repository and adapter ports. They implement
// just enough filter semantics for the service tests.

type fakeEventRepo struct {
	events map[string]*domain.Event
	err    error
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	ev, ok := f.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return ev, nil
}

func (f *fakeEventRepo) ListActive(ctx context.Context) ([]*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Event
	for _, ev := range f.events {
		if ev.IsActive {
			out = append(out, ev)
		}
	}
	return out, nil
}

type fakeParticipantRepo struct {
	statuses     *domain.StatusIndex
	participants []*domain.Participant
	idSeq        int
	createErr    error
	listErr      error
	updateErr    error

	statusUpdates []string // "id=status" per UpdateStatus target
}

func (f *fakeParticipantRepo) Create(ctx context.Context, p *domain.Participant) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.idSeq++
	p.ID = fmt.Sprintf("pt-%d", f.idSeq)
	p.CreatedAt = p.RegisteredAt
	p.UpdatedAt = p.RegisteredAt
	f.participants = append(f.participants, p)
	return nil
}

func (f *fakeParticipantRepo) GetByID(ctx context.Context, id string) (*domain.Participant, error) {
	for _, p := range f.participants {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeParticipantRepo) List(ctx context.Context, filter domain.ParticipantFilter) ([]*domain.Participant, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*domain.Participant
	for _, p := range f.participants {
		if filter.EventID != "" && p.EventID != filter.EventID {
			continue
		}
		if filter.ContactID != "" && p.ContactID != filter.ContactID {
			continue
		}
		if filter.ExcludeTest && p.IsTest {
			continue
		}
		if len(filter.Statuses) > 0 && !containsString(filter.Statuses, p.Status) {
			continue
		}
		if len(filter.Classes) > 0 {
			matched := false
			for _, c := range filter.Classes {
				if f.statuses.Class(p.Status) == c {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeParticipantRepo) ListRegisteredBy(ctx context.Context, registeredByID string) ([]*domain.Participant, error) {
	var out []*domain.Participant
	for _, p := range f.participants {
		if p.RegisteredByID == registeredByID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeParticipantRepo) Update(ctx context.Context, p *domain.Participant) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	for i, existing := range f.participants {
		if existing.ID == p.ID {
			f.participants[i] = p
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeParticipantRepo) UpdateStatus(ctx context.Context, ids []string, status string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	for _, id := range ids {
		for _, p := range f.participants {
			if p.ID == id {
				p.Status = status
				f.statusUpdates = append(f.statusUpdates, id+"="+status)
			}
		}
	}
	return nil
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

type fakeContactRepo struct {
	contacts map[string]*domain.Contact
	updates  map[string]map[string]string
	getErr   error
}

func (f *fakeContactRepo) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	c, ok := f.contacts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (f *fakeContactRepo) UpdateFields(ctx context.Context, id string, fields map[string]string) error {
	if _, ok := f.contacts[id]; !ok {
		return domain.ErrNotFound
	}
	if f.updates == nil {
		f.updates = make(map[string]map[string]string)
	}
	f.updates[id] = fields
	for k, v := range fields {
		f.contacts[id].Fields[k] = v
	}
	return nil
}

type fakeOrderRepo struct {
	orders     []*domain.Order
	mandates   []*domain.Mandate
	seats      map[string]int
	createErr  error
	mandateErr error
}

func (f *fakeOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.orders = append(f.orders, order)
	return nil
}

func (f *fakeOrderRepo) CreateMandate(ctx context.Context, mandate *domain.Mandate) error {
	if f.mandateErr != nil {
		return f.mandateErr
	}
	f.mandates = append(f.mandates, mandate)
	return nil
}

func (f *fakeOrderRepo) CountedSeatsByParticipant(ctx context.Context, participantIDs []string) (map[string]int, error) {
	out := make(map[string]int)
	for _, id := range participantIDs {
		if n, ok := f.seats[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

type fakePriceRepo struct {
	fields []*domain.PriceField
	usage  map[string]int
}

func (f *fakePriceRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.PriceField, error) {
	return f.fields, nil
}

func (f *fakePriceRepo) OptionUsage(ctx context.Context, eventID string) (map[string]int, error) {
	return f.usage, nil
}

type fakeChangeRepo struct {
	changes []*domain.ParticipantChange
	err     error
}

func (f *fakeChangeRepo) Record(ctx context.Context, changes []*domain.ParticipantChange) error {
	if f.err != nil {
		return f.err
	}
	f.changes = append(f.changes, changes...)
	return nil
}

func (f *fakeChangeRepo) ListByParticipantID(ctx context.Context, participantID string) ([]*domain.ParticipantChange, error) {
	var out []*domain.ParticipantChange
	for _, c := range f.changes {
		if c.ParticipantID == participantID {
			out = append(out, c)
		}
	}
	return out, nil
}

// fakeMatcher returns a deterministic contact id derived from the email
// field, so repeated matches of the same person dedupe like XCM would.
type fakeMatcher struct {
	err   error
	calls []map[string]string
}

func (f *fakeMatcher) MatchOrCreate(ctx context.Context, profile string, fields map[string]string) (string, error) {
	f.calls = append(f.calls, fields)
	if f.err != nil {
		return "", f.err
	}
	return "ct-" + fields[domain.ContactFieldEmail], nil
}

// fakeTokens encodes tokens as plain "entity|usage|id" strings.
type fakeTokens struct {
	encodeErr error
}

func (f *fakeTokens) Encode(entity, id, usage string, ttl time.Duration) (string, error) {
	if f.encodeErr != nil {
		return "", f.encodeErr
	}
	return entity + "|" + usage + "|" + id, nil
}

func (f *fakeTokens) Decode(entity, token, usage string) (string, error) {
	parts := strings.SplitN(token, "|", 3)
	if len(parts) != 3 || parts[0] != entity || parts[1] != usage {
		return "", domain.ErrInvalidToken
	}
	return parts[2], nil
}

type fakeEmailService struct {
	registrations []*domain.RegistrationEmailData
	cancellations []*domain.CancellationEmailData
	err           error
}

func (f *fakeEmailService) SendRegistrationConfirmation(ctx context.Context, data *domain.RegistrationEmailData) error {
	if f.err != nil {
		return f.err
	}
	f.registrations = append(f.registrations, data)
	return nil
}

func (f *fakeEmailService) SendCancellationConfirmation(ctx context.Context, data *domain.CancellationEmailData) error {
	if f.err != nil {
		return f.err
	}
	f.cancellations = append(f.cancellations, data)
	return nil
}

type fakeSessionRepo struct {
	sessions      map[string]*domain.Session
	slots         []*domain.Slot
	speakers      []*domain.Speaker
	counts        map[string]int
	registrations []*domain.SessionRegistration
	deleted       []string // "sessionID/participantID"
}

func (f *fakeSessionRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Session, error) {
	var out []*domain.Session
	for _, s := range f.sessions {
		if s.EventID == eventID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (f *fakeSessionRepo) ListSlotsByEventID(ctx context.Context, eventID string) ([]*domain.Slot, error) {
	return f.slots, nil
}

func (f *fakeSessionRepo) ListSpeakersByEventID(ctx context.Context, eventID string) ([]*domain.Speaker, error) {
	return f.speakers, nil
}

func (f *fakeSessionRepo) CountRegistrations(ctx context.Context, sessionIDs []string) (map[string]int, error) {
	out := make(map[string]int)
	for _, id := range sessionIDs {
		if n, ok := f.counts[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) ListRegistrationsByParticipant(ctx context.Context, participantID string) ([]*domain.SessionRegistration, error) {
	var out []*domain.SessionRegistration
	for _, r := range f.registrations {
		if r.ParticipantID == participantID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) CreateRegistration(ctx context.Context, reg *domain.SessionRegistration) error {
	f.registrations = append(f.registrations, reg)
	return nil
}

func (f *fakeSessionRepo) DeleteRegistration(ctx context.Context, sessionID, participantID string) error {
	for i, r := range f.registrations {
		if r.SessionID == sessionID && r.ParticipantID == participantID {
			f.registrations = append(f.registrations[:i], f.registrations[i+1:]...)
			f.deleted = append(f.deleted, sessionID+"/"+participantID)
			return nil
		}
	}
	return domain.ErrNotFound
}
