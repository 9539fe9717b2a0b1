package services

import (
	"context"
	"fmt"
	"time"

	"remoteevents/internal/domain"
)

// Decision is the tagged outcome of an eligibility check: either allowed,
// or denied with a human-readable reason.
type Decision struct {
	denied bool
	reason string
}

// Allow returns an allowing decision.
func Allow() Decision { return Decision{} }

// Deny returns a denying decision with the given reason.
func Deny(reason string) Decision { return Decision{denied: true, reason: reason} }

// Allowed reports whether the check passed.
func (d Decision) Allowed() bool { return !d.denied }

// Reason returns the denial reason, empty when allowed.
func (d Decision) Reason() string { return d.reason }

// CountFilter narrows a registration count.
type CountFilter struct {
	ContactID   string
	Classes     []domain.StatusClass
	Statuses    []string
	OnlyCounted bool
}

// Eligibility answers whether a contact can register/edit/cancel for an
// event right now. All checks are pure queries over current state; per
// request, callers obtain a View that caches event data and counts and is
// explicitly invalidated after mutations.
type Eligibility struct {
	events       domain.EventRepository
	participants domain.ParticipantRepository
	orders       domain.OrderRepository
	statuses     *domain.StatusIndex

	// Statuses of an existing registration that block a renewed attempt
	// even though their class is Negative.
	Blacklist []string

	now func() time.Time
}

// NewEligibility builds the eligibility engine.
func NewEligibility(
	events domain.EventRepository,
	participants domain.ParticipantRepository,
	orders domain.OrderRepository,
	statuses *domain.StatusIndex,
) *Eligibility {
	return &Eligibility{
		events:       events,
		participants: participants,
		orders:       orders,
		statuses:     statuses,
		Blacklist:    []string{domain.StatusRejected},
		now:          time.Now,
	}
}

// View returns a request-scoped view with its own event/count cache.
func (e *Eligibility) View() *EligibilityView {
	return &EligibilityView{
		e:      e,
		events: make(map[string]*domain.Event),
		counts: make(map[string]int),
	}
}

// EligibilityView is the per-request face of the engine. It is not safe
// for concurrent use; one view serves exactly one API call.
type EligibilityView struct {
	e      *Eligibility
	events map[string]*domain.Event
	counts map[string]int
}

// InvalidateEvent drops the cached event data and counts for an event.
// Must be called after any mutation within the same request, or later
// reads within the request return stale values.
func (v *EligibilityView) InvalidateEvent(eventID string) {
	delete(v.events, eventID)
	for key := range v.counts {
		if len(key) >= len(eventID) && key[:len(eventID)] == eventID {
			delete(v.counts, key)
		}
	}
}

// Event loads event configuration through the view cache.
func (v *EligibilityView) Event(ctx context.Context, eventID string) (*domain.Event, error) {
	if ev, ok := v.events[eventID]; ok {
		return ev, nil
	}
	ev, err := v.e.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	v.events[eventID] = ev
	return ev, nil
}

// CanRegister runs the registration obstruction chain in order,
// short-circuiting on the first failure. A denial reason is always
// user-presentable.
func (v *EligibilityView) CanRegister(ctx context.Context, event *domain.Event, contactID string) (Decision, error) {
	now := v.e.now()

	if event.RequiresContact && contactID == "" {
		return Deny("Registration for this event requires identification"), nil
	}
	if event.Suspended {
		return Deny("Registration is currently suspended for this event"), nil
	}
	if !event.IsActive {
		return Deny("Event is not active"), nil
	}
	if event.Ended(now) {
		return Deny("Event has ended"), nil
	}
	if !event.RegistrationOpen(now) {
		if event.RegistrationStart != nil && event.RegistrationStart.After(now) {
			return Deny("Registration is not yet open"), nil
		}
		return Deny("Registration has closed"), nil
	}

	if event.MaxParticipants > 0 && !event.HasWaitlist {
		count, err := v.RegistrationCount(ctx, event.ID, CountFilter{OnlyCounted: true})
		if err != nil {
			return Decision{}, fmt.Errorf("count registrations: %w", err)
		}
		if count >= event.MaxParticipants {
			text := event.BookedOutText
			if text == "" {
				text = "Event is booked out"
			}
			return Deny(text), nil
		}
	}

	if contactID != "" {
		existing, err := v.e.activeOrBlockedRegistration(ctx, event.ID, contactID)
		if err != nil {
			return Decision{}, err
		}
		if existing != nil {
			if v.e.statuses.Class(existing.Status) != domain.ClassNegative {
				return Deny("You are already registered for this event"), nil
			}
			for _, blocked := range v.e.Blacklist {
				if existing.Status == blocked {
					return Deny(fmt.Sprintf("A previous registration with status '%s' prevents registering again", existing.Status)), nil
				}
			}
		}
	}

	return Allow(), nil
}

// CanEditRegistration runs the update obstruction chain: active event,
// self-service enabled, inside the time window, an active registration
// present, and at least one update profile configured.
func (v *EligibilityView) CanEditRegistration(ctx context.Context, event *domain.Event, contactID string) (Decision, error) {
	if !event.IsActive {
		return Deny("Event is not active"), nil
	}
	if !event.AllowSelfCancelXfer {
		return Deny("This event does not allow changing registrations"), nil
	}
	if !v.e.CancellationAllowed(event) {
		return Deny("The time window for changing this registration has passed"), nil
	}
	if contactID == "" {
		return Deny("Changing a registration requires identification"), nil
	}
	active, err := v.ActiveRegistration(ctx, event.ID, contactID)
	if err != nil {
		return Decision{}, err
	}
	if active == nil {
		return Deny("No active registration found for this event"), nil
	}
	if len(event.UpdateProfiles) == 0 && event.DefaultUpdateProfile == "" {
		return Deny("This event does not offer a self-service update form"), nil
	}
	return Allow(), nil
}

// CancellationAllowed is the pure time-window check: true when no limit is
// configured, otherwise when more than SelfCancelXferHours remain before
// the event starts.
func (e *Eligibility) CancellationAllowed(event *domain.Event) bool {
	if event.SelfCancelXferHours <= 0 {
		return true
	}
	limit := time.Duration(event.SelfCancelXferHours) * time.Hour
	return event.StartDate.Sub(e.now()) > limit
}

// ParticipantCanBeCancelled gates one participant of a cancel batch.
func (e *Eligibility) ParticipantCanBeCancelled(event *domain.Event, p *domain.Participant) Decision {
	if e.statuses.Class(p.Status) == domain.ClassNegative {
		return Deny("Registration is already cancelled")
	}
	if !event.IsActive {
		return Deny("Event is not active")
	}
	if !event.AllowSelfCancelXfer {
		return Deny("This event does not allow cancelling registrations")
	}
	if !e.CancellationAllowed(event) {
		return Deny("The time window for cancelling this registration has passed")
	}
	return Allow()
}

// RegistrationCount counts registrations with the hybrid seat semantics:
// a participant with counted line items contributes the sum of
// count*quantity over those items, every other participant contributes 1.
func (v *EligibilityView) RegistrationCount(ctx context.Context, eventID string, f CountFilter) (int, error) {
	cacheKey := eventID + "|" + f.ContactID + "|" + fmt.Sprint(f.Classes, f.Statuses, f.OnlyCounted)
	if n, ok := v.counts[cacheKey]; ok {
		return n, nil
	}

	parts, err := v.e.participants.List(ctx, domain.ParticipantFilter{
		EventID:     eventID,
		ContactID:   f.ContactID,
		Classes:     f.Classes,
		Statuses:    f.Statuses,
		ExcludeTest: true,
	})
	if err != nil {
		return 0, fmt.Errorf("list participants: %w", err)
	}

	var ids []string
	for _, p := range parts {
		if f.OnlyCounted {
			if !v.e.statuses.IsCounted(p.Status) {
				continue
			}
			if !v.e.statuses.RoleCounts(p.Roles) {
				continue
			}
		}
		ids = append(ids, p.ID)
	}
	if len(ids) == 0 {
		v.counts[cacheKey] = 0
		return 0, nil
	}

	seats, err := v.e.orders.CountedSeatsByParticipant(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("load counted seats: %w", err)
	}
	total := 0
	for _, id := range ids {
		if n, ok := seats[id]; ok {
			total += n
		} else {
			total++
		}
	}
	v.counts[cacheKey] = total
	return total, nil
}

// HasActiveWaitlist reports whether the waitlist is currently catching
// registrations: enabled, a capacity set, and counted registrations at or
// over that capacity.
func (v *EligibilityView) HasActiveWaitlist(ctx context.Context, event *domain.Event) (bool, error) {
	if !event.HasWaitlist || event.MaxParticipants <= 0 {
		return false, nil
	}
	count, err := v.RegistrationCount(ctx, event.ID, CountFilter{OnlyCounted: true})
	if err != nil {
		return false, err
	}
	return count >= event.MaxParticipants, nil
}

// ActiveRegistration returns the contact's most relevant registration for
// the event: class priority Positive > Waiting > Pending, most recent
// registration date within a class. Nil when none of these classes match.
func (v *EligibilityView) ActiveRegistration(ctx context.Context, eventID, contactID string) (*domain.Participant, error) {
	if contactID == "" {
		return nil, nil
	}
	parts, err := v.e.participants.List(ctx, domain.ParticipantFilter{
		EventID:     eventID,
		ContactID:   contactID,
		ExcludeTest: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	classRank := map[domain.StatusClass]int{
		domain.ClassPositive: 3,
		domain.ClassWaiting:  2,
		domain.ClassPending:  1,
	}
	var best *domain.Participant
	bestRank := 0
	for _, p := range parts {
		rank := classRank[v.e.statuses.Class(p.Status)]
		if rank == 0 {
			continue
		}
		if rank > bestRank || (rank == bestRank && best != nil && p.RegisteredAt.After(best.RegisteredAt)) {
			best = p
			bestRank = rank
		}
	}
	return best, nil
}

// activeOrBlockedRegistration returns the registration considered by the
// duplicate check: any non-Negative one, or the most recent blacklisted
// Negative one.
func (e *Eligibility) activeOrBlockedRegistration(ctx context.Context, eventID, contactID string) (*domain.Participant, error) {
	parts, err := e.participants.List(ctx, domain.ParticipantFilter{
		EventID:     eventID,
		ContactID:   contactID,
		ExcludeTest: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	var blocked *domain.Participant
	for _, p := range parts {
		if e.statuses.Class(p.Status) != domain.ClassNegative {
			return p, nil
		}
		for _, b := range e.Blacklist {
			if p.Status == b && (blocked == nil || p.RegisteredAt.After(blocked.RegisteredAt)) {
				blocked = p
			}
		}
	}
	return blocked, nil
}
