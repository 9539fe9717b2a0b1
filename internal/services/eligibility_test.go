package services

import (
	"context"
	"testing"
	"time"

	"remoteevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func testStatusIndex() *domain.StatusIndex {
	return domain.NewStatusIndex(domain.DefaultStatuses(), domain.DefaultRoles())
}

func openEvent() *domain.Event {
	start := testNow.Add(30 * 24 * time.Hour)
	return &domain.Event{
		ID:        "ev-1",
		Title:     "Annual Meetup",
		StartDate: start,
		IsActive:  true,
	}
}

func testEligibility(events *fakeEventRepo, parts *fakeParticipantRepo, orders *fakeOrderRepo) *Eligibility {
	if events == nil {
		events = &fakeEventRepo{events: map[string]*domain.Event{}}
	}
	if parts == nil {
		parts = &fakeParticipantRepo{statuses: testStatusIndex()}
	}
	if orders == nil {
		orders = &fakeOrderRepo{}
	}
	e := NewEligibility(events, parts, orders, testStatusIndex())
	e.now = func() time.Time { return testNow }
	return e
}

func registered(id, eventID, contactID, status string) *domain.Participant {
	return &domain.Participant{
		ID:           id,
		EventID:      eventID,
		ContactID:    contactID,
		Status:       status,
		Roles:        []string{domain.DefaultRoleAttendee},
		RegisteredAt: testNow.Add(-time.Hour),
	}
}

func TestCanRegister_ObstructionChain(t *testing.T) {
	past := testNow.Add(-time.Hour)
	future := testNow.Add(time.Hour)

	tests := []struct {
		name       string
		mutate     func(*domain.Event)
		contactID  string
		wantReason string
	}{
		{
			name:   "open event allows",
			mutate: func(ev *domain.Event) {},
		},
		{
			name:       "contact required",
			mutate:     func(ev *domain.Event) { ev.RequiresContact = true },
			wantReason: "Registration for this event requires identification",
		},
		{
			name:       "suspended",
			mutate:     func(ev *domain.Event) { ev.Suspended = true },
			wantReason: "Registration is currently suspended for this event",
		},
		{
			name:       "inactive",
			mutate:     func(ev *domain.Event) { ev.IsActive = false },
			wantReason: "Event is not active",
		},
		{
			name:       "ended",
			mutate:     func(ev *domain.Event) { ev.EndDate = &past },
			wantReason: "Event has ended",
		},
		{
			name:       "registration not yet open",
			mutate:     func(ev *domain.Event) { ev.RegistrationStart = &future },
			wantReason: "Registration is not yet open",
		},
		{
			name:       "registration closed",
			mutate:     func(ev *domain.Event) { ev.RegistrationEnd = &past },
			wantReason: "Registration has closed",
		},
		{
			name: "booked out without waitlist",
			mutate: func(ev *domain.Event) {
				ev.MaxParticipants = 1
				ev.BookedOutText = "Sorry, all seats are taken"
			},
			wantReason: "Sorry, all seats are taken",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := openEvent()
			tt.mutate(ev)
			parts := &fakeParticipantRepo{
				statuses:     testStatusIndex(),
				participants: []*domain.Participant{registered("pt-1", ev.ID, "ct-other", domain.StatusRegistered)},
			}
			elig := testEligibility(nil, parts, nil)

			decision, err := elig.View().CanRegister(context.Background(), ev, tt.contactID)
			require.NoError(t, err)
			if tt.wantReason == "" {
				assert.True(t, decision.Allowed())
			} else {
				require.False(t, decision.Allowed())
				assert.Equal(t, tt.wantReason, decision.Reason())
			}
		})
	}
}

func TestCanRegister_ExistingRegistration(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		wantReason string
	}{
		{
			name:       "active registration blocks",
			status:     domain.StatusRegistered,
			wantReason: "You are already registered for this event",
		},
		{
			name:       "pending registration blocks",
			status:     domain.StatusAwaitingApproval,
			wantReason: "You are already registered for this event",
		},
		{
			name:       "rejected is blacklisted",
			status:     domain.StatusRejected,
			wantReason: "A previous registration with status 'Rejected' prevents registering again",
		},
		{
			name:   "cancelled allows re-registration",
			status: domain.StatusCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := openEvent()
			parts := &fakeParticipantRepo{
				statuses:     testStatusIndex(),
				participants: []*domain.Participant{registered("pt-1", ev.ID, "ct-1", tt.status)},
			}
			elig := testEligibility(nil, parts, nil)

			decision, err := elig.View().CanRegister(context.Background(), ev, "ct-1")
			require.NoError(t, err)
			if tt.wantReason == "" {
				assert.True(t, decision.Allowed())
			} else {
				require.False(t, decision.Allowed())
				assert.Equal(t, tt.wantReason, decision.Reason())
			}
		})
	}
}

func TestRegistrationCount_HybridSeats(t *testing.T) {
	ev := openEvent()
	parts := &fakeParticipantRepo{
		statuses: testStatusIndex(),
		participants: []*domain.Participant{
			// Counts as 3 seats via order line items.
			registered("pt-1", ev.ID, "ct-1", domain.StatusRegistered),
			// No counted items, counts as 1.
			registered("pt-2", ev.ID, "ct-2", domain.StatusRegistered),
			// Invited is not a counted status.
			registered("pt-3", ev.ID, "ct-3", domain.StatusInvited),
			// Cancelled never counts.
			registered("pt-4", ev.ID, "ct-4", domain.StatusCancelled),
		},
	}
	// Non-filter roles are exempt from capacity.
	speaker := registered("pt-5", ev.ID, "ct-5", domain.StatusRegistered)
	speaker.Roles = []string{"Speaker"}
	parts.participants = append(parts.participants, speaker)

	orders := &fakeOrderRepo{seats: map[string]int{"pt-1": 3}}
	elig := testEligibility(nil, parts, orders)

	count, err := elig.View().RegistrationCount(context.Background(), ev.ID, CountFilter{OnlyCounted: true})
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestRegistrationCount_ViewCacheAndInvalidate(t *testing.T) {
	ev := openEvent()
	parts := &fakeParticipantRepo{
		statuses:     testStatusIndex(),
		participants: []*domain.Participant{registered("pt-1", ev.ID, "ct-1", domain.StatusRegistered)},
	}
	elig := testEligibility(nil, parts, nil)
	view := elig.View()

	count, err := view.RegistrationCount(context.Background(), ev.ID, CountFilter{OnlyCounted: true})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// A mutation behind the view's back is not seen until invalidation.
	parts.participants = append(parts.participants, registered("pt-2", ev.ID, "ct-2", domain.StatusRegistered))

	count, err = view.RegistrationCount(context.Background(), ev.ID, CountFilter{OnlyCounted: true})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	view.InvalidateEvent(ev.ID)
	count, err = view.RegistrationCount(context.Background(), ev.ID, CountFilter{OnlyCounted: true})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestHasActiveWaitlist(t *testing.T) {
	tests := []struct {
		name        string
		maxSeats    int
		hasWaitlist bool
		registered  int
		want        bool
	}{
		{name: "no waitlist configured", maxSeats: 1, registered: 2, want: false},
		{name: "no capacity configured", hasWaitlist: true, registered: 5, want: false},
		{name: "below capacity", maxSeats: 3, hasWaitlist: true, registered: 2, want: false},
		{name: "at capacity", maxSeats: 2, hasWaitlist: true, registered: 2, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := openEvent()
			ev.MaxParticipants = tt.maxSeats
			ev.HasWaitlist = tt.hasWaitlist
			parts := &fakeParticipantRepo{statuses: testStatusIndex()}
			for i := 0; i < tt.registered; i++ {
				parts.participants = append(parts.participants,
					registered("pt-"+string(rune('a'+i)), ev.ID, "ct-"+string(rune('a'+i)), domain.StatusRegistered))
			}
			elig := testEligibility(nil, parts, nil)

			active, err := elig.View().HasActiveWaitlist(context.Background(), ev)
			require.NoError(t, err)
			assert.Equal(t, tt.want, active)
		})
	}
}

func TestCancellationAllowed(t *testing.T) {
	elig := testEligibility(nil, nil, nil)

	tests := []struct {
		name       string
		hoursLimit int
		startIn    time.Duration
		want       bool
	}{
		{name: "no limit", hoursLimit: 0, startIn: -time.Hour, want: true},
		{name: "well before deadline", hoursLimit: 48, startIn: 72 * time.Hour, want: true},
		{name: "exactly at deadline", hoursLimit: 48, startIn: 48 * time.Hour, want: false},
		{name: "past deadline", hoursLimit: 48, startIn: 24 * time.Hour, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := openEvent()
			ev.SelfCancelXferHours = tt.hoursLimit
			ev.StartDate = testNow.Add(tt.startIn)
			assert.Equal(t, tt.want, elig.CancellationAllowed(ev))
		})
	}
}

func TestActiveRegistration_ClassRanking(t *testing.T) {
	ev := openEvent()
	older := registered("pt-old", ev.ID, "ct-1", domain.StatusOnWaitlist)
	older.RegisteredAt = testNow.Add(-48 * time.Hour)
	newerPending := registered("pt-pending", ev.ID, "ct-1", domain.StatusAwaitingApproval)
	cancelled := registered("pt-cancelled", ev.ID, "ct-1", domain.StatusCancelled)

	parts := &fakeParticipantRepo{
		statuses:     testStatusIndex(),
		participants: []*domain.Participant{newerPending, older, cancelled},
	}
	elig := testEligibility(nil, parts, nil)

	// Waiting outranks Pending even when the pending one is newer.
	best, err := elig.View().ActiveRegistration(context.Background(), ev.ID, "ct-1")
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, "pt-old", best.ID)

	// A Positive registration outranks both.
	parts.participants = append(parts.participants, registered("pt-top", ev.ID, "ct-1", domain.StatusRegistered))
	best, err = elig.View().ActiveRegistration(context.Background(), ev.ID, "ct-1")
	require.NoError(t, err)
	assert.Equal(t, "pt-top", best.ID)

	// Only negative registrations left means no active one.
	best, err = elig.View().ActiveRegistration(context.Background(), ev.ID, "ct-none")
	require.NoError(t, err)
	assert.Nil(t, best)
}

func TestCanEditRegistration(t *testing.T) {
	base := func() *domain.Event {
		ev := openEvent()
		ev.AllowSelfCancelXfer = true
		ev.DefaultUpdateProfile = "Standard1"
		return ev
	}

	tests := []struct {
		name       string
		mutate     func(*domain.Event)
		contactID  string
		withActive bool
		wantReason string
	}{
		{
			name:       "allowed",
			mutate:     func(ev *domain.Event) {},
			contactID:  "ct-1",
			withActive: true,
		},
		{
			name:       "self-service disabled",
			mutate:     func(ev *domain.Event) { ev.AllowSelfCancelXfer = false },
			contactID:  "ct-1",
			withActive: true,
			wantReason: "This event does not allow changing registrations",
		},
		{
			name: "window passed",
			mutate: func(ev *domain.Event) {
				ev.SelfCancelXferHours = 24
				ev.StartDate = testNow.Add(2 * time.Hour)
			},
			contactID:  "ct-1",
			withActive: true,
			wantReason: "The time window for changing this registration has passed",
		},
		{
			name:       "anonymous caller",
			mutate:     func(ev *domain.Event) {},
			withActive: true,
			wantReason: "Changing a registration requires identification",
		},
		{
			name:       "no active registration",
			mutate:     func(ev *domain.Event) {},
			contactID:  "ct-1",
			wantReason: "No active registration found for this event",
		},
		{
			name: "no update form configured",
			mutate: func(ev *domain.Event) {
				ev.DefaultUpdateProfile = ""
				ev.UpdateProfiles = nil
			},
			contactID:  "ct-1",
			withActive: true,
			wantReason: "This event does not offer a self-service update form",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := base()
			tt.mutate(ev)
			parts := &fakeParticipantRepo{statuses: testStatusIndex()}
			if tt.withActive {
				parts.participants = append(parts.participants, registered("pt-1", ev.ID, "ct-1", domain.StatusRegistered))
			}
			elig := testEligibility(nil, parts, nil)

			decision, err := elig.View().CanEditRegistration(context.Background(), ev, tt.contactID)
			require.NoError(t, err)
			if tt.wantReason == "" {
				assert.True(t, decision.Allowed())
			} else {
				require.False(t, decision.Allowed())
				assert.Equal(t, tt.wantReason, decision.Reason())
			}
		})
	}
}

func TestParticipantCanBeCancelled(t *testing.T) {
	elig := testEligibility(nil, nil, nil)
	ev := openEvent()
	ev.AllowSelfCancelXfer = true

	p := registered("pt-1", ev.ID, "ct-1", domain.StatusRegistered)
	assert.True(t, elig.ParticipantCanBeCancelled(ev, p).Allowed())

	done := registered("pt-2", ev.ID, "ct-1", domain.StatusCancelled)
	decision := elig.ParticipantCanBeCancelled(ev, done)
	require.False(t, decision.Allowed())
	assert.Equal(t, "Registration is already cancelled", decision.Reason())

	ev.AllowSelfCancelXfer = false
	assert.False(t, elig.ParticipantCanBeCancelled(ev, p).Allowed())
}
