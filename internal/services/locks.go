package services

import "sync"

// eventLocks serializes the count-then-create sequence per event within
// this process. Multi-instance deployments additionally need a database
// lock; see DESIGN.md.
type eventLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newEventLocks() *eventLocks {
	return &eventLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the per-event mutex and returns its unlock function.
func (l *eventLocks) Lock(eventID string) func() {
	l.mu.Lock()
	m, ok := l.locks[eventID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[eventID] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}
