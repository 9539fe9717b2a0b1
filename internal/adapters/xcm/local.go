package xcm

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"remoteevents/internal/domain"
)

type localMatcher struct {
	mu      sync.Mutex
	byEmail map[string]string
}

// NewLocalMatcher returns an in-memory ContactMatcher that dedupes by
// email address only. Meant for development and tests; contacts it mints
// exist nowhere else.
func NewLocalMatcher() domain.ContactMatcher {
	return &localMatcher{byEmail: make(map[string]string)}
}

func (m *localMatcher) MatchOrCreate(_ context.Context, _ string, fields map[string]string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(fields[domain.ContactFieldEmail]))
	if email == "" {
		return "", domain.ErrNoContact
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byEmail[email]; ok {
		return id, nil
	}
	id := uuid.NewString()
	m.byEmail[email] = id
	return id, nil
}
