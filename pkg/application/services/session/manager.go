package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/vsinha/fgplan/pkg/errors"
	"github.com/vsinha/fgplan/pkg/infrastructure/events"
	"github.com/vsinha/fgplan/pkg/logger"
)

// Manager owns the open sessions and expires idle ones
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl           time.Duration
	decimalPlaces int
	events        events.EventStore
	log           *logger.Logger
	now           func() time.Time
}

// NewManager creates a session manager. A zero ttl keeps sessions until
// they are deleted explicitly.
func NewManager(log *logger.Logger, store events.EventStore, ttl time.Duration, decimalPlaces int) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{
		sessions:      make(map[string]*Session),
		ttl:           ttl,
		decimalPlaces: decimalPlaces,
		events:        store,
		log:           log.WithComponent("session_manager"),
		now:           time.Now,
	}
}

// Create opens a new empty session
func (m *Manager) Create() *Session {
	id := uuid.NewString()
	s := newSession(id, m.now(), m.decimalPlaces, m.events, m.log)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	s.emit(events.SessionCreatedEvent, nil)
	m.log.Info().Str("session_id", id).Msg("session created")
	return s
}

// Get returns the session and marks it as used
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, apperrors.NotFound("session")
	}
	s.touch(m.now())
	return s, nil
}

// Delete closes a session and drops its event stream
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return apperrors.NotFound("session")
	}
	m.dropEvents(id)
	m.log.Info().Str("session_id", id).Msg("session deleted")
	return nil
}

func (m *Manager) dropEvents(id string) {
	if m.events == nil {
		return
	}
	if err := m.events.DeleteStream(id); err != nil {
		m.log.Warn().Err(err).Str("session_id", id).Msg("failed to drop session events")
	}
}

// IDs lists the open sessions, sorted
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of open sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// PurgeExpired deletes every session idle for longer than the ttl and
// returns how many were removed.
func (m *Manager) PurgeExpired() int {
	if m.ttl <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	var expired []string
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, id)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		m.dropEvents(id)
	}
	if len(expired) > 0 {
		m.log.Info().Int("count", len(expired)).Msg("expired sessions purged")
	}
	return len(expired)
}

// RunSweeper purges expired sessions every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || m.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.PurgeExpired()
		}
	}
}
