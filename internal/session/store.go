package session

import (
	"sync"
	"time"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/errors"

	"github.com/google/uuid"
)

// Store keeps sessions in memory and evicts those idle longer than ttl.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*AppState
	lastSeen map[string]time.Time
	ttl      time.Duration
	done     chan struct{}
	once     sync.Once
	logger   *errors.Logger
}

// NewStore starts a store whose cleanup runs every ttl/4, at least once a minute.
func NewStore(ttl time.Duration, logger *errors.Logger) *Store {
	s := &Store{
		sessions: make(map[string]*AppState),
		lastSeen: make(map[string]time.Time),
		ttl:      ttl,
		done:     make(chan struct{}),
		logger:   logger,
	}

	interval := min(max(ttl/4, time.Second), time.Minute)
	go s.cleanupRoutine(interval)
	return s
}

// Create registers a new, empty session.
func (s *Store) Create() *AppState {
	st := NewAppState(uuid.NewString())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[st.ID] = st
	s.lastSeen[st.ID] = time.Now()
	return st
}

// Get returns the session and refreshes its idle timer.
func (s *Store) Get(id string) (*AppState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[id]
	if !ok {
		return nil, errors.NewValidationError(errors.ErrCodeSessionNotFound,
			"Session not found or expired", nil).WithContext("session_id", id)
	}
	s.lastSeen[id] = time.Now()
	return st, nil
}

// Delete removes a session. It reports whether the session existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[id]
	delete(s.sessions, id)
	delete(s.lastSeen, id)
	return ok
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// GetStats returns current session store statistics
func (s *Store) GetStats() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return map[string]any{
		"active_sessions": len(s.sessions),
		"ttl_seconds":     s.ttl.Seconds(),
	}
}

func (s *Store) cleanupRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictIdle(time.Now())
		case <-s.done:
			return
		}
	}
}

// evictIdle removes sessions last used before now-ttl.
func (s *Store) evictIdle(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, seen := range s.lastSeen {
		if now.Sub(seen) > s.ttl {
			delete(s.sessions, id)
			delete(s.lastSeen, id)
			evicted++
		}
	}

	if s.logger != nil && evicted > 0 {
		s.logger.Debug("Session cleanup completed",
			"evicted", evicted,
			"remaining_sessions", len(s.sessions))
	}
	return evicted
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })
}
