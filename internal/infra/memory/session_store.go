package memory

import (
	"context"
	"sync"
	"time"

	"course-quiz-service/internal/app"
	"course-quiz-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Sessions are stored by value, so callers never share mutable state with the store.
type SessionStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.Mutex
	sessions map[string]storedSession
}

type storedSession struct {
	session   app.Session
	expiresAt time.Time
}

// NewSessionStore keeps sessions for ttl after their last update; ttl <= 0 keeps them forever.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		clock:    time.Now,
		sessions: make(map[string]storedSession),
	}
}

func (s *SessionStore) Create(_ context.Context, session app.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.putLocked(session)
	return nil
}

func (s *SessionStore) Get(_ context.Context, sessionID string) (app.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.liveLocked(sessionID)
	if !ok {
		return app.Session{}, domain.ErrSessionNotFound
	}
	return copySession(stored.session), nil
}

func (s *SessionStore) Update(_ context.Context, sessionID string, fn func(*app.Session) error) (app.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.liveLocked(sessionID)
	if !ok {
		return app.Session{}, domain.ErrSessionNotFound
	}
	working := copySession(stored.session)
	if err := fn(&working); err != nil {
		return copySession(stored.session), err
	}
	s.putLocked(working)
	return copySession(working), nil
}

// Len reports how many live sessions are held.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	return len(s.sessions)
}

func (s *SessionStore) putLocked(session app.Session) {
	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = s.clock().Add(s.ttl)
	}
	s.sessions[session.ID] = storedSession{session: copySession(session), expiresAt: expiresAt}
}

func (s *SessionStore) liveLocked(sessionID string) (storedSession, bool) {
	stored, ok := s.sessions[sessionID]
	if !ok {
		return storedSession{}, false
	}
	if !stored.expiresAt.IsZero() && !stored.expiresAt.After(s.clock()) {
		delete(s.sessions, sessionID)
		return storedSession{}, false
	}
	return stored, true
}

func (s *SessionStore) sweepLocked() {
	now := s.clock()
	for id, stored := range s.sessions {
		if !stored.expiresAt.IsZero() && !stored.expiresAt.After(now) {
			delete(s.sessions, id)
		}
	}
}

func copySession(session app.Session) app.Session {
	session.Answers = append([]string(nil), session.Answers...)
	session.Questions = append([]domain.Question(nil), session.Questions...)
	return session
}
