package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"excellerator/internal/domain"
	"excellerator/internal/port"
)

type sessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*domain.Session
	now      func() time.Time
}

// NewSessionStore creates an in-process SessionStore. Sessions are lost on
// restart.
func NewSessionStore() port.SessionStore {
	return &sessionStore{
		sessions: make(map[uuid.UUID]*domain.Session),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *sessionStore) Create(_ context.Context, session *domain.Session) error {
	now := s.now()
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	session.CreatedAt = now
	session.UpdatedAt = now
	if session.Table.Rows == nil {
		session.Table.Clear()
	}
	if session.Messages == nil {
		session.Messages = []domain.ChatMessage{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *sessionStore) Get(_ context.Context, id uuid.UUID) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (s *sessionStore) Update(_ context.Context, id uuid.UUID, fn func(*domain.Session) error) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	draft := current.Clone()
	if err := fn(draft); err != nil {
		return nil, err
	}
	draft.ID = current.ID
	draft.CreatedAt = current.CreatedAt
	draft.UpdatedAt = s.now()
	s.sessions[id] = draft
	return draft.Clone(), nil
}

func (s *sessionStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

// EvictIdle drops sessions untouched since idleSince. Busy sessions are kept
// so an in-flight model call can still write its result.
func (s *sessionStore) EvictIdle(_ context.Context, idleSince time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, session := range s.sessions {
		if session.Busy || !session.UpdatedAt.Before(idleSince) {
			continue
		}
		delete(s.sessions, id)
		evicted++
	}
	return evicted, nil
}
