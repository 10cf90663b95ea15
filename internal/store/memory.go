package store

import (
	"context"
	"sync"
	"time"

	"github.com/ashureev/mockinterview/internal/domain"
	"github.com/google/uuid"
)

// MemoryStore implements Repository with a process-local map.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	now      func() time.Time
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*domain.Session),
		now:      time.Now,
	}
}

// Create stores a new session.
func (m *MemoryStore) Create(_ context.Context, session *domain.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	now := m.now()
	if session.StartedAt.IsZero() {
		session.StartedAt = now
	}
	session.UpdatedAt = now
	session.History = nil
	session.Active = true
	session.Turns = 0

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session.Clone()
	return nil
}

// Get returns a snapshot of the session.
func (m *MemoryStore) Get(_ context.Context, sessionID string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.Clone(), nil
}

// AppendTurn adds a turn to the end of the session history.
func (m *MemoryStore) AppendTurn(_ context.Context, sessionID string, turn domain.Turn) error {
	return m.mutate(sessionID, func(s *domain.Session) {
		s.History = append(s.History, turn)
	})
}

// SetActive updates the active flag.
func (m *MemoryStore) SetActive(_ context.Context, sessionID string, active bool) error {
	return m.mutate(sessionID, func(s *domain.Session) {
		s.Active = active
	})
}

// IncrementTurns bumps the turn counter.
func (m *MemoryStore) IncrementTurns(_ context.Context, sessionID string) error {
	return m.mutate(sessionID, func(s *domain.Session) {
		s.Turns++
	})
}

// DeleteIdle removes sessions whose last update is before cutoff.
func (m *MemoryStore) DeleteIdle(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) mutate(sessionID string, fn func(*domain.Session)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	fn(s)
	s.UpdatedAt = m.now()
	return nil
}

var _ Repository = (*MemoryStore)(nil)
