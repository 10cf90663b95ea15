// Package store provides session storage interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ashureev/mockinterview/internal/domain"
)

// ErrSessionNotFound is returned for any operation on an unknown session ID.
var ErrSessionNotFound = errors.New("session not found")

// Repository owns interview sessions. Sessions handed out by Get are copies;
// mutations go through the dedicated operations.
type Repository interface {
	// Create stores a new session. An empty ID is replaced with a fresh UUID;
	// history is reset, the session is marked active and its turn counter zeroed.
	Create(ctx context.Context, session *domain.Session) error

	// Get returns a snapshot of the session.
	Get(ctx context.Context, sessionID string) (*domain.Session, error)

	// AppendTurn adds a turn to the end of the session history.
	AppendTurn(ctx context.Context, sessionID string, turn domain.Turn) error

	// SetActive updates the active flag.
	SetActive(ctx context.Context, sessionID string, active bool) error

	// IncrementTurns bumps the candidate turn counter by one.
	IncrementTurns(ctx context.Context, sessionID string) error

	// DeleteIdle removes sessions not updated since cutoff and reports how many were removed.
	DeleteIdle(ctx context.Context, cutoff time.Time) (int64, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
