package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ashureev/mockinterview/internal/domain"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// MemoryDSN keeps the SQLite database in process memory.
const MemoryDSN = ":memory:"

const (
	writeMaxRetries    = 3
	writeRetryBaseWait = 50 * time.Millisecond
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (or creates) a SQLite-backed repository at dbPath.
// MemoryDSN or an empty path keeps everything in memory for the process lifetime.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	inMemory := dbPath == "" || dbPath == MemoryDSN

	dsn := MemoryDSN
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if inMemory {
		// Every new connection to :memory: is a fresh database, so pin one.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		role TEXT NOT NULL,
		persona TEXT NOT NULL,
		resume TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		turns INTEGER NOT NULL DEFAULT 0,
		started_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);

	CREATE TABLE IF NOT EXISTS turns (
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		speaker TEXT NOT NULL,
		text TEXT NOT NULL,
		PRIMARY KEY (session_id, seq)
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// Create stores a new session.
func (s *SQLiteStore) Create(ctx context.Context, session *domain.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	now := time.Now()
	if session.StartedAt.IsZero() {
		session.StartedAt = now
	}
	session.UpdatedAt = now
	session.History = nil
	session.Active = true
	session.Turns = 0

	query := `
	INSERT INTO sessions (id, name, email, role, persona, resume, active, turns, started_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, 1, 0, ?, ?)`

	return s.withRetry(ctx, "create session", func() error {
		_, err := s.db.ExecContext(ctx, query,
			session.ID, session.Name, session.Email, session.Role,
			string(session.Persona), session.Resume,
			session.StartedAt.UnixNano(), session.UpdatedAt.UnixNano(),
		)
		return err
	})
}

// Get returns a snapshot of the session including its history.
func (s *SQLiteStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	query := `
		SELECT id, name, email, role, persona, resume, active, turns, started_at, updated_at
		FROM sessions WHERE id = ?`

	var session domain.Session
	var persona string
	var startedAt, updatedAt int64

	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID, &session.Name, &session.Email, &session.Role,
		&persona, &session.Resume, &session.Active, &session.Turns,
		&startedAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}
	session.Persona = domain.Persona(persona)
	session.StartedAt = time.Unix(0, startedAt)
	session.UpdatedAt = time.Unix(0, updatedAt)

	rows, err := s.db.QueryContext(ctx,
		`SELECT speaker, text FROM turns WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close turn rows", "error", closeErr)
		}
	}()

	for rows.Next() {
		var speaker, text string
		if err := rows.Scan(&speaker, &text); err != nil {
			return nil, fmt.Errorf("scan turn row: %w", err)
		}
		session.History = append(session.History, domain.Turn{Speaker: domain.Speaker(speaker), Text: text})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	return &session, nil
}

// AppendTurn adds a turn to the end of the session history.
func (s *SQLiteStore) AppendTurn(ctx context.Context, sessionID string, turn domain.Turn) error {
	return s.withRetry(ctx, "append turn", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if err := touch(ctx, tx, sessionID); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO turns (session_id, seq, speaker, text)
			SELECT ?, COALESCE(MAX(seq) + 1, 0), ?, ? FROM turns WHERE session_id = ?`,
			sessionID, string(turn.Speaker), turn.Text, sessionID,
		)
		if err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}
		return tx.Commit()
	})
}

// SetActive updates the active flag.
func (s *SQLiteStore) SetActive(ctx context.Context, sessionID string, active bool) error {
	return s.updateSession(ctx, "set active", `UPDATE sessions SET active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UnixNano(), sessionID)
}

// IncrementTurns bumps the turn counter.
func (s *SQLiteStore) IncrementTurns(ctx context.Context, sessionID string) error {
	return s.updateSession(ctx, "increment turns", `UPDATE sessions SET turns = turns + 1, updated_at = ? WHERE id = ?`,
		time.Now().UnixNano(), sessionID)
}

// DeleteIdle removes sessions whose last update is before cutoff, with their turns.
func (s *SQLiteStore) DeleteIdle(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := s.withRetry(ctx, "delete idle sessions", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		threshold := cutoff.UnixNano()
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM turns WHERE session_id IN (SELECT id FROM sessions WHERE updated_at < ?)`, threshold); err != nil {
			return fmt.Errorf("delete idle turns: %w", err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, threshold)
		if err != nil {
			return fmt.Errorf("delete idle sessions: %w", err)
		}
		if deleted, err = result.RowsAffected(); err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		return tx.Commit()
	})
	return deleted, err
}

func (s *SQLiteStore) updateSession(ctx context.Context, op, query string, args ...any) error {
	return s.withRetry(ctx, op, func() error {
		result, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rows == 0 {
			return ErrSessionNotFound
		}
		return nil
	})
}

func touch(ctx context.Context, tx *sql.Tx, sessionID string) error {
	result, err := tx.ExecContext(ctx, `UPDATE sessions SET updated_at = ? WHERE id = ?`, time.Now().UnixNano(), sessionID)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// withRetry runs fn, retrying with exponential backoff while SQLite reports
// lock contention.
func (s *SQLiteStore) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for i := 0; i < writeMaxRetries; i++ {
		err = fn()
		if err == nil || !isConflictError(err) {
			return err
		}
		if i < writeMaxRetries-1 {
			delay := writeRetryBaseWait * time.Duration(1<<i) // 50ms, 100ms
			slog.Debug("SQLite busy, retrying", "op", op, "attempt", i+1, "delay", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, writeMaxRetries, err)
}

// isConflictError matches SQLITE_BUSY and "database is locked" errors.
func isConflictError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

var _ Repository = (*SQLiteStore)(nil)
