package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Rrens/onboarding-agent/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS agent_threads (
	thread_id  TEXT PRIMARY KEY,
	state      TEXT NOT NULL,
	version    INTEGER NOT NULL,
	updated_at TEXT NOT NULL
)`

// SessionStore implements domain.SessionStore on a local SQLite file
type SessionStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path
func Open(ctx context.Context, path string) (*SessionStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SessionStore{db: db}, nil
}

// Close closes the database
func (s *SessionStore) Close() error {
	return s.db.Close()
}

func (s *SessionStore) LoadOrInit(ctx context.Context, threadID string) (*domain.Session, error) {
	var (
		state     string
		version   int64
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT state, version, updated_at FROM agent_threads WHERE thread_id = ?`, threadID,
	).Scan(&state, &version, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewSession(threadID), nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	session := domain.NewSession(threadID)
	if err := json.Unmarshal([]byte(state), session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	session.ThreadID = threadID
	session.Version = version
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		session.UpdatedAt = t
	}
	if session.Profile == nil {
		session.Profile = map[string]string{}
	}
	return session, nil
}

// Checkpoint upserts the session in one statement, guarded by version
func (s *SessionStore) Checkpoint(ctx context.Context, session *domain.Session) error {
	state, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO agent_threads (thread_id, state, version, updated_at)
		VALUES (?1, ?2, ?3 + 1, ?4)
		ON CONFLICT (thread_id) DO UPDATE
		SET state = excluded.state,
			version = excluded.version,
			updated_at = excluded.updated_at
		WHERE agent_threads.version = ?3
	`, session.ThreadID, string(state), session.Version, now.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to checkpoint session: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to checkpoint session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("thread %s: %w", session.ThreadID, domain.ErrCheckpointConflict)
	}

	session.Version++
	session.UpdatedAt = now
	return nil
}
