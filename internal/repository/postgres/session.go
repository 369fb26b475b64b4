package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/onboarding-agent/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionStore implements domain.SessionStore on a JSONB checkpoint table
type SessionStore struct {
	pool *pgxpool.Pool
}

// NewSessionStore creates a new session store
func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

func (s *SessionStore) LoadOrInit(ctx context.Context, threadID string) (*domain.Session, error) {
	query := `
		SELECT state, version, updated_at
		FROM onboarding.agent_threads
		WHERE thread_id = $1
	`
	var (
		state     []byte
		version   int64
		updatedAt time.Time
	)
	err := s.pool.QueryRow(ctx, query, threadID).Scan(&state, &version, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NewSession(threadID), nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	session := domain.NewSession(threadID)
	if err := json.Unmarshal(state, session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	session.ThreadID = threadID
	session.Version = version
	session.UpdatedAt = updatedAt
	if session.Profile == nil {
		session.Profile = map[string]string{}
	}
	return session, nil
}

// Checkpoint writes the whole session in a single upsert, guarded by the
// version the session was loaded at.
func (s *SessionStore) Checkpoint(ctx context.Context, session *domain.Session) error {
	state, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	query := `
		INSERT INTO onboarding.agent_threads (thread_id, state, version, updated_at)
		VALUES ($1, $2::jsonb, $3::bigint + 1, NOW())
		ON CONFLICT (thread_id) DO UPDATE
		SET state = EXCLUDED.state,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at
		WHERE onboarding.agent_threads.version = $3::bigint
		RETURNING updated_at
	`
	var updatedAt time.Time
	err = s.pool.QueryRow(ctx, query, session.ThreadID, string(state), session.Version).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("thread %s: %w", session.ThreadID, domain.ErrCheckpointConflict)
		}
		return fmt.Errorf("failed to checkpoint session: %w", err)
	}

	session.Version++
	session.UpdatedAt = updatedAt
	return nil
}
