package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Rrens/onboarding-agent/internal/config"
	"github.com/Rrens/onboarding-agent/internal/domain"
	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

// SeatRepository implements domain.SeatRepository on MySQL 8
type SeatRepository struct {
	db *sql.DB
}

// Open connects to the seating database
func Open(ctx context.Context, cfg config.MySQLConfig) (*SeatRepository, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 5
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	return NewSeatRepository(db), nil
}

// NewSeatRepository wraps an open database handle
func NewSeatRepository(db *sql.DB) *SeatRepository {
	return &SeatRepository{db: db}
}

// Close closes the connection pool
func (r *SeatRepository) Close() error {
	return r.db.Close()
}

// Claim locks a random free seat, marks it claimed and commits
func (r *SeatRepository) Claim(ctx context.Context, req domain.SeatRequest) (*domain.Seat, error) {
	seatType := seatTypeParam(req.SeatType)

	claimant := req.ThreadID
	if claimant == "" {
		claimant = "anonymous:" + uuid.NewString()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if req.ThreadID != "" {
		existing, err := scanSeat(tx.QueryRowContext(ctx, `
			SELECT seat_id, seat_type
			FROM seating_space
			WHERE claimed_by = ?
			  AND employee_id IS NULL
			  AND (? IS NULL OR seat_type = ?)
			ORDER BY claimed_at
			LIMIT 1
		`, claimant, seatType, seatType))
		if err != nil {
			return nil, fmt.Errorf("failed to look up existing claim: %w", err)
		}
		if existing != nil {
			return existing, tx.Commit()
		}
	}

	seat, err := scanSeat(tx.QueryRowContext(ctx, `
		SELECT seat_id, seat_type
		FROM seating_space
		WHERE employee_id IS NULL
		  AND claimed_by IS NULL
		  AND (? IS NULL OR seat_type = ?)
		ORDER BY RAND()
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`, seatType, seatType))
	if err != nil {
		return nil, fmt.Errorf("failed to select seat: %w", err)
	}
	if seat == nil {
		return nil, nil
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE seating_space
		SET claimed_by = ?, claimed_at = NOW()
		WHERE seat_id = ?
	`, claimant, seat.ID); err != nil {
		return nil, fmt.Errorf("failed to claim seat: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}
	return seat, nil
}

// Peek selects a random free seat without reserving it
func (r *SeatRepository) Peek(ctx context.Context, req domain.SeatRequest) (*domain.Seat, error) {
	seatType := seatTypeParam(req.SeatType)
	seat, err := scanSeat(r.db.QueryRowContext(ctx, `
		SELECT seat_id, seat_type
		FROM seating_space
		WHERE employee_id IS NULL
		  AND (? IS NULL OR seat_type = ?)
		ORDER BY RAND()
		LIMIT 1
	`, seatType, seatType))
	if err != nil {
		return nil, fmt.Errorf("failed to select seat: %w", err)
	}
	return seat, nil
}

func scanSeat(row *sql.Row) (*domain.Seat, error) {
	var (
		seat     domain.Seat
		seatType string
	)
	if err := row.Scan(&seat.ID, &seatType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	seat.Type = domain.SeatType(seatType)
	return &seat, nil
}

func seatTypeParam(st *domain.SeatType) sql.NullString {
	if st == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*st), Valid: true}
}
