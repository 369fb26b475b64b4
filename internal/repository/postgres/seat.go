package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/onboarding-agent/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SeatRepository implements domain.SeatRepository
type SeatRepository struct {
	pool *pgxpool.Pool
}

// NewSeatRepository creates a new seat repository
func NewSeatRepository(pool *pgxpool.Pool) *SeatRepository {
	return &SeatRepository{pool: pool}
}

// Claim returns the thread's current claim when it satisfies the filter,
// otherwise reserves a random free seat. Locked rows are skipped so
// concurrent claimers never receive the same seat.
func (r *SeatRepository) Claim(ctx context.Context, req domain.SeatRequest) (*domain.Seat, error) {
	seatType := seatTypeParam(req.SeatType)

	claimant := req.ThreadID
	if claimant == "" {
		claimant = "anonymous:" + uuid.NewString()
	} else {
		existing, err := r.scanSeat(ctx, `
			SELECT seat_id, seat_type
			FROM onboarding.seating_space
			WHERE claimed_by = $1
			  AND employee_id IS NULL
			  AND ($2::text IS NULL OR seat_type = $2::text)
			ORDER BY claimed_at
			LIMIT 1
		`, claimant, seatType)
		if err != nil {
			return nil, fmt.Errorf("failed to look up existing claim: %w", err)
		}
		if existing != nil {
			return existing, nil
		}
	}

	seat, err := r.scanSeat(ctx, `
		UPDATE onboarding.seating_space
		SET claimed_by = $2, claimed_at = NOW()
		WHERE seat_id = (
			SELECT seat_id
			FROM onboarding.seating_space
			WHERE employee_id IS NULL
			  AND claimed_by IS NULL
			  AND ($1::text IS NULL OR seat_type = $1::text)
			ORDER BY random()
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		AND claimed_by IS NULL
		RETURNING seat_id, seat_type
	`, seatType, claimant)
	if err != nil {
		return nil, fmt.Errorf("failed to claim seat: %w", err)
	}
	return seat, nil
}

// Peek selects a random free seat without reserving it
func (r *SeatRepository) Peek(ctx context.Context, req domain.SeatRequest) (*domain.Seat, error) {
	seat, err := r.scanSeat(ctx, `
		SELECT seat_id, seat_type
		FROM onboarding.seating_space
		WHERE employee_id IS NULL
		  AND ($1::text IS NULL OR seat_type = $1::text)
		ORDER BY random()
		LIMIT 1
	`, seatTypeParam(req.SeatType))
	if err != nil {
		return nil, fmt.Errorf("failed to select seat: %w", err)
	}
	return seat, nil
}

// AttachEmployee turns the seats claimed by threadID into permanent
// assignments for employeeID
func (r *SeatRepository) AttachEmployee(ctx context.Context, threadID string, employeeID int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE onboarding.seating_space
		SET employee_id = $2
		WHERE claimed_by = $1 AND employee_id IS NULL
	`, threadID, employeeID)
	if err != nil {
		return 0, fmt.Errorf("failed to attach seats: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *SeatRepository) scanSeat(ctx context.Context, query string, args ...any) (*domain.Seat, error) {
	var (
		seat     domain.Seat
		seatType string
	)
	err := r.pool.QueryRow(ctx, query, args...).Scan(&seat.ID, &seatType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	seat.Type = domain.SeatType(seatType)
	return &seat, nil
}

func seatTypeParam(st *domain.SeatType) *string {
	if st == nil {
		return nil
	}
	s := string(*st)
	return &s
}
