package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/onboarding-agent/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EmployeeRepository implements domain.EmployeeRepository
type EmployeeRepository struct {
	pool *pgxpool.Pool
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(pool *pgxpool.Pool) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

func (r *EmployeeRepository) GetByThread(ctx context.Context, threadID string) (*domain.Employee, error) {
	query := `
		SELECT employee_id, thread_id, COALESCE(name, ''), COALESCE(email, ''), COALESCE(phone, ''),
		       COALESCE(address, ''), COALESCE(seat_pref, ''), COALESCE(os_requirement, ''),
		       COALESCE(primary_equipment, ''), notes, confirmed, updated_at
		FROM onboarding.employees
		WHERE thread_id = $1
	`
	var (
		e  domain.Employee
		id int64
	)
	err := r.pool.QueryRow(ctx, query, threadID).Scan(
		&id,
		&e.ThreadID,
		&e.Name,
		&e.Email,
		&e.Phone,
		&e.Address,
		&e.SeatPref,
		&e.OSRequirement,
		&e.PrimaryEquipment,
		&e.Notes,
		&e.Confirmed,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	e.ID = &id
	return &e, nil
}

// Save inserts or updates the record keyed by thread id and fills in its ID
func (r *EmployeeRepository) Save(ctx context.Context, e *domain.Employee) error {
	query := `
		INSERT INTO onboarding.employees (
			thread_id, name, email, phone, address, seat_pref, os_requirement,
			primary_equipment, notes, confirmed, updated_at
		)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''),
		        NULLIF($7, ''), NULLIF($8, ''), $9, $10, NOW())
		ON CONFLICT (thread_id) DO UPDATE
		SET name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			seat_pref = EXCLUDED.seat_pref,
			os_requirement = EXCLUDED.os_requirement,
			primary_equipment = EXCLUDED.primary_equipment,
			notes = EXCLUDED.notes,
			confirmed = EXCLUDED.confirmed,
			updated_at = EXCLUDED.updated_at
		RETURNING employee_id, updated_at
	`
	var id int64
	err := r.pool.QueryRow(ctx, query,
		e.ThreadID,
		e.Name,
		e.Email,
		e.Phone,
		e.Address,
		e.SeatPref,
		e.OSRequirement,
		e.PrimaryEquipment,
		e.Notes,
		e.Confirmed,
	).Scan(&id, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	e.ID = &id
	return nil
}
