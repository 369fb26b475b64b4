package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Rrens/onboarding-agent/internal/domain"
	"github.com/rs/zerolog/log"
)

var (
	// ErrEmployeeNotFound is returned when a thread has no employee record
	ErrEmployeeNotFound = errors.New("employee record not found")

	// ErrAlreadyConfirmed is returned when editing a confirmed record
	ErrAlreadyConfirmed = errors.New("employee record already confirmed")
)

// SeatAttacher binds seats claimed by a thread to a stored employee
type SeatAttacher interface {
	AttachEmployee(ctx context.Context, threadID string, employeeID int64) (int64, error)
}

// EmployeeService manages the onboarding record collected for a thread
type EmployeeService struct {
	repo  domain.EmployeeRepository
	seats SeatAttacher
}

// NewEmployeeService creates a new employee service. seats may be nil when
// the seating backend is not the local database.
func NewEmployeeService(repo domain.EmployeeRepository, seats SeatAttacher) *EmployeeService {
	return &EmployeeService{repo: repo, seats: seats}
}

// Get returns the record of threadID
func (s *EmployeeService) Get(ctx context.Context, threadID string) (*domain.Employee, error) {
	e, err := s.repo.GetByThread(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	if e == nil {
		return nil, ErrEmployeeNotFound
	}
	return e, nil
}

// UpdateFields validates and applies each field, creating the record on
// first use. Nothing is saved if any field is rejected.
func (s *EmployeeService) UpdateFields(ctx context.Context, threadID string, fields map[string]string) (*domain.Employee, error) {
	e, err := s.repo.GetByThread(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	if e == nil {
		e = &domain.Employee{ThreadID: threadID}
	}
	if e.Confirmed {
		return nil, ErrAlreadyConfirmed
	}

	for key, value := range fields {
		if err := e.UpdateField(key, value); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to save employee: %w", err)
	}
	return e, nil
}

// UpdateField applies a single field
func (s *EmployeeService) UpdateField(ctx context.Context, threadID, key, value string) (*domain.Employee, error) {
	return s.UpdateFields(ctx, threadID, map[string]string{key: value})
}

// Confirm marks a complete record as confirmed and turns the thread's
// seat claim into an assignment.
func (s *EmployeeService) Confirm(ctx context.Context, threadID string) (*domain.Employee, error) {
	e, err := s.Get(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if e.Confirmed {
		return e, nil
	}
	if missing := e.MissingFields(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", domain.ErrIncompleteRecord, strings.Join(missing, ", "))
	}
	if !e.IsReadyForInsert() {
		return nil, fmt.Errorf("%w: invalid fields", domain.ErrIncompleteRecord)
	}

	e.Confirmed = true
	if err := s.repo.Save(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to save employee: %w", err)
	}

	if s.seats != nil && e.ID != nil {
		n, err := s.seats.AttachEmployee(ctx, threadID, *e.ID)
		if err != nil {
			log.Error().Err(err).Str("thread_id", threadID).Msg("failed to attach claimed seat")
		} else if n > 0 {
			log.Info().Str("thread_id", threadID).Int64("employee_id", *e.ID).Msg("Seat assigned to employee")
		}
	}
	return e, nil
}
