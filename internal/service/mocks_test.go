package service

import (
	"context"

	"github.com/Rrens/onboarding-agent/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockSessionStore mocks the domain.SessionStore interface
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) LoadOrInit(ctx context.Context, threadID string) (*domain.Session, error) {
	args := m.Called(ctx, threadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionStore) Checkpoint(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	if args.Error(0) == nil {
		session.Version++
	}
	return args.Error(0)
}

// MockAdvancer mocks the turn router
type MockAdvancer struct {
	mock.Mock
}

func (m *MockAdvancer) Advance(ctx context.Context, session *domain.Session, userText string) (*domain.Session, error) {
	args := m.Called(ctx, session, userText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

// MockEmployeeRepository mocks the domain.EmployeeRepository interface
type MockEmployeeRepository struct {
	mock.Mock
}

func (m *MockEmployeeRepository) GetByThread(ctx context.Context, threadID string) (*domain.Employee, error) {
	args := m.Called(ctx, threadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) Save(ctx context.Context, e *domain.Employee) error {
	args := m.Called(ctx, e)
	if args.Error(0) == nil && e.ID == nil {
		id := int64(42)
		e.ID = &id
	}
	return args.Error(0)
}

// MockSeatAttacher mocks SeatAttacher
type MockSeatAttacher struct {
	mock.Mock
}

func (m *MockSeatAttacher) AttachEmployee(ctx context.Context, threadID string, employeeID int64) (int64, error) {
	args := m.Called(ctx, threadID, employeeID)
	return args.Get(0).(int64), args.Error(1)
}
