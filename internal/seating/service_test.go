package seating

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Rrens/onboarding-agent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSeatRepository mocks the domain.SeatRepository interface
type MockSeatRepository struct {
	mock.Mock
}

func (m *MockSeatRepository) Claim(ctx context.Context, req domain.SeatRequest) (*domain.Seat, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Seat), args.Error(1)
}

func (m *MockSeatRepository) Peek(ctx context.Context, req domain.SeatRequest) (*domain.Seat, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Seat), args.Error(1)
}

func cabin() *domain.SeatType {
	st := domain.SeatTypeCabin
	return &st
}

func TestService_AssignSeat(t *testing.T) {
	ctx := context.Background()

	t.Run("atomic claim", func(t *testing.T) {
		repo := new(MockSeatRepository)
		req := domain.SeatRequest{ThreadID: "alice-1", SeatType: cabin()}
		repo.On("Claim", mock.Anything, req).Return(&domain.Seat{ID: 7, Type: domain.SeatTypeCabin}, nil)

		res := NewService(repo, ClaimAtomic, time.Second).AssignSeat(ctx, req)
		require.True(t, res.OK)
		assert.Equal(t, int64(7), *res.SeatID)
		assert.Equal(t, "cabin", *res.SeatType)
		repo.AssertNotCalled(t, "Peek", mock.Anything, mock.Anything)
	})

	t.Run("read only peeks", func(t *testing.T) {
		repo := new(MockSeatRepository)
		req := domain.SeatRequest{ThreadID: "alice-1"}
		repo.On("Peek", mock.Anything, req).Return(&domain.Seat{ID: 3, Type: domain.SeatTypeCubicle}, nil)

		res := NewService(repo, ClaimReadOnly, 0).AssignSeat(ctx, req)
		assert.True(t, res.OK)
		repo.AssertNotCalled(t, "Claim", mock.Anything, mock.Anything)
	})

	t.Run("empty pool", func(t *testing.T) {
		repo := new(MockSeatRepository)
		repo.On("Claim", mock.Anything, mock.Anything).Return(nil, nil)

		res := NewService(repo, ClaimAtomic, 0).AssignSeat(ctx, domain.SeatRequest{})
		assert.Equal(t, domain.SeatFailure(MsgNoSeat), res)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := new(MockSeatRepository)
		repo.On("Claim", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

		res := NewService(repo, ClaimAtomic, 0).AssignSeat(ctx, domain.SeatRequest{})
		assert.Equal(t, domain.SeatFailure(MsgUnavailable), res)
	})

	t.Run("timeout", func(t *testing.T) {
		repo := new(MockSeatRepository)
		repo.On("Claim", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				<-args.Get(0).(context.Context).Done()
			}).
			Return(nil, context.DeadlineExceeded)

		res := NewService(repo, ClaimAtomic, 10*time.Millisecond).AssignSeat(ctx, domain.SeatRequest{})
		assert.Equal(t, domain.SeatFailure(MsgTimedOut), res)
	})

	t.Run("seat outside filter is rejected", func(t *testing.T) {
		repo := new(MockSeatRepository)
		repo.On("Claim", mock.Anything, mock.Anything).Return(&domain.Seat{ID: 3, Type: domain.SeatTypeCubicle}, nil)

		res := NewService(repo, ClaimAtomic, 0).AssignSeat(ctx, domain.SeatRequest{SeatType: cabin()})
		assert.False(t, res.OK)
		assert.Nil(t, res.SeatID)
	})
}
