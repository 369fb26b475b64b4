package seating

import (
	"context"
	"errors"
	"time"

	"github.com/Rrens/onboarding-agent/internal/domain"
	"github.com/rs/zerolog/log"
)

// Messages returned to the model when no seat could be assigned
const (
	MsgNoSeat      = "No available seating space."
	MsgUnavailable = "Seat assignment is temporarily unavailable."
	MsgTimedOut    = "Seat assignment timed out."
)

// ClaimMode selects how a free seat is taken from the pool
type ClaimMode string

const (
	// ClaimAtomic selects and reserves the seat in one statement
	ClaimAtomic ClaimMode = "atomic"
	// ClaimReadOnly only reads a free seat; concurrent callers may get the same one
	ClaimReadOnly ClaimMode = "read_only"
)

// Gateway assigns seats. Implementations never fail: every problem is
// reported as an ok:false result.
type Gateway interface {
	AssignSeat(ctx context.Context, req domain.SeatRequest) domain.ToolResult
}

// Service is the in-process gateway backed by a seat repository
type Service struct {
	repo    domain.SeatRepository
	mode    ClaimMode
	timeout time.Duration
}

// NewService creates a new seating service
func NewService(repo domain.SeatRepository, mode ClaimMode, timeout time.Duration) *Service {
	if mode == "" {
		mode = ClaimAtomic
	}
	return &Service{
		repo:    repo,
		mode:    mode,
		timeout: timeout,
	}
}

// AssignSeat picks a free seat matching the request
func (s *Service) AssignSeat(ctx context.Context, req domain.SeatRequest) domain.ToolResult {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var (
		seat *domain.Seat
		err  error
	)
	if s.mode == ClaimReadOnly {
		seat, err = s.repo.Peek(ctx, req)
	} else {
		seat, err = s.repo.Claim(ctx, req)
	}

	logger := log.With().Str("thread_id", req.ThreadID).Str("claim_mode", string(s.mode)).Logger()

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn().Err(err).Msg("Seat assignment timed out")
			return domain.SeatFailure(MsgTimedOut)
		}
		logger.Error().Err(err).Msg("Seat assignment failed")
		return domain.SeatFailure(MsgUnavailable)
	}

	if seat == nil {
		return domain.SeatFailure(MsgNoSeat)
	}

	if !req.Matches(seat) {
		logger.Error().Int64("seat_id", seat.ID).Str("seat_type", string(seat.Type)).Msg("Repository returned seat outside filter")
		return domain.SeatFailure(MsgUnavailable)
	}

	logger.Info().Int64("seat_id", seat.ID).Str("seat_type", string(seat.Type)).Msg("Seat assigned")
	return domain.SeatAssigned(seat)
}
