package domain

import (
	"context"
	"fmt"
	"strings"
)

// SeatType represents a kind of seating space
type SeatType string

const (
	SeatTypeCabin   SeatType = "cabin"
	SeatTypeCubicle SeatType = "cubicle"
)

// ParseSeatType converts user or LLM supplied text into a SeatType.
// An empty string yields nil, meaning "any type".
func ParseSeatType(s string) (*SeatType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil, nil
	}
	st := SeatType(s)
	switch st {
	case SeatTypeCabin, SeatTypeCubicle:
		return &st, nil
	}
	return nil, fmt.Errorf("invalid seat type %q: must be cabin or cubicle", s)
}

// Seat is a single seating space record
type Seat struct {
	ID   int64    `json:"seat_id"`
	Type SeatType `json:"seat_type"`
}

// SeatRequest asks for a free seat on behalf of a thread
type SeatRequest struct {
	ThreadID string
	SeatType *SeatType
}

// Matches reports whether seat satisfies the request's type filter
func (r SeatRequest) Matches(seat *Seat) bool {
	return seat != nil && (r.SeatType == nil || *r.SeatType == seat.Type)
}

// ToolResult is the structured answer of the seat assignment tool
type ToolResult struct {
	OK       bool    `json:"ok"`
	SeatID   *int64  `json:"seat_id,omitempty"`
	SeatType *string `json:"seat_type,omitempty"`
	Message  string  `json:"message,omitempty"`
}

// SeatAssigned builds a successful result for seat
func SeatAssigned(seat *Seat) ToolResult {
	id := seat.ID
	st := string(seat.Type)
	return ToolResult{
		OK:       true,
		SeatID:   &id,
		SeatType: &st,
		Message:  fmt.Sprintf("Assigned %s seat %d.", st, id),
	}
}

// SeatFailure builds an unsuccessful result carrying a human-readable reason
func SeatFailure(message string) ToolResult {
	return ToolResult{OK: false, Message: message}
}

// SeatRepository provides access to the seating pool
type SeatRepository interface {
	// Claim atomically selects a random free seat matching the request and
	// marks it as taken by the request's thread. Returns nil, nil when no
	// eligible seat exists.
	Claim(ctx context.Context, req SeatRequest) (*Seat, error)

	// Peek selects a random free seat without reserving it.
	Peek(ctx context.Context, req SeatRequest) (*Seat, error)
}
