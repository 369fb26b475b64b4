package seating

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Rrens/onboarding-agent/internal/domain"
	"github.com/tmc/langchaingo/tools"
)

// ToolName is the name the model uses to request a seat
const ToolName = "assign_seating_space"

const toolDescription = "Assign an available seat to the employee, optionally of a given seat_type. " +
	`Returns {"ok": bool, "seat_id": int?, "seat_type": string?, "message": string?}.`

var _ tools.Tool = (*AssignSeatingTool)(nil)

// AssignSeatingTool exposes a Gateway as a langchaingo tool
type AssignSeatingTool struct {
	gateway Gateway
}

// NewAssignSeatingTool creates the tool around gateway
func NewAssignSeatingTool(gateway Gateway) *AssignSeatingTool {
	return &AssignSeatingTool{gateway: gateway}
}

func (t *AssignSeatingTool) Name() string {
	return ToolName
}

func (t *AssignSeatingTool) Description() string {
	return toolDescription
}

// Parameters returns the JSON schema of the tool input
func (t *AssignSeatingTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"seat_type": map[string]any{
				"type":        "string",
				"enum":        []string{string(domain.SeatTypeCabin), string(domain.SeatTypeCubicle)},
				"description": "Preferred seat type. Omit to accept any type.",
			},
		},
	}
}

type toolInput struct {
	SeatType *string `json:"seat_type"`
}

// Call parses the JSON input, assigns a seat and returns the JSON result.
// Bad input is answered with an ok:false result rather than an error.
func (t *AssignSeatingTool) Call(ctx context.Context, input string) (string, error) {
	var in toolInput
	if strings.TrimSpace(input) != "" {
		if err := json.Unmarshal([]byte(input), &in); err != nil {
			return encodeResult(domain.SeatFailure(fmt.Sprintf("invalid arguments: %v", err)))
		}
	}

	var raw string
	if in.SeatType != nil {
		raw = *in.SeatType
	}
	seatType, err := domain.ParseSeatType(raw)
	if err != nil {
		return encodeResult(domain.SeatFailure(err.Error()))
	}

	threadID, _ := domain.ThreadIDFromContext(ctx)
	return encodeResult(t.gateway.AssignSeat(ctx, domain.SeatRequest{
		ThreadID: threadID,
		SeatType: seatType,
	}))
}

func encodeResult(res domain.ToolResult) (string, error) {
	raw, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("failed to encode tool result: %w", err)
	}
	return string(raw), nil
}
