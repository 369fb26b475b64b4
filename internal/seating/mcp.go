package seating

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/onboarding-agent/internal/domain"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
)

// NewMCPServer exposes gateway as an MCP server with a single tool
func NewMCPServer(gateway Gateway, version string) *server.MCPServer {
	s := server.NewMCPServer("onboarding-seating", version, server.WithToolCapabilities(false))

	tool := mcp.NewTool(ToolName,
		mcp.WithDescription(toolDescription),
		mcp.WithString("seat_type",
			mcp.Description("Preferred seat type. Omit to accept any type."),
			mcp.Enum(string(domain.SeatTypeCabin), string(domain.SeatTypeCubicle)),
		),
		mcp.WithString("thread_id",
			mcp.Description("Conversation thread the seat is claimed for."),
		),
	)
	s.AddTool(tool, assignHandler(gateway))
	return s
}

func assignHandler(gateway Gateway) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var res domain.ToolResult
		seatType, err := domain.ParseSeatType(req.GetString("seat_type", ""))
		if err != nil {
			res = domain.SeatFailure(err.Error())
		} else {
			res = gateway.AssignSeat(ctx, domain.SeatRequest{
				ThreadID: req.GetString("thread_id", ""),
				SeatType: seatType,
			})
		}

		raw, err := json.Marshal(res)
		if err != nil {
			return nil, fmt.Errorf("failed to encode tool result: %w", err)
		}
		return mcp.NewToolResultText(string(raw)), nil
	}
}

// MCPGateway assigns seats by calling a remote MCP seating server
type MCPGateway struct {
	client  *client.Client
	timeout time.Duration
}

// DialMCPGateway connects to the streamable HTTP endpoint at url
func DialMCPGateway(ctx context.Context, url string, timeout time.Duration) (*MCPGateway, error) {
	c, err := client.NewStreamableHttpClient(url)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp client: %w", err)
	}
	return NewMCPGateway(ctx, c, timeout)
}

// NewMCPGateway starts and initializes c
func NewMCPGateway(ctx context.Context, c *client.Client, timeout time.Duration) (*MCPGateway, error) {
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start mcp client: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "onboarding-agent",
		Version: "1.0.0",
	}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize mcp session: %w", err)
	}

	return &MCPGateway{client: c, timeout: timeout}, nil
}

// Close closes the MCP session
func (g *MCPGateway) Close() error {
	return g.client.Close()
}

// AssignSeat calls the remote assign_seating_space tool
func (g *MCPGateway) AssignSeat(ctx context.Context, req domain.SeatRequest) domain.ToolResult {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	args := map[string]any{"thread_id": req.ThreadID}
	if req.SeatType != nil {
		args["seat_type"] = string(*req.SeatType)
	}

	callReq := mcp.CallToolRequest{}
	callReq.Params.Name = ToolName
	callReq.Params.Arguments = args

	logger := log.With().Str("thread_id", req.ThreadID).Str("tool_source", "remote_service").Logger()

	result, err := g.client.CallTool(ctx, callReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warn().Err(err).Msg("Remote seat assignment timed out")
			return domain.SeatFailure(MsgTimedOut)
		}
		logger.Error().Err(err).Msg("Remote seat assignment failed")
		return domain.SeatFailure(MsgUnavailable)
	}

	res, err := decodeResult(result)
	if err != nil {
		logger.Error().Err(err).Msg("Remote seat assignment returned malformed result")
		return domain.SeatFailure(MsgUnavailable)
	}
	if res.OK && (res.SeatID == nil || res.SeatType == nil) {
		logger.Error().Msg("Remote seat assignment returned ok without seat")
		return domain.SeatFailure(MsgUnavailable)
	}
	if res.OK && req.SeatType != nil && *res.SeatType != string(*req.SeatType) {
		logger.Error().Str("seat_type", *res.SeatType).Msg("Remote seat assignment ignored filter")
		return domain.SeatFailure(MsgUnavailable)
	}
	return res
}

func decodeResult(result *mcp.CallToolResult) (domain.ToolResult, error) {
	var res domain.ToolResult
	for _, content := range result.Content {
		var text string
		switch c := content.(type) {
		case mcp.TextContent:
			text = c.Text
		case *mcp.TextContent:
			text = c.Text
		default:
			continue
		}
		if result.IsError {
			return domain.SeatFailure(text), nil
		}
		if err := json.Unmarshal([]byte(text), &res); err != nil {
			return res, fmt.Errorf("failed to decode tool result: %w", err)
		}
		return res, nil
	}
	return res, errors.New("tool result has no text content")
}
