package agent

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/Rrens/onboarding-agent/internal/domain"
	"github.com/Rrens/onboarding-agent/internal/llm"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/tools"
)

// Tool is a langchaingo tool that also publishes a JSON schema for its input
type Tool interface {
	tools.Tool
	Parameters() map[string]any
}

// Toolbox is the registry of tools the model may call
type Toolbox struct {
	tools map[string]Tool
}

// NewToolbox creates a toolbox holding the given tools
func NewToolbox(ts ...Tool) *Toolbox {
	tb := &Toolbox{tools: make(map[string]Tool, len(ts))}
	for _, t := range ts {
		tb.tools[t.Name()] = t
	}
	return tb
}

// Definitions describes every registered tool to the model
func (tb *Toolbox) Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(tb.tools))
	for _, t := range tb.tools {
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Execute runs one tool call and returns the tool-role message answering it.
// Failures are reported to the model as an ok:false result.
func (tb *Toolbox) Execute(ctx context.Context, call domain.ToolCall) domain.Message {
	reply := func(content string) domain.Message {
		msg := domain.NewMessage(domain.RoleTool, content)
		msg.ToolCallID = call.ID
		msg.Name = call.Name
		return msg
	}

	t, ok := tb.tools[call.Name]
	if !ok {
		log.Warn().Str("tool", call.Name).Msg("Model requested unknown tool")
		return reply(failureJSON("unknown tool: " + call.Name))
	}

	input := call.Arguments
	if input == "" {
		input = "{}"
	}

	start := time.Now()
	out, err := t.Call(ctx, input)
	if err != nil {
		log.Error().Err(err).Str("tool", call.Name).Msg("Tool call failed")
		return reply(failureJSON(err.Error()))
	}

	log.Debug().
		Str("tool", call.Name).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("Tool call completed")
	return reply(out)
}

func failureJSON(message string) string {
	raw, _ := json.Marshal(domain.SeatFailure(message))
	return string(raw)
}
