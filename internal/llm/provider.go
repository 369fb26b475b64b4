package llm

import (
	"context"
	"errors"

	"github.com/Rrens/onboarding-agent/internal/domain"
)

// ErrEmptyResponse is returned when a provider answers without any choice
var ErrEmptyResponse = errors.New("empty response from provider")

// ToolDefinition describes a callable tool to the model.
// Parameters is a JSON schema object.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request contains a chat completion request
type Request struct {
	Messages    []domain.Message
	Tools       []ToolDefinition
	Temperature float64
	MaxTokens   int
}

// Response contains LLM generation result
type Response struct {
	Message    domain.Message
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// AvailableModels returns list of supported models
	AvailableModels() []string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Chat sends the conversation and returns the assistant message, which
	// may carry tool calls when tools were offered.
	Chat(ctx context.Context, req Request, model string) (*Response, error)
}
