package deepseek

import (
	"github.com/Rrens/onboarding-agent/internal/llm/openai"
)

const baseURL = "https://api.deepseek.com/v1"

// NewProvider creates a DeepSeek provider. DeepSeek speaks the OpenAI chat
// completions protocol including function calling.
func NewProvider(apiKey, defaultModel string) *openai.Provider {
	if defaultModel == "" {
		defaultModel = "deepseek-chat"
	}
	return openai.NewCompatible("deepseek", apiKey, defaultModel, baseURL, []string{
		"deepseek-chat",
		"deepseek-reasoner",
	})
}
