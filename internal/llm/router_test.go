package llm_test

import (
	"testing"

	"github.com/Rrens/onboarding-agent/internal/llm"
	"github.com/Rrens/onboarding-agent/internal/llm/deepseek"
	"github.com/Rrens/onboarding-agent/internal/llm/ollama"
	"github.com/Rrens/onboarding-agent/internal/llm/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter(t *testing.T) {
	r := llm.NewRouter("openai",
		openai.NewProvider("", "", ""),
		deepseek.NewProvider("ds-key", ""),
	)
	r.Register(ollama.NewProvider("http://localhost:11434", ""))

	assert.Equal(t, "openai", r.Preferred())
	assert.Equal(t, []string{"deepseek", "ollama"}, r.Available())

	_, err := r.Resolve("")
	assert.ErrorIs(t, err, llm.ErrProviderNotConfigured)

	_, err = r.Resolve("gemini")
	assert.ErrorIs(t, err, llm.ErrProviderNotFound)
	assert.ErrorContains(t, err, "available: [deepseek ollama]")

	p, err := r.Resolve("deepseek")
	require.NoError(t, err)
	assert.Equal(t, "deepseek-chat", p.DefaultModel())

	infos := r.Catalog()
	require.Len(t, infos, 3)
	assert.Equal(t, "deepseek", infos[0].Name)
	assert.Equal(t, "openai", infos[2].Name)
	assert.True(t, infos[2].Preferred)
	assert.False(t, infos[2].Configured)
	assert.Equal(t, "llama3.1", infos[1].DefaultModel)
}
