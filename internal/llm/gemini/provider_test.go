package gemini

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSchema(t *testing.T) {
	s := toSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"seat_type": map[string]any{
				"type":        "string",
				"description": "cabin or cubicle",
				"enum":        []any{"cabin", "cubicle"},
			},
			"count": map[string]any{"type": "integer"},
		},
		"required": []string{"seat_type"},
	})

	require.NotNil(t, s)
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{"seat_type"}, s.Required)
	require.Contains(t, s.Properties, "seat_type")
	assert.Equal(t, genai.TypeString, s.Properties["seat_type"].Type)
	assert.Equal(t, []string{"cabin", "cubicle"}, s.Properties["seat_type"].Enum)
	assert.Equal(t, "cabin or cubicle", s.Properties["seat_type"].Description)
	assert.Equal(t, genai.TypeInteger, s.Properties["count"].Type)

	assert.Nil(t, toSchema(nil))
}
