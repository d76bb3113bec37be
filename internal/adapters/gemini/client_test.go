package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"google.golang.org/genai"
)

func TestStripCodeFences(t *testing.T) {
	// --- respuestas con y sin fence markdown ---
	assert.Equal(t, `{"a":1}`, stripCodeFences(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, stripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences("  {\"a\":1}  "))
}

func TestToGenaiSchema(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
			"figures": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "number"},
			},
			"days": map[string]any{"type": []any{"integer", "null"}},
		},
		"required": []any{"name", "figures"},
	}

	out, err := toGenaiSchema(schema)
	require.NoError(t, err)

	assert.Equal(t, genai.TypeObject, out.Type)
	assert.Equal(t, genai.TypeString, out.Properties["name"].Type)
	assert.Equal(t, genai.TypeArray, out.Properties["figures"].Type)
	assert.Equal(t, genai.TypeNumber, out.Properties["figures"].Items.Type)
	require.NotNil(t, out.Properties["days"].Nullable)
	assert.True(t, *out.Properties["days"].Nullable)
	assert.ElementsMatch(t, []string{"name", "figures"}, out.Required)
}

func TestToGenaiSchemaRejectsUnknownType(t *testing.T) {
	_, err := toGenaiSchema(map[string]any{"type": "tuple"})
	require.Error(t, err)

	_, err = toGenaiSchema("not a map")
	require.Error(t, err)
}
