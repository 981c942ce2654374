package genai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interview-iq/backend/internal/apperr"
)

func TestExtractJSONWholeText(t *testing.T) {
	doc, err := ExtractJSON(`  {"a": 1}  `)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, string(doc))
}

func TestExtractJSONFencedBlock(t *testing.T) {
	raw := "Here is the result:\n```json\n{\"a\": 1}\n```\nLet me know if you need more."
	doc, err := ExtractJSON(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, string(doc))
}

func TestExtractJSONUnlabeledFence(t *testing.T) {
	raw := "```\n{\"a\": 1}\n```"
	doc, err := ExtractJSON(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, string(doc))
}

func TestExtractJSONBraceSpan(t *testing.T) {
	raw := `Sure! The profile is {"name": "Acme", "nested": {"x": 2}} as requested.`
	doc, err := ExtractJSON(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "Acme", "nested": {"x": 2}}`, string(doc))
}

func TestExtractJSONBracketSpan(t *testing.T) {
	raw := `Here are the items: [1, 2, 3] hope that helps.`
	doc, err := ExtractJSON(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `[1, 2, 3]`, string(doc))
}

func TestExtractJSONArrayOfObjectsInProse(t *testing.T) {
	raw := `Sure! [{"id": "q1"}, {"id": "q2"}] Let me know.`
	doc, err := ExtractJSON(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id": "q1"}, {"id": "q2"}]`, string(doc))
}

func TestExtractJSONPrefersEarlierOpener(t *testing.T) {
	// The object appears first; the trailing bracket must not widen
	// the span past valid JSON.
	raw := `{"a": [1, 2]} and some trailing ] noise`
	doc, err := ExtractJSON(raw)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": [1, 2]}`, string(doc))
}

func TestExtractJSONFailure(t *testing.T) {
	for _, raw := range []string{"", "   ", "no json here", "{broken"} {
		_, err := ExtractJSON(raw)
		require.Error(t, err, "input %q", raw)
		assert.Equal(t, apperr.KindParse, apperr.KindOf(err))
	}
}

func TestAsObjectRejectsArray(t *testing.T) {
	_, err := AsObject(`[1, 2, 3]`)
	require.Error(t, err)
	assert.Equal(t, apperr.KindParse, apperr.KindOf(err))
}

func TestAsIntoDecodesTypedShape(t *testing.T) {
	var payload struct {
		Questions []struct {
			ID string `json:"id"`
		} `json:"questions"`
	}
	raw := "```json\n{\"questions\": [{\"id\": \"q1\"}]}\n```"
	require.NoError(t, AsInto(raw, &payload))
	require.Len(t, payload.Questions, 1)
	assert.Equal(t, "q1", payload.Questions[0].ID)
}
