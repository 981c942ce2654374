package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interview-iq/backend/internal/storage/models"
)

type scriptedCompleter struct {
	responses []string
	err       error
	requests  []CompletionRequest
}

func (c *scriptedCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	c.requests = append(c.requests, req)
	if c.err != nil {
		return "", c.err
	}
	if len(c.responses) == 0 {
		return "", errors.New("no scripted response")
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

func validProfileJSON() string {
	profile := map[string]any{
		"name":        "GridFlex Energy",
		"industry":    "Energy",
		"region":      "Texas",
		"stage":       "growth",
		"description": "Virtual power plant operator.",
		"business_model": map[string]any{
			"type":            "B2B services",
			"revenue_streams": []string{"ancillary services", "SaaS"},
		},
		"key_people":       []any{map[string]any{"name": "Dana Whitfield", "role": "CEO"}},
		"competitors":      []string{"other VPP aggregators"},
		"key_initiatives":  []string{"utility partnerships"},
		"risks":            []string{"regulatory uncertainty"},
		"hypotheses":       []string{"growth depends on DER participation rules"},
		"confidence_level": "high",
	}
	data, _ := json.Marshal(profile)
	return string(data)
}

func TestGenerateProfileParsesValidResponse(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{validProfileJSON()}}
	svc := NewService(completer)

	result, err := svc.GenerateProfile(context.Background(), "GridFlex Energy", nil, nil, nil)
	require.NoError(t, err)

	assert.False(t, result.Degraded)
	assert.Equal(t, "GridFlex Energy", result.Artifact["name"])
	require.Len(t, completer.requests, 1)
	assert.InDelta(t, profileTemperature, completer.requests[0].Temperature, 0.001)
}

func TestGenerateProfileFallsBackOnGarbage(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{"I could not produce JSON, sorry."}}
	svc := NewService(completer)

	scraped := &models.ScrapeSummary{Name: "Acme Corporation", Description: "Industrial manufacturer."}
	result, err := svc.GenerateProfile(context.Background(), "Acme", scraped, nil, nil)
	require.NoError(t, err)

	assert.True(t, result.Degraded)
	assert.Equal(t, "Acme Corporation", result.Artifact["name"])
	assert.Equal(t, "low", result.Artifact["confidence_level"])
	assert.NoError(t, validateShape(profileSchema, result.Artifact))
}

func TestGenerateProfileFallsBackOnSchemaViolation(t *testing.T) {
	// Valid JSON, but stage is outside the enum.
	completer := &scriptedCompleter{responses: []string{`{"name": "Acme", "stage": "zombie"}`}}
	svc := NewService(completer)

	result, err := svc.GenerateProfile(context.Background(), "Acme", nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, result.Degraded)
	assert.NoError(t, validateShape(profileSchema, result.Artifact))
}

func TestGenerateProfilePropagatesTransportError(t *testing.T) {
	completer := &scriptedCompleter{err: errors.New("connection refused")}
	svc := NewService(completer)

	_, err := svc.GenerateProfile(context.Background(), "Acme", nil, nil, nil)
	require.Error(t, err)
}

func TestGenerateQuestionsParsesValidResponse(t *testing.T) {
	raw := `{"questions": [
		{"id": "q1", "question": "How did the ERCOT background shape the company?",
		 "category": "rapport", "depth": "surface", "rationale": "CEO background", "follow_ups": []}
	]}`
	completer := &scriptedCompleter{responses: []string{raw}}
	svc := NewService(completer)

	result, err := svc.GenerateQuestions(context.Background(), map[string]any{"name": "GridFlex"}, nil, 10)
	require.NoError(t, err)

	assert.False(t, result.Degraded)
	require.Len(t, result.Artifact, 1)
	assert.Equal(t, "q1", result.Artifact[0].ID)
	assert.InDelta(t, questionsTemperature, completer.requests[0].Temperature, 0.001)
}

func TestGenerateQuestionsFallbackCompositionAndShape(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{"not json"}}
	svc := NewService(completer)

	result, err := svc.GenerateQuestions(context.Background(), map[string]any{"name": "Acme"}, nil, 0)
	require.NoError(t, err)
	require.True(t, result.Degraded)

	byCategory := map[string]int{}
	for i, q := range result.Artifact {
		byCategory[q.Category]++
		assert.Equal(t, fmt.Sprintf("q%d", i+1), q.ID)
	}
	assert.GreaterOrEqual(t, byCategory[models.CategoryRapport], 3)
	assert.GreaterOrEqual(t, byCategory[models.CategoryCorrections], 2)

	assert.NoError(t, validateShape(questionsSchema, map[string]any{"questions": result.Artifact}))
}

func TestGenerateBriefFallbackEchoesQuestions(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{"```json\n{\"broken\": \n```"}}
	svc := NewService(completer)

	questions := []models.Question{
		{ID: "q1", Question: "What changed after the funding round?", Category: models.CategoryBusinessModel, Depth: models.DepthDeep, FollowUps: []string{}},
	}
	result, err := svc.GenerateBrief(context.Background(), map[string]any{"description": "desc"}, questions, nil)
	require.NoError(t, err)

	require.True(t, result.Degraded)
	assert.NoError(t, validateShape(briefSchema, result.Artifact))

	refs, ok := result.Artifact["questions"].([]any)
	require.True(t, ok)
	require.Len(t, refs, 1)
	ref, ok := refs[0].(models.QuestionRef)
	require.True(t, ok)
	assert.Equal(t, "q1", ref.ID)
	assert.Equal(t, models.CategoryBusinessModel, ref.Topic)
}

func TestGeneratePacketSendsSimplifiedProjection(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{"not json"}}
	svc := NewService(completer)

	questions := []models.Question{
		{ID: "q1", Question: "Why Texas first?", Category: models.CategoryMarket, Depth: models.DepthDeep,
			Rationale: "internal only", FollowUps: []string{"What about other ISOs?"}},
	}
	result, err := svc.GenerateIntervieweePacket(context.Background(), map[string]any{"description": "desc"}, questions)
	require.NoError(t, err)

	require.Len(t, completer.requests, 1)
	assert.NotContains(t, completer.requests[0].User, "internal only")
	assert.NotContains(t, completer.requests[0].User, "other ISOs")
	assert.Contains(t, completer.requests[0].User, "Why Texas first?")

	require.True(t, result.Degraded)
	assert.NoError(t, validateShape(packetSchema, result.Artifact))
}
