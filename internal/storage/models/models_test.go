package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusOrdering(t *testing.T) {
	assert.True(t, StatusCreated.Advances(StatusScrapingComplete))
	assert.True(t, StatusScrapingComplete.Advances(StatusReady))
	assert.False(t, StatusReady.Advances(StatusScrapingComplete))
	assert.False(t, StatusReady.Advances(StatusReady))
}

func TestUnknownStatusNeverAdvances(t *testing.T) {
	unknown := Status("BOGUS")
	assert.Equal(t, -1, unknown.Ordinal())
	assert.False(t, StatusCreated.Advances(unknown))
	assert.True(t, unknown.Advances(StatusCreated))
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, StatusCreated.IsTerminal())
	assert.False(t, StatusAnalysisComplete.IsTerminal())
	assert.True(t, StatusReady.IsTerminal())
	assert.True(t, StatusFeedbackReceived.IsTerminal())
}

func TestFieldUpdatesIsEmpty(t *testing.T) {
	assert.True(t, FieldUpdates{}.IsEmpty())

	status := StatusReady
	assert.False(t, FieldUpdates{Status: &status}.IsEmpty())
}

func TestQuestionRefDropsInterviewerFields(t *testing.T) {
	q := Question{
		ID:        "q3",
		Question:  "What changed after the acquisition?",
		Category:  CategoryBusinessModel,
		Depth:     DepthDeep,
		Rationale: "internal",
		FollowUps: []string{"follow"},
	}

	ref := q.Ref()
	assert.Equal(t, "q3", ref.ID)
	assert.Equal(t, q.Question, ref.Question)
	assert.Equal(t, CategoryBusinessModel, ref.Topic)
}

func TestTimestampIsUTCRFC3339(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Skip("tzdata unavailable")
	}

	ts := Timestamp(time.Date(2024, 3, 1, 12, 0, 0, 0, loc))
	assert.Equal(t, "2024-03-01T18:00:00Z", ts)
}
