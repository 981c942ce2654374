package analyze

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interview-iq/backend/internal/storage/models"
)

type fakeBackend struct {
	entities       map[string][]models.Entity
	phrases        map[string][]models.KeyPhrase
	sentiment      models.Sentiment
	entityErr      error
	sentimentErr   error
	entityCalls    []string
	sentimentCalls []string
}

func (f *fakeBackend) DetectEntities(ctx context.Context, text string) ([]models.Entity, error) {
	f.entityCalls = append(f.entityCalls, text)
	if f.entityErr != nil {
		return nil, f.entityErr
	}
	return f.entities[text], nil
}

func (f *fakeBackend) DetectKeyPhrases(ctx context.Context, text string) ([]models.KeyPhrase, error) {
	return f.phrases[text], nil
}

func (f *fakeBackend) DetectSentiment(ctx context.Context, text string) (models.Sentiment, error) {
	f.sentimentCalls = append(f.sentimentCalls, text)
	if f.sentimentErr != nil {
		return models.Sentiment{}, f.sentimentErr
	}
	return f.sentiment, nil
}

func TestChunkTextEmpty(t *testing.T) {
	assert.Nil(t, chunkText("", 100))
	assert.Nil(t, chunkText("   \n\t  ", 100))
}

func TestChunkTextSingleChunk(t *testing.T) {
	chunks := chunkText("short text", 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0])
}

func TestChunkTextSplitsOnLines(t *testing.T) {
	text := strings.Repeat("a", 40) + "\n" + strings.Repeat("b", 40) + "\n" + strings.Repeat("c", 40)
	chunks := chunkText(text, 90)

	require.Len(t, chunks, 2)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 90)
	}
	assert.Equal(t, strings.ReplaceAll(text, "\n", ""),
		strings.ReplaceAll(strings.Join(chunks, ""), "\n", ""))
}

func TestChunkTextTruncatesOversizedLine(t *testing.T) {
	chunks := chunkText(strings.Repeat("x", 500), 100)
	require.Len(t, chunks, 1)
	assert.Len(t, chunks[0], 100)
}

func TestChunkTextTruncatesAtRuneBoundary(t *testing.T) {
	// 3-byte runes; 100 bytes falls mid-rune so the cut backs up.
	chunks := chunkText(strings.Repeat("日", 50), 100)
	require.Len(t, chunks, 1)
	assert.Len(t, chunks[0], 99)
	for _, r := range chunks[0] {
		assert.Equal(t, '日', r)
	}
}

func TestAnalyzeDedupesAcrossChunks(t *testing.T) {
	chunk1 := strings.Repeat("a", 40)
	chunk2 := strings.Repeat("b", 40)
	backend := &fakeBackend{
		entities: map[string][]models.Entity{
			chunk1: {
				{Text: "Acme", Type: "ORGANIZATION", Score: 0.8},
				{Text: "Dana", Type: "PERSON", Score: 0.9},
			},
			chunk2: {
				{Text: "Acme", Type: "ORGANIZATION", Score: 0.95},
			},
		},
		phrases: map[string][]models.KeyPhrase{
			chunk1: {{Text: "Virtual Power Plant", Score: 0.7}},
			chunk2: {{Text: "virtual power plant", Score: 0.9}},
		},
		sentiment: models.Sentiment{Sentiment: models.SentimentPositive, Scores: map[string]float64{"Positive": 0.9}},
	}

	analyzer := NewAnalyzer(backend, 41)
	results, err := analyzer.Analyze(context.Background(), chunk1+"\n"+chunk2)
	require.NoError(t, err)

	require.Len(t, results.Entities, 2)
	assert.Equal(t, "Acme", results.Entities[0].Text)
	assert.Equal(t, 0.95, results.Entities[0].Score)
	assert.Equal(t, "Dana", results.Entities[1].Text)

	// Case-insensitive phrase dedup keeps the higher score.
	require.Len(t, results.KeyPhrases, 1)
	assert.Equal(t, 0.9, results.KeyPhrases[0].Score)
}

func TestAnalyzeSentimentFirstChunkOnly(t *testing.T) {
	chunk1 := strings.Repeat("a", 40)
	chunk2 := strings.Repeat("b", 40)
	backend := &fakeBackend{
		sentiment: models.Sentiment{Sentiment: models.SentimentNegative, Scores: map[string]float64{}},
	}

	analyzer := NewAnalyzer(backend, 41)
	results, err := analyzer.Analyze(context.Background(), chunk1+"\n"+chunk2)
	require.NoError(t, err)

	require.Len(t, backend.sentimentCalls, 1)
	assert.Equal(t, chunk1, backend.sentimentCalls[0])
	assert.Equal(t, models.SentimentNegative, results.Sentiment.Sentiment)
}

func TestAnalyzeEmptyInput(t *testing.T) {
	backend := &fakeBackend{}
	analyzer := NewAnalyzer(backend, 0)

	results, err := analyzer.Analyze(context.Background(), "   ")
	require.NoError(t, err)

	assert.Empty(t, results.Entities)
	assert.Empty(t, results.KeyPhrases)
	assert.Equal(t, models.SentimentNeutral, results.Sentiment.Sentiment)
	assert.NotNil(t, results.Sentiment.Scores)
	assert.Empty(t, backend.sentimentCalls)
}

func TestAnalyzeSentimentBackendFailure(t *testing.T) {
	backend := &fakeBackend{sentimentErr: errors.New("throttled")}
	analyzer := NewAnalyzer(backend, 0)

	results, err := analyzer.Analyze(context.Background(), "some text")
	require.NoError(t, err)

	assert.Equal(t, models.SentimentUnknown, results.Sentiment.Sentiment)
	assert.Equal(t, "throttled", results.Sentiment.Error)
	assert.NotNil(t, results.Sentiment.Scores)
}

func TestAnalyzeEntityFailureDoesNotAbort(t *testing.T) {
	backend := &fakeBackend{
		entityErr: errors.New("backend down"),
		sentiment: models.Sentiment{Sentiment: models.SentimentNeutral, Scores: map[string]float64{}},
	}
	analyzer := NewAnalyzer(backend, 0)

	results, err := analyzer.Analyze(context.Background(), "some text")
	require.NoError(t, err)
	assert.Empty(t, results.Entities)
	assert.Equal(t, models.SentimentNeutral, results.Sentiment.Sentiment)
}

func TestAnalyzeResultsSortedByScore(t *testing.T) {
	backend := &fakeBackend{
		entities: map[string][]models.Entity{
			"text": {
				{Text: "B", Type: "OTHER", Score: 0.5},
				{Text: "A", Type: "OTHER", Score: 0.5},
				{Text: "C", Type: "OTHER", Score: 0.9},
			},
		},
		sentiment: models.Sentiment{Sentiment: models.SentimentNeutral, Scores: map[string]float64{}},
	}
	analyzer := NewAnalyzer(backend, 0)

	results, err := analyzer.Analyze(context.Background(), "text")
	require.NoError(t, err)

	require.Len(t, results.Entities, 3)
	assert.Equal(t, "C", results.Entities[0].Text)
	// Equal scores tie-break on text.
	assert.Equal(t, "A", results.Entities[1].Text)
	assert.Equal(t, "B", results.Entities[2].Text)
}
