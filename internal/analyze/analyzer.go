package analyze

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/interview-iq/backend/internal/storage/models"
	"github.com/interview-iq/backend/pkg/logger"
)

// Backend is the NLP service behind the analyzer. Each call receives one
// chunk already sized to the backend's per-request limit.
type Backend interface {
	DetectEntities(ctx context.Context, text string) ([]models.Entity, error)
	DetectKeyPhrases(ctx context.Context, text string) ([]models.KeyPhrase, error)
	DetectSentiment(ctx context.Context, text string) (models.Sentiment, error)
}

// Analyzer chunks arbitrary-length text, fans it out to the NLP backend,
// and merges per-chunk results.
type Analyzer struct {
	backend       Backend
	maxChunkBytes int
}

func NewAnalyzer(backend Backend, maxChunkBytes int) *Analyzer {
	if maxChunkBytes <= 0 {
		maxChunkBytes = DefaultMaxChunkBytes
	}
	return &Analyzer{backend: backend, maxChunkBytes: maxChunkBytes}
}

// Analyze runs entity, key-phrase, and sentiment detection over text.
// A chunk-level backend failure is logged and skipped; it never aborts
// the remaining chunks. Sentiment is read from the first chunk only.
func (a *Analyzer) Analyze(ctx context.Context, text string) (*models.AnalysisResults, error) {
	chunks := chunkText(text, a.maxChunkBytes)
	logger.Info("Text chunked for analysis",
		zap.Int("bytes", len(text)),
		zap.Int("chunks", len(chunks)),
	)

	entities := map[string]models.Entity{}
	phrases := map[string]models.KeyPhrase{}

	for i, chunk := range chunks {
		detected, err := a.backend.DetectEntities(ctx, chunk)
		if err != nil {
			logger.Warn("Entity detection failed for chunk", zap.Int("chunk", i), zap.Error(err))
		} else {
			mergeEntities(entities, detected)
		}

		phraseList, err := a.backend.DetectKeyPhrases(ctx, chunk)
		if err != nil {
			logger.Warn("Key-phrase detection failed for chunk", zap.Int("chunk", i), zap.Error(err))
		} else {
			mergePhrases(phrases, phraseList)
		}
	}

	results := &models.AnalysisResults{
		Entities:   sortedEntities(entities),
		KeyPhrases: sortedPhrases(phrases),
		Sentiment:  a.sentiment(ctx, chunks),
	}

	logger.Info("Analysis complete",
		zap.Int("entities", len(results.Entities)),
		zap.Int("key_phrases", len(results.KeyPhrases)),
		zap.String("sentiment", results.Sentiment.Sentiment),
	)

	return results, nil
}

func (a *Analyzer) sentiment(ctx context.Context, chunks []string) models.Sentiment {
	if len(chunks) == 0 || strings.TrimSpace(chunks[0]) == "" {
		return models.Sentiment{Sentiment: models.SentimentNeutral, Scores: map[string]float64{}}
	}

	result, err := a.backend.DetectSentiment(ctx, chunks[0])
	if err != nil {
		logger.Error("Sentiment detection failed", zap.Error(err))
		return models.Sentiment{
			Sentiment: models.SentimentUnknown,
			Scores:    map[string]float64{},
			Error:     err.Error(),
		}
	}
	return result
}

// Dedup keys: type+text (case-sensitive) for entities, lowercase text
// for key phrases. On collision the higher score wins.

func mergeEntities(into map[string]models.Entity, detected []models.Entity) {
	for _, e := range detected {
		key := e.Type + ":" + e.Text
		if existing, ok := into[key]; !ok || e.Score > existing.Score {
			into[key] = e
		}
	}
}

func mergePhrases(into map[string]models.KeyPhrase, detected []models.KeyPhrase) {
	for _, p := range detected {
		key := strings.ToLower(p.Text)
		if existing, ok := into[key]; !ok || p.Score > existing.Score {
			into[key] = p
		}
	}
}

func sortedEntities(m map[string]models.Entity) []models.Entity {
	out := make([]models.Entity, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Text < out[j].Text
	})
	return out
}

func sortedPhrases(m map[string]models.KeyPhrase) []models.KeyPhrase {
	out := make([]models.KeyPhrase, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Text < out[j].Text
	})
	return out
}
