package analyze

import (
	"context"
	"strings"

	"github.com/jdkato/prose/v2"

	"github.com/interview-iq/backend/internal/storage/models"
	"github.com/interview-iq/backend/pkg/logger"
)

// ProseBackend is a local NLP backend built on the prose NLP library.
// It runs fully in-process, so analysis works without any external
// service credentials.
type ProseBackend struct{}

func NewProseBackend() *ProseBackend {
	logger.Info("Using in-process NLP backend")
	return &ProseBackend{}
}

// entityScore is reported for all NER hits. The underlying model does
// not expose per-entity confidence.
const entityScore = 0.9

var entityTypeByLabel = map[string]string{
	"PERSON": "PERSON",
	"GPE":    "LOCATION",
}

func (b *ProseBackend) DetectEntities(ctx context.Context, text string) ([]models.Entity, error) {
	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, err
	}

	var entities []models.Entity
	for _, ent := range doc.Entities() {
		entityType, ok := entityTypeByLabel[ent.Label]
		if !ok {
			entityType = "OTHER"
		}
		entities = append(entities, models.Entity{
			Text:  ent.Text,
			Type:  entityType,
			Score: entityScore,
		})
	}
	return entities, nil
}

// DetectKeyPhrases extracts noun phrases from POS tags. Consecutive
// adjective and noun tokens form a candidate phrase; each phrase is
// scored by its frequency relative to the most frequent phrase.
func (b *ProseBackend) DetectKeyPhrases(ctx context.Context, text string) ([]models.KeyPhrase, error) {
	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	display := map[string]string{}
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		phrase := strings.Join(current, " ")
		key := strings.ToLower(phrase)
		counts[key]++
		if _, ok := display[key]; !ok {
			display[key] = phrase
		}
		current = nil
	}

	for _, tok := range doc.Tokens() {
		if isPhraseTag(tok.Tag) {
			current = append(current, tok.Text)
			continue
		}
		flush()
	}
	flush()

	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	var phrases []models.KeyPhrase
	for key, c := range counts {
		phrases = append(phrases, models.KeyPhrase{
			Text:  display[key],
			Score: float64(c) / float64(maxCount),
		})
	}
	return phrases, nil
}

// isPhraseTag reports whether a Penn Treebank tag can be part of a noun
// phrase (nouns and their adjective modifiers).
func isPhraseTag(tag string) bool {
	return strings.HasPrefix(tag, "NN") || strings.HasPrefix(tag, "JJ")
}

// Small valence lexicon for sentiment over company marketing copy.
var positiveWords = map[string]bool{
	"growth": true, "leading": true, "innovative": true, "success": true,
	"trusted": true, "award": true, "strong": true, "best": true,
	"excellent": true, "improve": true, "opportunity": true, "partner": true,
	"win": true, "growing": true, "profitable": true, "expand": true,
}

var negativeWords = map[string]bool{
	"decline": true, "loss": true, "lawsuit": true, "layoff": true,
	"layoffs": true, "risk": true, "failure": true, "problem": true,
	"challenge": true, "challenges": true, "uncertainty": true, "debt": true,
	"shortage": true, "pressure": true, "weak": true, "struggling": true,
}

func (b *ProseBackend) DetectSentiment(ctx context.Context, text string) (models.Sentiment, error) {
	doc, err := prose.NewDocument(text)
	if err != nil {
		return models.Sentiment{}, err
	}

	var pos, neg, total float64
	for _, tok := range doc.Tokens() {
		word := strings.ToLower(tok.Text)
		total++
		if positiveWords[word] {
			pos++
		} else if negativeWords[word] {
			neg++
		}
	}
	if total == 0 {
		return models.Sentiment{
			Sentiment: models.SentimentNeutral,
			Scores:    map[string]float64{},
		}, nil
	}

	posScore := pos / total
	negScore := neg / total
	neutralScore := 1 - posScore - negScore

	scores := map[string]float64{
		"Positive": posScore,
		"Negative": negScore,
		"Neutral":  neutralScore,
		"Mixed":    0,
	}

	label := models.SentimentNeutral
	switch {
	case pos > 0 && neg > 0 && pos == neg:
		label = models.SentimentMixed
		scores["Mixed"] = (posScore + negScore) / 2
	case pos > neg:
		label = models.SentimentPositive
	case neg > pos:
		label = models.SentimentNegative
	}

	return models.Sentiment{Sentiment: label, Scores: scores}, nil
}
