package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interview-iq/backend/internal/apperr"
	"github.com/interview-iq/backend/internal/storage/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, store.InitSchema())
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndGet(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "Acme", "https://acme.example", map[string]string{"source": "demo"})
	require.NoError(t, err)

	assert.NotEmpty(t, created.SessionID)
	assert.Equal(t, models.StatusCreated, created.Status)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := store.Get(ctx, created.SessionID)
	require.NoError(t, err)

	assert.Equal(t, created.SessionID, got.SessionID)
	assert.Equal(t, "Acme", got.CompanyName)
	assert.Equal(t, "https://acme.example", got.CompanyURL)
	assert.Equal(t, map[string]string{"source": "demo"}, got.Metadata)
	assert.Empty(t, got.ParsedDocuments)
	assert.Nil(t, got.ScrapedData)
}

func TestGetNotFound(t *testing.T) {
	store := testStore(t)

	_, err := store.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUpdateMergesOnlyNamedFields(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "Acme", "https://acme.example", nil)
	require.NoError(t, err)

	summary := &models.ScrapeSummary{Name: "Acme", CombinedContent: "content", PagesScraped: 2}
	status := models.StatusScrapingComplete

	updated, err := store.Update(ctx, created.SessionID, created.CreatedAt, models.FieldUpdates{
		ScrapedData: summary,
		Status:      &status,
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusScrapingComplete, updated.Status)
	require.NotNil(t, updated.ScrapedData)
	assert.Equal(t, "content", updated.ScrapedData.CombinedContent)

	// Untouched fields survive the merge.
	assert.Equal(t, "Acme", updated.CompanyName)
	assert.Equal(t, "https://acme.example", updated.CompanyURL)

	// A later disjoint update leaves the scraped data intact.
	analysis := &models.AnalysisResults{
		Entities:  []models.Entity{{Text: "Acme", Type: "ORGANIZATION", Score: 0.9}},
		Sentiment: models.Sentiment{Sentiment: models.SentimentNeutral, Scores: map[string]float64{}},
	}
	updated, err = store.Update(ctx, created.SessionID, created.CreatedAt, models.FieldUpdates{
		AnalysisResults: analysis,
	})
	require.NoError(t, err)

	require.NotNil(t, updated.ScrapedData)
	assert.Equal(t, "content", updated.ScrapedData.CombinedContent)
	require.NotNil(t, updated.AnalysisResults)
	assert.Len(t, updated.AnalysisResults.Entities, 1)
}

func TestUpdateRefreshesUpdatedAt(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "Acme", "", nil)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	updated, err := store.Update(ctx, created.SessionID, created.CreatedAt, models.FieldUpdates{})
	require.NoError(t, err)

	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	before, err := time.Parse(time.RFC3339Nano, created.UpdatedAt)
	require.NoError(t, err)
	after, err := time.Parse(time.RFC3339Nano, updated.UpdatedAt)
	require.NoError(t, err)
	assert.True(t, after.After(before))
}

func TestUpdateWrongCompositeKey(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "Acme", "", nil)
	require.NoError(t, err)

	status := models.StatusReady
	_, err = store.Update(ctx, created.SessionID, models.Timestamp(time.Now().Add(time.Hour)), models.FieldUpdates{
		Status: &status,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUpdateLastWriteWins(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "Acme", "", nil)
	require.NoError(t, err)

	first := &models.ScrapeSummary{CombinedContent: "first"}
	second := &models.ScrapeSummary{CombinedContent: "second"}

	_, err = store.Update(ctx, created.SessionID, created.CreatedAt, models.FieldUpdates{ScrapedData: first})
	require.NoError(t, err)
	updated, err := store.Update(ctx, created.SessionID, created.CreatedAt, models.FieldUpdates{ScrapedData: second})
	require.NoError(t, err)

	assert.Equal(t, "second", updated.ScrapedData.CombinedContent)
}

func TestStoreFeedback(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "Acme", "", nil)
	require.NoError(t, err)

	corrections := []models.Correction{{Field: "industry", Original: "retail", Corrected: "manufacturing"}}
	updated, err := store.StoreFeedback(ctx, created.SessionID, created.CreatedAt, corrections, []string{"q1", "q3"}, "looking forward to it")
	require.NoError(t, err)

	assert.Equal(t, models.StatusFeedbackReceived, updated.Status)
	require.NotNil(t, updated.Feedback)
	assert.Equal(t, corrections, updated.Feedback.Corrections)
	assert.Equal(t, []string{"q1", "q3"}, updated.Feedback.SelectedQuestions)
	assert.Equal(t, "looking forward to it", updated.Feedback.Notes)
	assert.NotEmpty(t, updated.Feedback.SubmittedAt)
}

func TestStoreFeedbackNilSlicesNormalized(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "Acme", "", nil)
	require.NoError(t, err)

	updated, err := store.StoreFeedback(ctx, created.SessionID, created.CreatedAt, nil, nil, "")
	require.NoError(t, err)

	require.NotNil(t, updated.Feedback)
	assert.NotNil(t, updated.Feedback.Corrections)
	assert.NotNil(t, updated.Feedback.SelectedQuestions)
}

func TestFullArtifactRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "Acme", "", nil)
	require.NoError(t, err)

	brief := map[string]any{"executive_summary": "summary"}
	packet := map[string]any{"invitation_text": "hello"}
	docs := []models.ParsedDocument{{Filename: "resume.docx", Method: "docx", TextLength: 120, BlobKey: "parsed/x/resume.docx.txt"}}
	status := models.StatusReady

	updated, err := store.Update(ctx, created.SessionID, created.CreatedAt, models.FieldUpdates{
		InterviewerBrief: &brief,
		IntervieweePack:  &packet,
		ParsedDocuments:  &docs,
		Status:           &status,
	})
	require.NoError(t, err)

	assert.Equal(t, "summary", updated.InterviewerBrief["executive_summary"])
	assert.Equal(t, "hello", updated.IntervieweePack["invitation_text"])
	require.Len(t, updated.ParsedDocuments, 1)
	assert.Equal(t, "resume.docx", updated.ParsedDocuments[0].Filename)
}
