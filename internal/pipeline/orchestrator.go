package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/interview-iq/backend/internal/apperr"
	"github.com/interview-iq/backend/internal/blob"
	"github.com/interview-iq/backend/internal/extract"
	"github.com/interview-iq/backend/internal/genai"
	"github.com/interview-iq/backend/internal/metrics"
	"github.com/interview-iq/backend/internal/scraper"
	"github.com/interview-iq/backend/internal/storage"
	"github.com/interview-iq/backend/internal/storage/models"
	"github.com/interview-iq/backend/pkg/logger"
)

// Stage names reported in execution records and progress events.
const (
	StageScrape   = "scrape"
	StageParse    = "parse"
	StageAnalyze  = "analyze"
	StageGenerate = "generate"
)

// runTimeout bounds a detached full-pipeline run.
const runTimeout = 10 * time.Minute

const scrapedDataFilename = "scraped_data.json"

// previewBytes caps the extracted-text preview echoed by the parse
// stage.
const previewBytes = 500

func textPreview(text string) string {
	if len(text) <= previewBytes {
		return text
	}
	cut := previewBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

type Scraper interface {
	ScrapeCompany(ctx context.Context, companyName, companyURL string) (*scraper.Result, error)
}

type DocExtractor interface {
	Extract(ctx context.Context, data []byte, filename string) (*extract.Result, error)
}

type TextAnalyzer interface {
	Analyze(ctx context.Context, text string) (*models.AnalysisResults, error)
}

type Generator interface {
	GenerateProfile(ctx context.Context, companyName string, scraped *models.ScrapeSummary, documents []models.ParsedDocument, analysis *models.AnalysisResults) (genai.Result[map[string]any], error)
	GenerateQuestions(ctx context.Context, profile map[string]any, analysis *models.AnalysisResults, count int) (genai.Result[[]models.Question], error)
	GenerateBrief(ctx context.Context, profile map[string]any, questions []models.Question, analysis *models.AnalysisResults) (genai.Result[map[string]any], error)
	GenerateIntervieweePacket(ctx context.Context, profile map[string]any, questions []models.Question) (genai.Result[map[string]any], error)
}

// ProgressEvent is published as a pipeline run moves between stages.
type ProgressEvent struct {
	ExecutionID string `json:"executionId"`
	SessionID   string `json:"sessionId"`
	Stage       string `json:"stage"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
}

type ProgressFunc func(ProgressEvent)

// Orchestrator runs pipeline stages against a session. Each stage is
// independently invokable and follows the same read-merge-write cycle
// through the session store; Run chains them under an execution record.
type Orchestrator struct {
	sessions   storage.SessionStore
	blobs      *blob.Store
	scraper    Scraper
	extractor  DocExtractor
	analyzer   TextAnalyzer
	generator  Generator
	executions ExecutionStore
	progress   ProgressFunc
}

type Deps struct {
	Sessions   storage.SessionStore
	Blobs      *blob.Store
	Scraper    Scraper
	Extractor  DocExtractor
	Analyzer   TextAnalyzer
	Generator  Generator
	Executions ExecutionStore
	Progress   ProgressFunc
}

func NewOrchestrator(deps Deps) *Orchestrator {
	return &Orchestrator{
		sessions:   deps.Sessions,
		blobs:      deps.Blobs,
		scraper:    deps.Scraper,
		extractor:  deps.Extractor,
		analyzer:   deps.Analyzer,
		generator:  deps.Generator,
		executions: deps.Executions,
		progress:   deps.Progress,
	}
}

func (o *Orchestrator) notify(event ProgressEvent) {
	if o.progress != nil {
		event.Timestamp = models.Timestamp(time.Now())
		o.progress(event)
	}
}

func observeStage(stage string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	metrics.StageTotal.WithLabelValues(stage, status).Inc()
}

// Scrape fetches (or mocks) company web data, persists the raw result
// to blob storage, and merges the summary into the session. Non-empty
// companyName and companyURL override the session values and are
// persisted with the summary.
func (o *Orchestrator) Scrape(ctx context.Context, sessionID, companyName, companyURL string) (*models.Session, *scraper.Result, error) {
	start := time.Now()

	sess, err := o.sessions.Get(ctx, sessionID)
	if err != nil {
		observeStage(StageScrape, start, err)
		return nil, nil, err
	}

	updates := models.FieldUpdates{}
	if companyName != "" && companyName != sess.CompanyName {
		updates.CompanyName = &companyName
	}
	if companyName == "" {
		companyName = sess.CompanyName
	}
	if companyURL != "" && companyURL != sess.CompanyURL {
		updates.CompanyURL = &companyURL
	}
	if companyURL == "" {
		companyURL = sess.CompanyURL
	}
	if companyName == "" {
		err := apperr.Validation("companyName is required")
		observeStage(StageScrape, start, err)
		return nil, nil, err
	}

	result, err := o.scraper.ScrapeCompany(ctx, companyName, companyURL)
	if err != nil {
		observeStage(StageScrape, start, err)
		return nil, nil, err
	}

	metrics.ScrapeSource.WithLabelValues(result.Source).Inc()
	metrics.PagesScraped.Observe(float64(result.Summary.PagesScraped))

	raw, err := json.Marshal(result)
	if err != nil {
		observeStage(StageScrape, start, err)
		return nil, nil, apperr.Backend("failed to serialize scrape result", err)
	}
	if err := o.blobs.Put(blob.Key(blob.PrefixScraped, sessionID, scrapedDataFilename), raw); err != nil {
		observeStage(StageScrape, start, err)
		return nil, nil, err
	}

	status := models.StatusScrapingComplete
	updates.ScrapedData = &result.Summary
	updates.Status = &status
	updated, err := o.sessions.Update(ctx, sess.SessionID, sess.CreatedAt, updates)
	observeStage(StageScrape, start, err)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Scrape stage complete",
		zap.String("session_id", sessionID),
		zap.String("source", result.Source),
		zap.Int("pages_scraped", result.Summary.PagesScraped),
	)
	return updated, result, nil
}

// Parse stores an uploaded document, extracts its text, and appends the
// extraction record to the session. The raw upload is persisted before
// extraction is attempted so a failed extraction never loses the file.
func (o *Orchestrator) Parse(ctx context.Context, sessionID, filename string, data []byte) (*models.Session, *models.ParsedDocument, error) {
	start := time.Now()

	sess, err := o.sessions.Get(ctx, sessionID)
	if err != nil {
		observeStage(StageParse, start, err)
		return nil, nil, err
	}

	uploadKey := blob.Key(blob.PrefixUploads, sessionID, filename)
	if err := o.blobs.Put(uploadKey, data); err != nil {
		observeStage(StageParse, start, err)
		return nil, nil, err
	}

	doc := models.ParsedDocument{Filename: filename, BlobKey: uploadKey}

	result, err := o.extractor.Extract(ctx, data, filename)
	if err != nil {
		doc.Method = extract.MethodOCR
		doc.Error = err.Error()
		logger.Warn("Document extraction failed",
			zap.String("session_id", sessionID),
			zap.String("filename", filename),
			zap.Error(err),
		)
	} else {
		doc.Method = result.Method
		doc.TextLength = len(result.Text)
		doc.TextPreview = textPreview(result.Text)
		doc.Confidence = result.Confidence
		doc.PageCount = result.PageCount
		doc.Error = result.Note

		if result.Text != "" {
			parsedKey := blob.Key(blob.PrefixParsed, sessionID, filename+".txt")
			if err := o.blobs.Put(parsedKey, []byte(result.Text)); err != nil {
				observeStage(StageParse, start, err)
				return nil, nil, err
			}
			doc.BlobKey = parsedKey
		}
	}

	metrics.DocumentsParsed.WithLabelValues(doc.Method).Inc()

	docs := append(sess.ParsedDocuments, doc)
	updated, uerr := o.sessions.Update(ctx, sess.SessionID, sess.CreatedAt, models.FieldUpdates{
		ParsedDocuments: &docs,
	})
	observeStage(StageParse, start, uerr)
	if uerr != nil {
		return nil, nil, uerr
	}

	logger.Info("Parse stage complete",
		zap.String("session_id", sessionID),
		zap.String("filename", filename),
		zap.String("method", doc.Method),
		zap.Int("text_length", doc.TextLength),
	)
	return updated, &doc, nil
}

// ParseStored runs the parse stage against bytes already held in blob
// storage, referenced by key. Keys outside the store layout are
// rejected before any read.
func (o *Orchestrator) ParseStored(ctx context.Context, sessionID, blobKey, filename string) (*models.Session, *models.ParsedDocument, error) {
	if !blob.ValidKey(blobKey) {
		return nil, nil, apperr.Validation("invalid blob reference %q", blobKey)
	}

	data, err := o.blobs.Get(blobKey)
	if err != nil {
		return nil, nil, err
	}

	if filename == "" {
		filename = path.Base(blobKey)
	}
	return o.Parse(ctx, sessionID, filename, data)
}

// Analyze runs NLP over the supplied text, or when text is empty, over
// everything gathered so far: the raw scraped content (from blob
// storage, falling back to the session summary) plus all parsed
// document texts.
func (o *Orchestrator) Analyze(ctx context.Context, sessionID, text string) (*models.Session, error) {
	start := time.Now()

	sess, err := o.sessions.Get(ctx, sessionID)
	if err != nil {
		observeStage(StageAnalyze, start, err)
		return nil, err
	}

	if strings.TrimSpace(text) == "" {
		text = o.collectText(sessionID, sess)
	}
	if strings.TrimSpace(text) == "" {
		err := apperr.Validation("session %s has no content to analyze; scrape, parse, or supply text first", sessionID)
		observeStage(StageAnalyze, start, err)
		return nil, err
	}

	results, err := o.analyzer.Analyze(ctx, text)
	if err != nil {
		observeStage(StageAnalyze, start, err)
		return nil, err
	}

	status := models.StatusAnalysisComplete
	updated, err := o.sessions.Update(ctx, sess.SessionID, sess.CreatedAt, models.FieldUpdates{
		AnalysisResults: results,
		Status:          &status,
	})
	observeStage(StageAnalyze, start, err)
	if err != nil {
		return nil, err
	}

	logger.Info("Analyze stage complete",
		zap.String("session_id", sessionID),
		zap.Int("entities", len(results.Entities)),
		zap.Int("key_phrases", len(results.KeyPhrases)),
	)
	return updated, nil
}

func (o *Orchestrator) collectText(sessionID string, sess *models.Session) string {
	var parts []string

	if raw, err := o.blobs.Get(blob.Key(blob.PrefixScraped, sessionID, scrapedDataFilename)); err == nil {
		var result scraper.Result
		if json.Unmarshal(raw, &result) == nil && result.Summary.CombinedContent != "" {
			parts = append(parts, result.Summary.CombinedContent)
		}
	}
	if len(parts) == 0 && sess.ScrapedData != nil && sess.ScrapedData.CombinedContent != "" {
		parts = append(parts, sess.ScrapedData.CombinedContent)
	}

	keys, err := o.blobs.ListSession(blob.PrefixParsed, sessionID)
	if err != nil {
		logger.Warn("Failed to list parsed blobs", zap.String("session_id", sessionID), zap.Error(err))
		keys = nil
	}
	for _, key := range keys {
		data, err := o.blobs.Get(key)
		if err != nil {
			logger.Warn("Failed to read parsed blob", zap.String("key", key), zap.Error(err))
			continue
		}
		parts = append(parts, string(data))
	}

	return strings.Join(parts, "\n\n")
}

// GenerateOutput carries the artifacts of a generation run.
type GenerateOutput struct {
	Session   *models.Session
	Profile   map[string]any
	Questions []models.Question
	Brief     map[string]any
	Packet    map[string]any
	Degraded  []string
}

// Generate runs the four chained generation operations, persists the
// brief and packet to blob storage, and marks the session READY.
func (o *Orchestrator) Generate(ctx context.Context, sessionID string) (*GenerateOutput, error) {
	start := time.Now()

	sess, err := o.sessions.Get(ctx, sessionID)
	if err != nil {
		observeStage(StageGenerate, start, err)
		return nil, err
	}

	out := &GenerateOutput{}
	degrade := func(op string) {
		out.Degraded = append(out.Degraded, op)
		metrics.GenerationFallbacks.WithLabelValues(op).Inc()
	}

	profile, err := o.generator.GenerateProfile(ctx, sess.CompanyName, sess.ScrapedData, sess.ParsedDocuments, sess.AnalysisResults)
	if err != nil {
		observeStage(StageGenerate, start, err)
		return nil, err
	}
	if profile.Degraded {
		degrade("profile")
	}
	out.Profile = profile.Artifact

	questions, err := o.generator.GenerateQuestions(ctx, profile.Artifact, sess.AnalysisResults, genai.DefaultQuestionCount)
	if err != nil {
		observeStage(StageGenerate, start, err)
		return nil, err
	}
	if questions.Degraded {
		degrade("questions")
	}
	out.Questions = questions.Artifact

	brief, err := o.generator.GenerateBrief(ctx, profile.Artifact, questions.Artifact, sess.AnalysisResults)
	if err != nil {
		observeStage(StageGenerate, start, err)
		return nil, err
	}
	if brief.Degraded {
		degrade("brief")
	}
	out.Brief = brief.Artifact

	packet, err := o.generator.GenerateIntervieweePacket(ctx, profile.Artifact, questions.Artifact)
	if err != nil {
		observeStage(StageGenerate, start, err)
		return nil, err
	}
	if packet.Degraded {
		degrade("packet")
	}
	out.Packet = packet.Artifact

	if err := o.putJSON(blob.Key(blob.PrefixBriefs, sessionID, "interviewer_brief.json"), brief.Artifact); err != nil {
		observeStage(StageGenerate, start, err)
		return nil, err
	}
	if err := o.putJSON(blob.Key(blob.PrefixPackets, sessionID, "interviewee_packet.json"), packet.Artifact); err != nil {
		observeStage(StageGenerate, start, err)
		return nil, err
	}

	status := models.StatusReady
	updated, err := o.sessions.Update(ctx, sess.SessionID, sess.CreatedAt, models.FieldUpdates{
		InterviewerBrief: &brief.Artifact,
		IntervieweePack:  &packet.Artifact,
		Status:           &status,
	})
	observeStage(StageGenerate, start, err)
	if err != nil {
		return nil, err
	}
	out.Session = updated

	logger.Info("Generate stage complete",
		zap.String("session_id", sessionID),
		zap.Int("questions", len(out.Questions)),
		zap.Strings("degraded", out.Degraded),
	)
	return out, nil
}

func (o *Orchestrator) putJSON(key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperr.Backend("failed to serialize artifact", err)
	}
	return o.blobs.Put(key, data)
}

// RunInput describes a full-pipeline request. Documents are blob keys
// of previously stored uploads to feed through the parse stage.
type RunInput struct {
	CompanyName string
	CompanyURL  string
	Documents   []string
}

// Run creates a session and starts a detached full-pipeline execution
// (scrape, parse when documents are supplied, analyze, generate),
// returning immediately with the execution record.
func (o *Orchestrator) Run(ctx context.Context, input RunInput) (*Execution, error) {
	if strings.TrimSpace(input.CompanyName) == "" {
		return nil, apperr.Validation("companyName is required")
	}
	for _, key := range input.Documents {
		if !blob.ValidKey(key) {
			return nil, apperr.Validation("invalid blob reference %q", key)
		}
	}

	sess, err := o.sessions.Create(ctx, input.CompanyName, input.CompanyURL, nil)
	if err != nil {
		return nil, err
	}

	exec := newExecution(sess.SessionID)
	if err := o.executions.Put(ctx, exec); err != nil {
		return nil, err
	}

	go o.runStages(*exec, input.Documents)

	return exec, nil
}

func (o *Orchestrator) runStages(exec Execution, documents []string) {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	type stageStep struct {
		name string
		run  func(context.Context) error
	}

	stages := []stageStep{
		{StageScrape, func(ctx context.Context) error {
			_, _, err := o.Scrape(ctx, exec.SessionID, "", "")
			return err
		}},
	}
	if len(documents) > 0 {
		stages = append(stages, stageStep{StageParse, func(ctx context.Context) error {
			for _, key := range documents {
				if _, _, err := o.ParseStored(ctx, exec.SessionID, key, ""); err != nil {
					return err
				}
			}
			return nil
		}})
	}
	stages = append(stages,
		stageStep{StageAnalyze, func(ctx context.Context) error {
			_, err := o.Analyze(ctx, exec.SessionID, "")
			return err
		}},
		stageStep{StageGenerate, func(ctx context.Context) error {
			_, err := o.Generate(ctx, exec.SessionID)
			return err
		}},
	)

	for _, stage := range stages {
		exec.Stage = stage.name
		o.putExecution(ctx, &exec)
		o.notify(ProgressEvent{
			ExecutionID: exec.ExecutionID,
			SessionID:   exec.SessionID,
			Stage:       stage.name,
			Status:      string(ExecutionRunning),
		})

		if err := stage.run(ctx); err != nil {
			exec.Status = ExecutionFailed
			exec.Error = fmt.Sprintf("stage %s failed", stage.name)
			exec.Cause = rootCause(err)
			exec.FinishedAt = models.Timestamp(time.Now())
			o.putExecution(ctx, &exec)
			o.notify(ProgressEvent{
				ExecutionID: exec.ExecutionID,
				SessionID:   exec.SessionID,
				Stage:       stage.name,
				Status:      string(ExecutionFailed),
			})
			metrics.PipelineExecutions.WithLabelValues("failed").Inc()
			logger.Error("Pipeline execution failed",
				zap.String("execution_id", exec.ExecutionID),
				zap.String("session_id", exec.SessionID),
				zap.String("stage", stage.name),
				zap.Error(err),
			)
			return
		}
	}

	exec.Status = ExecutionSucceeded
	exec.Output = map[string]any{
		"sessionId": exec.SessionID,
		"status":    string(models.StatusReady),
	}
	exec.FinishedAt = models.Timestamp(time.Now())
	o.putExecution(ctx, &exec)
	o.notify(ProgressEvent{
		ExecutionID: exec.ExecutionID,
		SessionID:   exec.SessionID,
		Stage:       StageGenerate,
		Status:      string(ExecutionSucceeded),
	})
	metrics.PipelineExecutions.WithLabelValues("succeeded").Inc()

	logger.Info("Pipeline execution succeeded",
		zap.String("execution_id", exec.ExecutionID),
		zap.String("session_id", exec.SessionID),
	)
}

func (o *Orchestrator) putExecution(ctx context.Context, exec *Execution) {
	if err := o.executions.Put(ctx, exec); err != nil {
		logger.Error("Failed to store execution record",
			zap.String("execution_id", exec.ExecutionID),
			zap.Error(err),
		)
	}
}

// Execution returns the record for a pipeline run.
func (o *Orchestrator) Execution(ctx context.Context, executionID string) (*Execution, error) {
	return o.executions.Get(ctx, executionID)
}

func rootCause(err error) string {
	cause := err
	for {
		next := errors.Unwrap(cause)
		if next == nil {
			return cause.Error()
		}
		cause = next
	}
}
