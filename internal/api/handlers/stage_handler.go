package handlers

import (
	"io"
	"sort"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/interview-iq/backend/internal/pipeline"
	"github.com/interview-iq/backend/internal/storage/models"
	"github.com/interview-iq/backend/pkg/logger"
)

// topResultCount caps the entity and key-phrase lists echoed in the
// analyze response; the full lists live on the session record.
const topResultCount = 10

// StageHandler exposes each pipeline stage as an independently
// invokable endpoint.
type StageHandler struct {
	orchestrator *pipeline.Orchestrator
}

func NewStageHandler(orchestrator *pipeline.Orchestrator) *StageHandler {
	return &StageHandler{orchestrator: orchestrator}
}

func (h *StageHandler) ScrapeCompany(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")

	var req struct {
		CompanyName string `json:"companyName"`
		CompanyURL  string `json:"companyUrl"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			logger.Error("Failed to parse request body", zap.Error(err))
			return badRequest(c, "Invalid request body")
		}
	}

	sess, result, err := h.orchestrator.Scrape(c.Context(), sessionID, req.CompanyName, req.CompanyURL)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"sessionId":   sess.SessionID,
		"status":      sess.Status,
		"source":      result.Source,
		"pages_count": len(result.Pages),
		"summary":     result.Summary,
	})
}

// ParseDocument accepts either a multipart upload or a JSON body with a
// blobKey referencing bytes already in blob storage.
func (h *StageHandler) ParseDocument(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return h.parseStoredDocument(c, sessionID)
	}

	filename := c.FormValue("filename")
	if filename == "" {
		filename = fileHeader.Filename
	}
	if filename == "" {
		return badRequest(c, "filename is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Error("Failed to open uploaded file", zap.Error(err))
		return badRequest(c, "Unable to read uploaded file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.Error("Failed to read uploaded file", zap.Error(err))
		return badRequest(c, "Unable to read uploaded file")
	}

	sess, doc, err := h.orchestrator.Parse(c.Context(), sessionID, filename, data)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(parsedDocumentResponse(sess.SessionID, doc))
}

func (h *StageHandler) parseStoredDocument(c *fiber.Ctx, sessionID string) error {
	var req struct {
		Filename string `json:"filename"`
		BlobKey  string `json:"blobKey"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			logger.Error("Failed to parse request body", zap.Error(err))
			return badRequest(c, "Invalid request body")
		}
	}
	if req.BlobKey == "" {
		return badRequest(c, "file is required (multipart form field \"file\" or JSON blobKey)")
	}

	sess, doc, err := h.orchestrator.ParseStored(c.Context(), sessionID, req.BlobKey, req.Filename)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(parsedDocumentResponse(sess.SessionID, doc))
}

func parsedDocumentResponse(sessionID string, doc *models.ParsedDocument) fiber.Map {
	resp := fiber.Map{
		"sessionId":    sessionID,
		"filename":     doc.Filename,
		"method":       doc.Method,
		"text_length":  doc.TextLength,
		"text_preview": doc.TextPreview,
		"blob_key":     doc.BlobKey,
	}
	if doc.Confidence > 0 {
		resp["confidence"] = doc.Confidence
	}
	if doc.PageCount > 0 {
		resp["page_count"] = doc.PageCount
	}
	if doc.Error != "" {
		resp["error"] = doc.Error
	}
	return resp
}

func (h *StageHandler) AnalyzeCompany(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")

	var req struct {
		Text string `json:"text"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			logger.Error("Failed to parse request body", zap.Error(err))
			return badRequest(c, "Invalid request body")
		}
	}

	sess, err := h.orchestrator.Analyze(c.Context(), sessionID, req.Text)
	if err != nil {
		return fail(c, err)
	}

	entities := sess.AnalysisResults.Entities
	if len(entities) > topResultCount {
		entities = entities[:topResultCount]
	}
	phrases := sess.AnalysisResults.KeyPhrases
	if len(phrases) > topResultCount {
		phrases = phrases[:topResultCount]
	}

	return c.JSON(fiber.Map{
		"sessionId":         sess.SessionID,
		"status":            sess.Status,
		"entities_count":    len(sess.AnalysisResults.Entities),
		"key_phrases_count": len(sess.AnalysisResults.KeyPhrases),
		"sentiment":         sess.AnalysisResults.Sentiment.Sentiment,
		"top_entities":      entities,
		"top_key_phrases":   phrases,
	})
}

func (h *StageHandler) GenerateBrief(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")

	out, err := h.orchestrator.Generate(c.Context(), sessionID)
	if err != nil {
		return fail(c, err)
	}

	sections := make([]string, 0, len(out.Brief))
	for section := range out.Brief {
		sections = append(sections, section)
	}
	sort.Strings(sections)

	return c.JSON(fiber.Map{
		"sessionId":       out.Session.SessionID,
		"status":          out.Session.Status,
		"brief_sections":  sections,
		"questions_count": len(out.Questions),
		"degraded":        out.Degraded,
	})
}
