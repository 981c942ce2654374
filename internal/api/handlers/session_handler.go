package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/interview-iq/backend/internal/metrics"
	"github.com/interview-iq/backend/internal/storage"
	"github.com/interview-iq/backend/internal/storage/models"
	"github.com/interview-iq/backend/pkg/logger"
)

type SessionHandler struct {
	sessions storage.SessionStore
}

func NewSessionHandler(sessions storage.SessionStore) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	var req struct {
		CompanyName string            `json:"companyName"`
		CompanyURL  string            `json:"companyUrl"`
		Metadata    map[string]string `json:"metadata"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}
	if req.CompanyName == "" {
		return badRequest(c, "companyName is required")
	}

	sess, err := h.sessions.Create(c.Context(), req.CompanyName, req.CompanyURL, req.Metadata)
	if err != nil {
		return fail(c, err)
	}

	metrics.SessionsCreated.Inc()
	logger.Info("Session created",
		zap.String("session_id", sess.SessionID),
		zap.String("company_name", sess.CompanyName),
	)

	return c.Status(fiber.StatusCreated).JSON(sess)
}

func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	if sessionID == "" {
		return badRequest(c, "sessionId is required")
	}

	sess, err := h.sessions.Get(c.Context(), sessionID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(sess)
}

func (h *SessionHandler) SubmitFeedback(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")

	var req struct {
		Corrections       []models.Correction `json:"corrections"`
		SelectedQuestions []string            `json:"selectedQuestions"`
		Notes             string              `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}

	sess, err := h.sessions.Get(c.Context(), sessionID)
	if err != nil {
		return fail(c, err)
	}

	updated, err := h.sessions.StoreFeedback(c.Context(), sess.SessionID, sess.CreatedAt,
		req.Corrections, req.SelectedQuestions, req.Notes)
	if err != nil {
		return fail(c, err)
	}

	metrics.FeedbackSubmitted.Inc()
	logger.Info("Feedback submitted",
		zap.String("session_id", sessionID),
		zap.Int("corrections", len(req.Corrections)),
		zap.Int("selected_questions", len(req.SelectedQuestions)),
	)

	return c.JSON(fiber.Map{
		"sessionId":                updated.SessionID,
		"status":                   updated.Status,
		"corrections_count":        len(req.Corrections),
		"selected_questions_count": len(req.SelectedQuestions),
	})
}
