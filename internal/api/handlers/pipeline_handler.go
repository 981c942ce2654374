package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/interview-iq/backend/internal/pipeline"
	"github.com/interview-iq/backend/pkg/logger"
)

type PipelineHandler struct {
	orchestrator *pipeline.Orchestrator
}

func NewPipelineHandler(orchestrator *pipeline.Orchestrator) *PipelineHandler {
	return &PipelineHandler{orchestrator: orchestrator}
}

// StartPipeline creates a session for the named company and launches
// the full pipeline against it.
func (h *PipelineHandler) StartPipeline(c *fiber.Ctx) error {
	var req struct {
		CompanyName string   `json:"companyName"`
		CompanyURL  string   `json:"companyUrl"`
		Documents   []string `json:"documents"`
	}
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return badRequest(c, "Invalid request body")
	}
	if req.CompanyName == "" {
		return badRequest(c, "companyName is required")
	}

	exec, err := h.orchestrator.Run(c.Context(), pipeline.RunInput{
		CompanyName: req.CompanyName,
		CompanyURL:  req.CompanyURL,
		Documents:   req.Documents,
	})
	if err != nil {
		return fail(c, err)
	}

	logger.Info("Pipeline started",
		zap.String("execution_id", exec.ExecutionID),
		zap.String("session_id", exec.SessionID),
		zap.String("company", req.CompanyName),
	)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"executionId": exec.ExecutionID,
		"sessionId":   exec.SessionID,
		"companyName": req.CompanyName,
		"status":      exec.Status,
	})
}

func (h *PipelineHandler) GetPipelineStatus(c *fiber.Ctx) error {
	executionID := c.Params("executionId")
	if executionID == "" {
		return badRequest(c, "executionId is required")
	}

	exec, err := h.orchestrator.Execution(c.Context(), executionID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(exec)
}
