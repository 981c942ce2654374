package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/interview-iq/backend/pkg/config"
)

type HealthHandler struct {
	cfg *config.Config
}

func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

// Health reports which backing services are configured. Generation and
// live scraping degrade gracefully when unconfigured, so this is a
// config report rather than a liveness probe of each dependency.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now().Unix(),
		"services": fiber.Map{
			"sessions":   "sqlite",
			"blobs":      "filesystem",
			"executions": executionBackend(h.cfg),
			"genai":      configured(h.cfg.GenAI.APIKey != ""),
		},
	})
}

func executionBackend(cfg *config.Config) string {
	if cfg.Redis.Enabled {
		return "redis"
	}
	return "memory"
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "not_configured"
}
