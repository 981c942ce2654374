package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/interview-iq/backend/internal/apperr"
	"github.com/interview-iq/backend/pkg/logger"
)

// fail maps a classified error to the uniform error envelope
// {error, statusCode, details?}. Unclassified errors become 500s with
// the detail withheld from the response body.
func fail(c *fiber.Ctx, err error) error {
	status := apperr.HTTPStatus(err)

	var ae *apperr.Error
	envelope := fiber.Map{
		"error":      "Internal server error",
		"statusCode": status,
	}
	if errors.As(err, &ae) {
		envelope["error"] = ae.Message
		if ae.Err != nil && status < 500 {
			envelope["details"] = ae.Err.Error()
		}
	}

	if status >= 500 {
		logger.Error("Request failed", zap.Int("status", status), zap.Error(err))
	} else {
		logger.Debug("Request rejected", zap.Int("status", status), zap.Error(err))
	}

	return c.Status(status).JSON(envelope)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":      message,
		"statusCode": fiber.StatusBadRequest,
	})
}
