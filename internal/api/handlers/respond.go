package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/exportai/backend/pkg/errs"
	"github.com/exportai/backend/pkg/logger"
)

// respondError maps the domain error taxonomy onto HTTP statuses.
// Validation details are safe to echo; internal failures get the
// caller-supplied message so store and provider errors never leak.
func respondError(c *fiber.Ctx, err error, internalMsg string) error {
	switch {
	case errs.IsValidation(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errs.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		logger.Error(internalMsg, zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": internalMsg,
		})
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}

func invalidBody(c *fiber.Ctx, err error) error {
	logger.Debug("Failed to parse request body", zap.String("path", c.Path()), zap.Error(err))
	return badRequest(c, "Invalid request body")
}
