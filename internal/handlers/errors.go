package handlers

import (
	"errors"
	"log/slog"

	"conduit/internal/models"
	"conduit/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// respondError writes err as the JSON error envelope with the matching status.
func respondError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		observability.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"errors": fiber.Map{"body": []string{"internal server error"}},
		})
	}

	switch appErr.Code {
	case models.CodeValidation:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"errors": appErr.Fields})
	case models.CodeNotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"errors": fiber.Map{"body": []string{appErr.Message}},
		})
	case models.CodeUnauthorized:
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"errors": fiber.Map{"body": []string{appErr.Message}},
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"errors": fiber.Map{"body": []string{appErr.Message}},
		})
	}
}

// badRequest answers an unparseable request body.
func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"errors": fiber.Map{"body": []string{"invalid request body: " + err.Error()}},
	})
}
