package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "honeypos/internal/log"
	"honeypos/internal/services"
)

// fail maps a service error onto a JSON response. Unknown errors are logged
// under action and answered with a generic 500.
func fail(c *fiber.Ctx, action string, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, services.ErrDuplicateRecord), errors.Is(err, services.ErrInsufficientStock):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrBadCreds):
		status = fiber.StatusUnauthorized
	}

	if status == fiber.StatusInternalServerError {
		applog.Error(c, action+".fail", err, nil)
		return c.Status(status).JSON(fiber.Map{"error": "Something went wrong. Please try again."})
	}
	body := fiber.Map{"error": err.Error()}
	if rule := services.RuleOf(err); rule != "" {
		body["rule"] = rule
		applog.Security(c, "validation.fail", map[string]any{"action": action, "rule": rule})
	}
	return c.Status(status).JSON(body)
}

// badRequest answers a body or query that could not be parsed at all.
func badRequest(c *fiber.Ctx, field string) error {
	applog.Security(c, "validation.fail", map[string]any{"field": field})
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid " + field})
}

func created(c *fiber.Ctx, v any) error {
	return c.Status(fiber.StatusCreated).JSON(v)
}
