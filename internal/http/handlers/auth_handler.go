package handlers

import (
	"github.com/gofiber/fiber/v2"

	"honeypos/internal/domain"
	"honeypos/internal/log"
	"honeypos/internal/services"
	"honeypos/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// POST /api/v1/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body")
	}
	email, ok := validate.Email(req.Email)
	if !ok {
		log.Security(c, "auth.login.fail", map[string]any{"reason": "bad_format"})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": services.ErrBadCreds.Error()})
	}

	tok, u, err := h.Auth.Login(email, req.Password)
	if err != nil {
		log.Security(c, "auth.login.fail", map[string]any{"email": email})
		return fail(c, "auth.login", err)
	}
	c.Locals(log.UserIDKey, u.ID)
	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	u.Hash = ""
	return c.JSON(loginResponse{Token: tok, User: u})
}

// GET /api/v1/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	u, err := h.Auth.GetUser(actorOf(c).ID)
	if err != nil {
		return fail(c, "auth.me", err)
	}
	u.Hash = ""
	return c.JSON(u)
}
