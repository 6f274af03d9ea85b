package handlers

import (
	"github.com/gofiber/fiber/v2"

	"honeypos/internal/domain"
	applog "honeypos/internal/log"
	"honeypos/internal/services"
)

// AdminHandler manages user accounts.
type AdminHandler struct {
	Auth *services.AuthService
}

// GET /api/v1/users
func (h *AdminHandler) Users(c *fiber.Ctx) error {
	users := h.Auth.ListUsers()
	out := make([]domain.User, len(users))
	for i, u := range users {
		u.Hash = ""
		out[i] = u
	}
	return c.JSON(out)
}

// POST /api/v1/users
func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	var req services.NewUser
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body")
	}
	u, err := h.Auth.CreateUser(c.UserContext(), req)
	if err != nil {
		return fail(c, "admin.users.create", err)
	}
	applog.Audit(c, "admin.users.create", map[string]any{"user_id": u.ID, "role": string(u.Role)})
	u.Hash = ""
	return created(c, u)
}
