package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"honeypos/internal/domain"
	applog "honeypos/internal/log"
	"honeypos/internal/services"
)

const actorKey = "actor"

// RequireActor accepts a bearer token and stores the actor it carries.
func RequireActor(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		scheme, tok, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || tok == "" {
			applog.Security(c, "auth.token.missing", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
		}
		actor, err := auth.ParseToken(strings.TrimSpace(tok))
		if err != nil {
			applog.Security(c, "auth.token.invalid", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}
		c.Locals(actorKey, actor)
		c.Locals(applog.UserIDKey, actor.ID)
		return c.Next()
	}
}

// RequireAdmin must run after RequireActor.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := actorOf(c)
		if !actor.Role.CanManageCatalog() {
			applog.Security(c, "access.denied.admin", map[string]any{"role": string(actor.Role)})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "access denied"})
		}
		return c.Next()
	}
}

func actorOf(c *fiber.Ctx) domain.Actor {
	a, _ := c.Locals(actorKey).(domain.Actor)
	return a
}

// scopedLocation resolves the location a request acts on. Promoters are
// pinned to their assigned location; admins may pick any.
func scopedLocation(c *fiber.Ctx, requested string) (string, error) {
	actor := actorOf(c)
	switch actor.Role {
	case domain.RoleAdmin:
		if requested == "" {
			return actor.LocationID, nil
		}
		return requested, nil
	case domain.RolePromoter:
		if requested != "" && requested != actor.LocationID {
			applog.Security(c, "access.denied.location", map[string]any{"requested": requested})
			return "", services.ErrForbidden
		}
		return actor.LocationID, nil
	}
	return "", services.ErrForbidden
}
