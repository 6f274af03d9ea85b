package handlers

import (
	"github.com/gofiber/fiber/v2"

	"honeypos/internal/domain"
	applog "honeypos/internal/log"
	"honeypos/internal/services"
)

type PromotionHandler struct {
	Promos *services.PromotionService
}

type evaluateRequest struct {
	LocationID string            `json:"locationId"`
	Items      []domain.SaleItem `json:"items"`
}

type activeRequest struct {
	IsActive *bool `json:"isActive"`
}

// GET /api/v1/promotions?applicable=true&locationId=
func (h *PromotionHandler) List(c *fiber.Ctx) error {
	if !c.QueryBool("applicable") {
		return c.JSON(h.Promos.List())
	}
	loc, err := scopedLocation(c, c.Query("locationId"))
	if err != nil {
		return fail(c, "promotion.list", err)
	}
	return c.JSON(h.Promos.Applicable(loc))
}

// POST /api/v1/promotions
func (h *PromotionHandler) Create(c *fiber.Ctx) error {
	var p domain.Promotion
	if err := c.BodyParser(&p); err != nil {
		return badRequest(c, "body")
	}
	p, err := h.Promos.Create(c.UserContext(), p)
	if err != nil {
		return fail(c, "promotion.create", err)
	}
	applog.Audit(c, "admin.promotion.create", map[string]any{"promotion": p.ID})
	return created(c, p)
}

// PATCH /api/v1/promotions/:id/active
func (h *PromotionHandler) SetActive(c *fiber.Ctx) error {
	var req activeRequest
	if err := c.BodyParser(&req); err != nil || req.IsActive == nil {
		return badRequest(c, "isActive")
	}
	p, err := h.Promos.SetActive(c.UserContext(), c.Params("id"), *req.IsActive)
	if err != nil {
		return fail(c, "promotion.toggle", err)
	}
	applog.Audit(c, "admin.promotion.toggle", map[string]any{"promotion": p.ID, "active": p.IsActive})
	return c.JSON(p)
}

// POST /api/v1/promotions/evaluate
func (h *PromotionHandler) Evaluate(c *fiber.Ctx) error {
	var req evaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body")
	}
	loc, err := scopedLocation(c, req.LocationID)
	if err != nil {
		return fail(c, "promotion.evaluate", err)
	}
	return c.JSON(fiber.Map{"gifts": h.Promos.Evaluate(req.Items, loc)})
}
