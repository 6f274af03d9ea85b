package handlers

import (
	"strings"

	"honeypos/internal/domain"
	"honeypos/internal/log"
	"honeypos/internal/services"
	"honeypos/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type SearchHandler struct {
	Catalog   *services.CatalogService
	Inventory *services.InventoryService
}

// GET /api/v1/products/search?q=&type=
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	rawQ := c.Query("q")
	if strings.TrimSpace(rawQ) == "" {
		return c.JSON([]domain.Product{})
	}
	q, ok := validate.Q(rawQ)
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "q", "value": rawQ})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "enter a valid keyword (letters/numbers only)"})
	}
	typ := domain.ProductType(strings.TrimSpace(c.Query("type")))
	if typ != "" && !typ.Valid() {
		log.Security(c, "validation.fail", map[string]any{"field": "type"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product type"})
	}
	return c.JSON(h.Catalog.SearchProducts(q, typ))
}

// GET /api/v1/products/available?locationId=
// Products a promoter can sell right now: active and in stock at the location.
func (h *SearchHandler) Available(c *fiber.Ctx) error {
	loc, err := scopedLocation(c, c.Query("locationId"))
	if err != nil {
		return fail(c, "catalog.available", err)
	}
	return c.JSON(h.Inventory.Available(loc))
}
