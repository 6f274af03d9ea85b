package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"honeypos/internal/domain"
	"honeypos/internal/services"
)

// CartHandler prices a cart server-side and attaches the gifts it earns.
type CartHandler struct {
	Catalog *services.CatalogService
	Promos  *services.PromotionService
}

type quoteLine struct {
	ProductID string          `json:"productId"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type quoteRequest struct {
	LocationID string      `json:"locationId"`
	Items      []quoteLine `json:"items"`
}

type quoteResponse struct {
	LocationID string            `json:"locationId"`
	Items      []domain.SaleItem `json:"items"`
	Total      decimal.Decimal   `json:"total"`
	Gifts      []domain.GiftItem `json:"gifts"`
}

// POST /api/v1/cart/quote
func (h *CartHandler) Quote(c *fiber.Ctx) error {
	var req quoteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body")
	}
	loc, err := scopedLocation(c, req.LocationID)
	if err != nil {
		return fail(c, "cart.quote", err)
	}

	var cart services.Cart
	for _, l := range req.Items {
		p, err := h.Catalog.GetProduct(l.ProductID)
		if err != nil {
			return fail(c, "cart.quote", err)
		}
		if err := cart.Add(p, l.Quantity); err != nil {
			return fail(c, "cart.quote", err)
		}
	}
	items := cart.Items()
	return c.JSON(quoteResponse{
		LocationID: loc,
		Items:      items,
		Total:      cart.Total(),
		Gifts:      h.Promos.Evaluate(items, loc),
	})
}
