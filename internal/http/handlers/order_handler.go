package handlers

import (
	"github.com/gofiber/fiber/v2"

	"honeypos/internal/domain"
	applog "honeypos/internal/log"
	"honeypos/internal/services"
)

// OrderHandler exposes supplier purchase orders to administrators.
type OrderHandler struct {
	Purchasing *services.PurchasingService
}

type statusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

type draftRequest struct {
	LocationID string `json:"locationId"`
	ProductID  string `json:"productId"`
}

// GET /api/v1/purchase-orders?status=&locationId=
func (h *OrderHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.Purchasing.List(domain.OrderStatus(c.Query("status")), c.Query("locationId")))
}

// GET /api/v1/purchase-orders/:id
func (h *OrderHandler) View(c *fiber.Ctx) error {
	o, err := h.Purchasing.Get(c.Params("id"))
	if err != nil {
		return fail(c, "order.get", err)
	}
	return c.JSON(o)
}

// POST /api/v1/purchase-orders
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	var req services.NewOrder
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body")
	}
	o, err := h.Purchasing.Create(c.UserContext(), req)
	if err != nil {
		return fail(c, "order.place", err)
	}
	applog.Audit(c, "admin.order.place", map[string]any{
		"order": o.ID, "supplier": o.SupplierID, "total": o.TotalAmount.String(),
	})
	return created(c, o)
}

// PATCH /api/v1/purchase-orders/:id
func (h *OrderHandler) Update(c *fiber.Ctx) error {
	var patch services.OrderPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "body")
	}
	o, err := h.Purchasing.Update(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return fail(c, "order.update", err)
	}
	applog.Audit(c, "admin.order.update", map[string]any{"order": o.ID})
	return c.JSON(o)
}

// POST /api/v1/purchase-orders/:id/status
func (h *OrderHandler) Status(c *fiber.Ctx) error {
	var req statusRequest
	if err := c.BodyParser(&req); err != nil || req.Status == "" {
		return badRequest(c, "status")
	}
	o, err := h.Purchasing.Transition(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return fail(c, "order.status", err)
	}
	applog.Audit(c, "admin.order.status", map[string]any{"order": o.ID, "status": o.Status})
	return c.JSON(o)
}

// POST /api/v1/purchase-orders/draft
func (h *OrderHandler) Draft(c *fiber.Ctx) error {
	var req draftRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body")
	}
	o, err := h.Purchasing.DraftReorder(c.UserContext(), req.LocationID, req.ProductID)
	if err != nil {
		return fail(c, "order.draft", err)
	}
	return created(c, o)
}

// POST /api/v1/purchase-orders/reorder?locationId=
func (h *OrderHandler) Reorder(c *fiber.Ctx) error {
	orders, err := h.Purchasing.ReorderLowStock(c.UserContext(), c.Query("locationId"))
	if err != nil {
		return fail(c, "order.reorder", err)
	}
	applog.Audit(c, "admin.order.reorder", map[string]any{"created": len(orders)})
	return c.JSON(orders)
}
