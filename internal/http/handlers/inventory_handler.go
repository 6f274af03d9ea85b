package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	applog "honeypos/internal/log"
	"honeypos/internal/services"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

type addRecordRequest struct {
	LocationID   string          `json:"locationId"`
	ProductID    string          `json:"productId"`
	CurrentStock decimal.Decimal `json:"currentStock"`
	MinStock     decimal.Decimal `json:"minStock"`
	MaxStock     decimal.Decimal `json:"maxStock"`
}

type setStockRequest struct {
	CurrentStock *decimal.Decimal `json:"currentStock"`
}

// GET /api/v1/inventory?locationId=
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	loc, err := scopedLocation(c, c.Query("locationId"))
	if err != nil {
		return fail(c, "inventory.list", err)
	}
	return c.JSON(h.Inv.List(loc))
}

// GET /api/v1/inventory/low?locationId=
func (h *InventoryHandler) Low(c *fiber.Ctx) error {
	loc, err := scopedLocation(c, c.Query("locationId"))
	if err != nil {
		return fail(c, "inventory.low", err)
	}
	return c.JSON(h.Inv.ListLowStock(loc))
}

// GET /api/v1/inventory/:locationId/:productId
func (h *InventoryHandler) Get(c *fiber.Ctx) error {
	loc, err := scopedLocation(c, c.Params("locationId"))
	if err != nil {
		return fail(c, "inventory.get", err)
	}
	rec, err := h.Inv.GetStock(loc, c.Params("productId"))
	if err != nil {
		return fail(c, "inventory.get", err)
	}
	return c.JSON(rec)
}

// POST /api/v1/inventory
func (h *InventoryHandler) Add(c *fiber.Ctx) error {
	var req addRecordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body")
	}
	rec, err := h.Inv.AddRecord(c.UserContext(), req.LocationID, req.ProductID, req.CurrentStock, req.MinStock, req.MaxStock)
	if err != nil {
		return fail(c, "admin.inventory.add", err)
	}
	applog.Audit(c, "admin.inventory.add", map[string]any{
		"location": rec.LocationID, "product": rec.ProductID, "stock": rec.CurrentStock.String(),
	})
	return created(c, rec)
}

// PUT /api/v1/inventory/:locationId/:productId
func (h *InventoryHandler) Set(c *fiber.Ctx) error {
	var req setStockRequest
	if err := c.BodyParser(&req); err != nil || req.CurrentStock == nil {
		return badRequest(c, "currentStock")
	}
	loc, prod := c.Params("locationId"), c.Params("productId")
	rec, err := h.Inv.SetStock(c.UserContext(), loc, prod, *req.CurrentStock)
	if err != nil {
		return fail(c, "admin.inventory.save", err)
	}
	applog.Audit(c, "admin.inventory.save", map[string]any{
		"location": loc, "product": prod, "stock": rec.CurrentStock.String(),
	})
	return c.JSON(rec)
}
