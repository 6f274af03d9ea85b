package handlers

import (
	"github.com/gofiber/fiber/v2"

	"honeypos/internal/domain"
	applog "honeypos/internal/log"
	"honeypos/internal/services"
)

type LocationHandler struct {
	Catalog *services.CatalogService
}

// GET /api/v1/locations
func (h *LocationHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.Catalog.ListLocations())
}

// POST /api/v1/locations
func (h *LocationHandler) Create(c *fiber.Ctx) error {
	var l domain.Location
	if err := c.BodyParser(&l); err != nil {
		return badRequest(c, "body")
	}
	l, err := h.Catalog.AddLocation(c.UserContext(), l)
	if err != nil {
		return fail(c, "catalog.location.add", err)
	}
	applog.Audit(c, "admin.location.add", map[string]any{"location": l.ID})
	return created(c, l)
}

// PATCH /api/v1/locations/:id
func (h *LocationHandler) Update(c *fiber.Ctx) error {
	var patch services.LocationPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "body")
	}
	l, err := h.Catalog.UpdateLocation(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return fail(c, "catalog.location.update", err)
	}
	applog.Audit(c, "admin.location.update", map[string]any{"location": l.ID})
	return c.JSON(l)
}

type SupplierHandler struct {
	Catalog *services.CatalogService
}

// GET /api/v1/suppliers
func (h *SupplierHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.Catalog.ListSuppliers())
}

// POST /api/v1/suppliers
func (h *SupplierHandler) Create(c *fiber.Ctx) error {
	var s domain.Supplier
	if err := c.BodyParser(&s); err != nil {
		return badRequest(c, "body")
	}
	s, err := h.Catalog.AddSupplier(c.UserContext(), s)
	if err != nil {
		return fail(c, "catalog.supplier.add", err)
	}
	applog.Audit(c, "admin.supplier.add", map[string]any{"supplier": s.ID})
	return created(c, s)
}

// PATCH /api/v1/suppliers/:id
func (h *SupplierHandler) Update(c *fiber.Ctx) error {
	var patch services.SupplierPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "body")
	}
	s, err := h.Catalog.UpdateSupplier(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return fail(c, "catalog.supplier.update", err)
	}
	applog.Audit(c, "admin.supplier.update", map[string]any{"supplier": s.ID})
	return c.JSON(s)
}
