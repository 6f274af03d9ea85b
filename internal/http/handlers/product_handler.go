package handlers

import (
	"github.com/gofiber/fiber/v2"

	"honeypos/internal/domain"
	"honeypos/internal/log"
	"honeypos/internal/services"
	"honeypos/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// GET /api/v1/products?active=true
func (h *ProductHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.Catalog.ListProducts(c.QueryBool("active")))
}

// GET /api/v1/products/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}
	p, err := h.Catalog.GetProduct(id)
	if err != nil {
		return fail(c, "catalog.product.get", err)
	}
	return c.JSON(p)
}

// POST /api/v1/products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var p domain.Product
	if err := c.BodyParser(&p); err != nil {
		return badRequest(c, "body")
	}
	p, err := h.Catalog.AddProduct(c.UserContext(), p)
	if err != nil {
		return fail(c, "catalog.product.add", err)
	}
	log.Audit(c, "admin.product.add", map[string]any{"product": p.ID})
	return created(c, p)
}

// PATCH /api/v1/products/:id
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	var patch services.ProductPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "body")
	}
	p, err := h.Catalog.UpdateProduct(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return fail(c, "catalog.product.update", err)
	}
	log.Audit(c, "admin.product.update", map[string]any{"product": p.ID})
	return c.JSON(p)
}
