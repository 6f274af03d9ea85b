package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"honeypos/internal/domain"
	applog "honeypos/internal/log"
	"honeypos/internal/services"
)

type SaleHandler struct {
	Sales *services.SaleService
}

type commitRequest struct {
	services.CommitRequest
	LocationID string `json:"locationId"`
}

// POST /api/v1/sales
func (h *SaleHandler) Commit(c *fiber.Ctx) error {
	var req commitRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body")
	}
	loc, err := scopedLocation(c, req.LocationID)
	if err != nil {
		return fail(c, "sale.commit", err)
	}

	clientTotal := decimal.Zero
	for _, it := range req.Items {
		clientTotal = clientTotal.Add(it.TotalPrice)
	}

	sale, err := h.Sales.Commit(c.UserContext(), req.CommitRequest, actorOf(c), loc)
	if err != nil {
		applog.Security(c, "sale.commit.fail", map[string]any{"location": loc, "error": err.Error()})
		return fail(c, "sale.commit", err)
	}
	applog.Audit(c, "sale.place", map[string]any{
		"sale_id":      sale.ID,
		"server_total": sale.TotalAmount.String(),
		"client_total": clientTotal.String(),
		"mismatch":     !clientTotal.Equal(sale.TotalAmount),
	})
	return created(c, sale)
}

// GET /api/v1/sales/:id
// Promoters only see sales from their own location; anything else is a 404.
func (h *SaleHandler) View(c *fiber.Ctx) error {
	sale, err := h.Sales.Get(c.Params("id"))
	if err != nil {
		return fail(c, "sale.get", err)
	}
	actor := actorOf(c)
	if actor.Role != domain.RoleAdmin && sale.LocationID != actor.LocationID {
		applog.Security(c, "access.denied.sale", map[string]any{"sale_id": sale.ID})
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "sale not found"})
	}
	return c.JSON(sale)
}

// GET /api/v1/sales?locationId=&promoterId=&from=&to=
func (h *SaleHandler) List(c *fiber.Ctx) error {
	f, err := saleFilter(c)
	if err != nil {
		return err
	}
	return c.JSON(h.Sales.List(f))
}

// GET /api/v1/sales/report?locationId=&promoterId=&from=&to=&top=
func (h *SaleHandler) Report(c *fiber.Ctx) error {
	f, err := saleFilter(c)
	if err != nil {
		return err
	}
	return c.JSON(h.Sales.Report(f, c.QueryInt("top", 0)))
}

// saleFilter writes the error response itself; callers just return it.
func saleFilter(c *fiber.Ctx) (services.SaleFilter, error) {
	loc, err := scopedLocation(c, c.Query("locationId"))
	if err != nil {
		return services.SaleFilter{}, fail(c, "sale.list", err)
	}
	f := services.SaleFilter{LocationID: loc, PromoterID: c.Query("promoterId")}
	if f.From, err = parseTime(c.Query("from"), false); err != nil {
		return f, badRequest(c, "from")
	}
	if f.To, err = parseTime(c.Query("to"), true); err != nil {
		return f, badRequest(c, "to")
	}
	return f, nil
}

// parseTime accepts RFC 3339 or a bare UTC date. A bare date used as an
// upper bound covers the whole day.
func parseTime(s string, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
