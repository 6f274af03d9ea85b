package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"honeypos/internal/config"
	applog "honeypos/internal/log"
)

const bodyLimit = 1 << 20 // 1 MiB

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	applog.Error(c, "server.error", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong. Please try again."})
}

// NewApp builds the HTTP API on top of d.
func NewApp(d *Deps, cfg config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "honeypos",
		BodyLimit:    bodyLimit,
		ErrorHandler: errorHandler,
	})

	rate := cfg.RateLimit
	if rate <= 0 {
		rate = 60
	}
	loginRate := cfg.LoginLimit
	if loginRate <= 0 {
		loginRate = 5
	}

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        rate,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/healthz"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	api := app.Group("/api/v1")
	api.Post("/login", limiter.New(limiter.Config{
		Max:        loginRate,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many attempts. Please try again later."})
		},
	}), d.AuthHandler.Login)

	// Everything below needs a valid bearer token.
	authed := api.Group("", RequireActor(d.Auth))
	authed.Get("/me", d.AuthHandler.Me)

	authed.Get("/products", d.ProductHandler.List)
	authed.Get("/products/search", d.SearchHandler.Search)
	authed.Get("/products/available", d.SearchHandler.Available)
	authed.Get("/products/:id", d.ProductHandler.Detail)
	authed.Get("/categories", d.CategoryHandler.List)
	authed.Get("/locations", d.LocationHandler.List)

	authed.Get("/inventory", d.InventoryHandler.List)
	authed.Get("/inventory/low", d.InventoryHandler.Low)
	authed.Get("/inventory/:locationId/:productId", d.InventoryHandler.Get)

	authed.Get("/promotions", d.PromotionHandler.List)
	authed.Post("/promotions/evaluate", d.PromotionHandler.Evaluate)
	authed.Post("/cart/quote", d.CartHandler.Quote)

	authed.Post("/sales", d.SaleHandler.Commit)
	authed.Get("/sales", d.SaleHandler.List)
	authed.Get("/sales/:id", d.SaleHandler.View)

	admin := authed.Group("", RequireAdmin())
	admin.Get("/users", d.AdminHandler.Users)
	admin.Post("/users", d.AdminHandler.CreateUser)
	admin.Post("/products", d.ProductHandler.Create)
	admin.Patch("/products/:id", d.ProductHandler.Update)
	admin.Post("/locations", d.LocationHandler.Create)
	admin.Patch("/locations/:id", d.LocationHandler.Update)
	admin.Get("/suppliers", d.SupplierHandler.List)
	admin.Post("/suppliers", d.SupplierHandler.Create)
	admin.Patch("/suppliers/:id", d.SupplierHandler.Update)
	admin.Post("/inventory", d.InventoryHandler.Add)
	admin.Put("/inventory/:locationId/:productId", d.InventoryHandler.Set)
	admin.Post("/promotions", d.PromotionHandler.Create)
	admin.Patch("/promotions/:id/active", d.PromotionHandler.SetActive)
	admin.Get("/reports/sales", d.SaleHandler.Report)
	admin.Get("/purchase-orders", d.OrderHandler.List)
	admin.Post("/purchase-orders", d.OrderHandler.Place)
	admin.Post("/purchase-orders/draft", d.OrderHandler.Draft)
	admin.Post("/purchase-orders/reorder", d.OrderHandler.Reorder)
	admin.Get("/purchase-orders/:id", d.OrderHandler.View)
	admin.Patch("/purchase-orders/:id", d.OrderHandler.Update)
	admin.Post("/purchase-orders/:id/status", d.OrderHandler.Status)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})
	return app
}
