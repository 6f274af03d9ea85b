package handlers

import (
	"honeypos/internal/config"
	"honeypos/internal/repos"
	"honeypos/internal/services"
)

type Deps struct {
	Auth       *services.AuthService
	Catalog    *services.CatalogService
	Inventory  *services.InventoryService
	Promos     *services.PromotionService
	Sales      *services.SaleService
	Purchasing *services.PurchasingService

	AuthHandler      *AuthHandler
	AdminHandler     *AdminHandler
	CategoryHandler  *CategoryHandler
	ProductHandler   *ProductHandler
	SearchHandler    *SearchHandler
	LocationHandler  *LocationHandler
	SupplierHandler  *SupplierHandler
	InventoryHandler *InventoryHandler
	PromotionHandler *PromotionHandler
	CartHandler      *CartHandler
	SaleHandler      *SaleHandler
	OrderHandler     *OrderHandler
}

func NewDeps(store *repos.Store, cfg config.Config) *Deps {
	authSvc := services.NewAuthService(store, cfg.JWTSecret, cfg.TokenTTL)
	catalogSvc := services.NewCatalogService(store)
	invSvc := services.NewInventoryService(store)
	promoSvc := services.NewPromotionService(store)
	saleSvc := services.NewSaleService(store)
	purchSvc := services.NewPurchasingService(store)
	if cfg.AutoReorder {
		saleSvc.OnLowStock = purchSvc.HandleLowStock
	}

	return &Deps{
		Auth:       authSvc,
		Catalog:    catalogSvc,
		Inventory:  invSvc,
		Promos:     promoSvc,
		Sales:      saleSvc,
		Purchasing: purchSvc,

		AuthHandler:      &AuthHandler{Auth: authSvc},
		AdminHandler:     &AdminHandler{Auth: authSvc},
		CategoryHandler:  &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc},
		SearchHandler:    &SearchHandler{Catalog: catalogSvc, Inventory: invSvc},
		LocationHandler:  &LocationHandler{Catalog: catalogSvc},
		SupplierHandler:  &SupplierHandler{Catalog: catalogSvc},
		InventoryHandler: &InventoryHandler{Inv: invSvc},
		PromotionHandler: &PromotionHandler{Promos: promoSvc},
		CartHandler:      &CartHandler{Catalog: catalogSvc, Promos: promoSvc},
		SaleHandler:      &SaleHandler{Sales: saleSvc},
		OrderHandler:     &OrderHandler{Purchasing: purchSvc},
	}
}
