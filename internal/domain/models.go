package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductType string

const (
	ProductHoney ProductType = "honey"
	ProductJam   ProductType = "jam"
)

func (t ProductType) Valid() bool {
	switch t {
	case ProductHoney, ProductJam:
		return true
	}
	return false
}

type Unit string

const (
	UnitKg Unit = "kg"
	UnitG  Unit = "g"
	UnitL  Unit = "l"
	UnitMl Unit = "ml"
)

func (u Unit) Valid() bool {
	switch u {
	case UnitKg, UnitG, UnitL, UnitMl:
		return true
	}
	return false
}

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        ProductType     `json:"type"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	BasePrice   decimal.Decimal `json:"basePrice"`
	Unit        Unit            `json:"unit"`
	MinWeight   decimal.Decimal `json:"minWeight"`
	MaxWeight   decimal.Decimal `json:"maxWeight"`
	IsActive    bool            `json:"isActive"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location is a sales point.
type Location struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Address     string       `json:"address"`
	ManagerID   string       `json:"managerId"`
	IsActive    bool         `json:"isActive"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type SupplierProduct struct {
	ProductID        string          `json:"productId"`
	PurchasePrice    decimal.Decimal `json:"purchasePrice"`
	MinOrderQuantity decimal.Decimal `json:"minOrderQuantity"`
	DeliveryDays     int             `json:"deliveryDays"`
}

type Supplier struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	ContactPerson string            `json:"contactPerson"`
	Phone         string            `json:"phone"`
	Email         string            `json:"email"`
	Products      []SupplierProduct `json:"products"`
	IsActive      bool              `json:"isActive"`
}

// Offer returns the supplier's terms for a product, if it carries it.
func (s Supplier) Offer(productID string) (SupplierProduct, bool) {
	for _, sp := range s.Products {
		if sp.ProductID == productID {
			return sp, true
		}
	}
	return SupplierProduct{}, false
}

// InventoryRecord is keyed by (LocationID, ProductID); one record per pair.
type InventoryRecord struct {
	ID           string          `json:"id"`
	LocationID   string          `json:"locationId"`
	ProductID    string          `json:"productId"`
	CurrentStock decimal.Decimal `json:"currentStock"`
	MinStock     decimal.Decimal `json:"minStock"`
	MaxStock     decimal.Decimal `json:"maxStock"`
	LastUpdated  time.Time       `json:"lastUpdated"`
	LastRestock  time.Time       `json:"lastRestock"`
}

// IsLow reports currentStock <= minStock.
func (r InventoryRecord) IsLow() bool {
	return r.CurrentStock.LessThanOrEqual(r.MinStock)
}
