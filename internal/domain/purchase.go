package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// Open reports whether the order can still move forward.
func (s OrderStatus) Open() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderShipped:
		return true
	}
	return false
}

// CanBecome reports whether s -> next is a legal transition.
func (s OrderStatus) CanBecome(next OrderStatus) bool {
	if next == OrderCancelled {
		return s.Open()
	}
	switch s {
	case OrderPending:
		return next == OrderConfirmed
	case OrderConfirmed:
		return next == OrderShipped
	case OrderShipped:
		return next == OrderDelivered
	}
	return false
}

type PurchaseOrderItem struct {
	ProductID  string          `json:"productId"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type PurchaseOrder struct {
	ID               string              `json:"id"`
	LocationID       string              `json:"locationId"`
	SupplierID       string              `json:"supplierId"`
	Items            []PurchaseOrderItem `json:"items"`
	TotalAmount      decimal.Decimal     `json:"totalAmount"`
	Status           OrderStatus         `json:"status"`
	OrderDate        time.Time           `json:"orderDate"`
	ExpectedDelivery time.Time           `json:"expectedDelivery"`
	ActualDelivery   *time.Time          `json:"actualDelivery,omitempty"`
	Notes            string              `json:"notes,omitempty"`
}
