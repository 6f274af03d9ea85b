package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PromotionType string

const (
	PromoBuyXGetY PromotionType = "buy_x_get_y"
	PromoDiscount PromotionType = "discount"
	PromoGift     PromotionType = "gift"
)

func (t PromotionType) Valid() bool {
	switch t {
	case PromoBuyXGetY, PromoDiscount, PromoGift:
		return true
	}
	return false
}

type PromotionCondition struct {
	ProductID   string           `json:"productId"`
	MinQuantity decimal.Decimal  `json:"minQuantity"`
	MinAmount   *decimal.Decimal `json:"minAmount,omitempty"`
}

type PromotionGift struct {
	ProductID string          `json:"productId"`
	Quantity  decimal.Decimal `json:"quantity"`
	MaxUses   *int            `json:"maxUses,omitempty"`
}

type Promotion struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Type        PromotionType        `json:"type"`
	Conditions  []PromotionCondition `json:"conditions"`
	Gifts       []PromotionGift      `json:"gifts"`
	IsActive    bool                 `json:"isActive"`
	StartDate   time.Time            `json:"startDate"`
	EndDate     *time.Time           `json:"endDate,omitempty"`
	Locations   []string             `json:"locations"`
}

// Redemption counts how many committed sales granted a promotion gift.
type Redemption struct {
	PromotionID string `json:"promotionId"`
	ProductID   string `json:"productId"`
	Uses        int    `json:"uses"`
}

// RedemptionKey identifies a (promotion, gift product) counter.
func RedemptionKey(promotionID, productID string) string {
	return promotionID + "|" + productID
}
