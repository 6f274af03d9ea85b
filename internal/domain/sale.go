package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer:
		return true
	}
	return false
}

type SaleItem struct {
	ProductID  string           `json:"productId"`
	Quantity   decimal.Decimal  `json:"quantity"`
	UnitPrice  decimal.Decimal  `json:"unitPrice"`
	TotalPrice decimal.Decimal  `json:"totalPrice"`
	Weight     *decimal.Decimal `json:"weight,omitempty"` // honey
	Volume     *decimal.Decimal `json:"volume,omitempty"` // jam
}

type GiftItem struct {
	ProductID   string          `json:"productId"`
	Quantity    decimal.Decimal `json:"quantity"`
	Reason      string          `json:"reason"`
	PromotionID string          `json:"promotionId,omitempty"`
}

type CustomerInfo struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Sale is immutable once committed.
type Sale struct {
	ID            string          `json:"id"`
	LocationID    string          `json:"locationId"`
	PromoterID    string          `json:"promoterId"`
	Items         []SaleItem      `json:"items"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	CustomerInfo  *CustomerInfo   `json:"customerInfo,omitempty"`
	Gifts         []GiftItem      `json:"gifts"`
	Photos        []string        `json:"photos"`
	Timestamp     time.Time       `json:"timestamp"`
	IsVerified    bool            `json:"isVerified"`
	Notes         string          `json:"notes,omitempty"`
}

// FraudCheck is a data shape only; nothing populates it yet.
type FraudCheck struct {
	ID     string `json:"id"`
	SaleID string `json:"saleId"`
	Checks struct {
		WeightMatch    bool `json:"weightMatch"`
		PriceMatch     bool `json:"priceMatch"`
		PhotoRequired  bool `json:"photoRequired"`
		TimeReasonable bool `json:"timeReasonable"`
	} `json:"checks"`
	RiskScore  int        `json:"riskScore"`
	Flagged    bool       `json:"flagged"`
	ReviewedBy string     `json:"reviewedBy,omitempty"`
	ReviewedAt *time.Time `json:"reviewedAt,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

type ProductSales struct {
	ProductID string          `json:"productId"`
	Quantity  decimal.Decimal `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type DailySales struct {
	Date  string          `json:"date"` // YYYY-MM-DD, UTC
	Sales decimal.Decimal `json:"sales"`
	Items int             `json:"items"`
}

type SalesReport struct {
	Start          time.Time       `json:"start"`
	End            time.Time       `json:"end"`
	LocationID     string          `json:"locationId,omitempty"`
	PromoterID     string          `json:"promoterId,omitempty"`
	SaleCount      int             `json:"saleCount"`
	TotalSales     decimal.Decimal `json:"totalSales"`
	TotalItems     int             `json:"totalItems"`
	TopProducts    []ProductSales  `json:"topProducts"`
	DailyBreakdown []DailySales    `json:"dailyBreakdown"`
}
