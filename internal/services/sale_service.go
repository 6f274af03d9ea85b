package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"honeypos/internal/domain"
	applog "honeypos/internal/log"
	"honeypos/internal/repos"
)

type CommitRequest struct {
	Items         []domain.SaleItem    `json:"items"`
	Gifts         []domain.GiftItem    `json:"gifts"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
	Customer      *domain.CustomerInfo `json:"customerInfo,omitempty"`
	Photos        []string             `json:"photos"`
	Notes         string               `json:"notes,omitempty"`
}

// LowStockFunc receives the records a commit left at or below their minimum.
type LowStockFunc func(ctx context.Context, recs []domain.InventoryRecord)

type SaleService struct {
	Store      *repos.Store
	Now        func() time.Time
	OnLowStock LowStockFunc
}

func NewSaleService(store *repos.Store) *SaleService {
	return &SaleService{Store: store, Now: nowUTC}
}

// checkRequest covers the rules that need no catalog data.
func checkRequest(req CommitRequest, actor domain.Actor) error {
	if actor.ID == "" {
		return invalid("actor.missing", "no authenticated actor")
	}
	if len(req.Items) == 0 {
		return invalid("cart.empty", "cart is empty")
	}
	if len(req.Photos) == 0 {
		return invalid("photos.missing", "at least one photo is required")
	}
	if !req.PaymentMethod.Valid() {
		return invalid("payment.method", "unknown payment method %q", req.PaymentMethod)
	}
	for _, it := range req.Items {
		if !it.Quantity.IsPositive() {
			return invalid("item.quantity", "quantity for %q must be positive", it.ProductID)
		}
		if it.UnitPrice.IsNegative() {
			return invalid("item.price", "price for %q cannot be negative", it.ProductID)
		}
	}
	for _, g := range req.Gifts {
		if !g.Quantity.IsPositive() {
			return invalid("gift.quantity", "gift quantity for %q must be positive", g.ProductID)
		}
	}
	return nil
}

// Commit validates the request, records the sale and decrements stock for
// every cart line in one transaction. Any failure leaves the store untouched.
// An empty locationID falls back to the actor's assigned location.
func (s *SaleService) Commit(ctx context.Context, req CommitRequest, actor domain.Actor, locationID string) (domain.Sale, error) {
	if err := checkRequest(req, actor); err != nil {
		return domain.Sale{}, err
	}
	if locationID == "" {
		locationID = actor.LocationID
	}
	if locationID == "" {
		return domain.Sale{}, invalid("location.missing", "no sale location")
	}

	now := s.Now()
	sale := domain.Sale{
		ID:            newID("sale"),
		LocationID:    locationID,
		PromoterID:    actor.ID,
		Items:         make([]domain.SaleItem, len(req.Items)),
		TotalAmount:   decimal.Zero,
		PaymentMethod: req.PaymentMethod,
		Gifts:         slices.Clone(req.Gifts),
		Photos:        slices.Clone(req.Photos),
		Timestamp:     now,
		IsVerified:    false,
		Notes:         req.Notes,
	}
	if sale.Gifts == nil {
		sale.Gifts = []domain.GiftItem{}
	}
	if req.Customer != nil {
		ci := *req.Customer
		sale.CustomerInfo = &ci
	}
	for i, it := range req.Items {
		it.TotalPrice = it.Quantity.Mul(it.UnitPrice)
		sale.Items[i] = it
		sale.TotalAmount = sale.TotalAmount.Add(it.TotalPrice)
	}

	var low []domain.InventoryRecord
	err := s.Store.Update(ctx, func(tx *repos.Tx) error {
		low = nil
		loc, err := findLocation(tx.Locations(), locationID)
		if err != nil {
			return invalid("location.missing", "unknown location %q", locationID)
		}
		if !loc.IsActive {
			return invalid("location.inactive", "location %q is not active", locationID)
		}
		for _, it := range sale.Items {
			if _, err := findProduct(tx.Products(), it.ProductID); err != nil {
				return invalid("item.product", "unknown product %q", it.ProductID)
			}
		}
		for _, g := range sale.Gifts {
			if _, err := findProduct(tx.Products(), g.ProductID); err != nil {
				return invalid("gift.product", "unknown gift product %q", g.ProductID)
			}
		}

		sales := tx.MutSales()
		*sales = append(*sales, sale)

		for _, it := range sale.Items {
			rec, err := deduct(tx, locationID, it.ProductID, it.Quantity, now)
			if err != nil {
				return err
			}
			if rec.IsLow() {
				low = appendUnique(low, rec)
			}
		}
		return redeem(tx, sale.Gifts)
	})
	if err != nil {
		return domain.Sale{}, err
	}

	applog.Audit(nil, "sale.commit", map[string]any{
		"sale": sale.ID, "location": locationID, "promoter": actor.ID,
		"total": sale.TotalAmount.String(), "items": len(sale.Items), "gifts": len(sale.Gifts),
	})
	if len(low) > 0 {
		applog.Warn(nil, "inventory.low", map[string]any{"location": locationID, "records": len(low)})
		if s.OnLowStock != nil {
			s.OnLowStock(ctx, low)
		}
	}
	return sale, nil
}

// appendUnique keeps the latest state of each record when a product appears
// on more than one cart line.
func appendUnique(recs []domain.InventoryRecord, rec domain.InventoryRecord) []domain.InventoryRecord {
	if i := slices.IndexFunc(recs, func(r domain.InventoryRecord) bool { return r.ID == rec.ID }); i >= 0 {
		recs[i] = rec
		return recs
	}
	return append(recs, rec)
}

// redeem bumps the counter of every promotion gift in the sale and rejects
// gifts past their promotion's MaxUses. Gifts without a promotion id are
// manual and carry no counter; a promotion id must name a stored promotion
// that offers the gifted product.
func redeem(tx *repos.Tx, gifts []domain.GiftItem) error {
	for _, g := range gifts {
		if g.PromotionID == "" {
			continue
		}
		i := slices.IndexFunc(tx.Promotions(), func(p domain.Promotion) bool { return p.ID == g.PromotionID })
		if i < 0 {
			return invalid("gift.promotion", "unknown promotion %q", g.PromotionID)
		}
		k := slices.IndexFunc(tx.Promotions()[i].Gifts, func(pg domain.PromotionGift) bool { return pg.ProductID == g.ProductID })
		if k < 0 {
			return invalid("gift.promotion", "promotion %q does not offer %q", g.PromotionID, g.ProductID)
		}
		limit := tx.Promotions()[i].Gifts[k].MaxUses

		rs := tx.MutRedemptions()
		j := slices.IndexFunc(*rs, func(r domain.Redemption) bool {
			return r.PromotionID == g.PromotionID && r.ProductID == g.ProductID
		})
		if j < 0 {
			*rs = append(*rs, domain.Redemption{PromotionID: g.PromotionID, ProductID: g.ProductID})
			j = len(*rs) - 1
		}
		if limit != nil && (*rs)[j].Uses >= *limit {
			return invalid("gift.limit", "promotion %q gift %q reached its limit of %d", g.PromotionID, g.ProductID, *limit)
		}
		(*rs)[j].Uses++
	}
	return nil
}

func (s *SaleService) Get(id string) (domain.Sale, error) {
	sales := s.Store.Snapshot().Sales
	i := slices.IndexFunc(sales, func(x domain.Sale) bool { return x.ID == id })
	if i < 0 {
		return domain.Sale{}, fmt.Errorf("sale %s: %w", id, ErrNotFound)
	}
	return sales[i], nil
}

// SaleFilter narrows List and Report. Zero values match everything; From
// and To are inclusive.
type SaleFilter struct {
	LocationID string
	PromoterID string
	From       time.Time
	To         time.Time
}

func (f SaleFilter) match(s domain.Sale) bool {
	if f.LocationID != "" && s.LocationID != f.LocationID {
		return false
	}
	if f.PromoterID != "" && s.PromoterID != f.PromoterID {
		return false
	}
	if !f.From.IsZero() && s.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && s.Timestamp.After(f.To) {
		return false
	}
	return true
}

// List returns matching sales in commit order.
func (s *SaleService) List(f SaleFilter) []domain.Sale {
	out := []domain.Sale{}
	for _, sale := range s.Store.Snapshot().Sales {
		if f.match(sale) {
			out = append(out, sale)
		}
	}
	return out
}

// Report aggregates matching sales. TopProducts is sorted by revenue,
// highest first, and capped at top when top > 0. DailyBreakdown is per UTC
// day in ascending order. TotalItems counts sale lines.
func (s *SaleService) Report(f SaleFilter, top int) domain.SalesReport {
	rep := domain.SalesReport{
		Start:          f.From,
		End:            f.To,
		LocationID:     f.LocationID,
		PromoterID:     f.PromoterID,
		TotalSales:     decimal.Zero,
		TopProducts:    []domain.ProductSales{},
		DailyBreakdown: []domain.DailySales{},
	}
	byProduct := map[string]*domain.ProductSales{}
	byDay := map[string]*domain.DailySales{}

	for _, sale := range s.List(f) {
		rep.SaleCount++
		rep.TotalSales = rep.TotalSales.Add(sale.TotalAmount)
		rep.TotalItems += len(sale.Items)

		day := sale.Timestamp.UTC().Format(time.DateOnly)
		d, ok := byDay[day]
		if !ok {
			d = &domain.DailySales{Date: day, Sales: decimal.Zero}
			byDay[day] = d
		}
		d.Sales = d.Sales.Add(sale.TotalAmount)
		d.Items += len(sale.Items)

		for _, it := range sale.Items {
			ps, ok := byProduct[it.ProductID]
			if !ok {
				ps = &domain.ProductSales{ProductID: it.ProductID, Quantity: decimal.Zero, Revenue: decimal.Zero}
				byProduct[it.ProductID] = ps
			}
			ps.Quantity = ps.Quantity.Add(it.Quantity)
			ps.Revenue = ps.Revenue.Add(it.TotalPrice)
		}
	}

	for _, ps := range byProduct {
		rep.TopProducts = append(rep.TopProducts, *ps)
	}
	slices.SortFunc(rep.TopProducts, func(a, b domain.ProductSales) int {
		if c := b.Revenue.Cmp(a.Revenue); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	if top > 0 && len(rep.TopProducts) > top {
		rep.TopProducts = rep.TopProducts[:top]
	}

	for _, d := range byDay {
		rep.DailyBreakdown = append(rep.DailyBreakdown, *d)
	}
	slices.SortFunc(rep.DailyBreakdown, func(a, b domain.DailySales) int { return cmp.Compare(a.Date, b.Date) })
	return rep
}
