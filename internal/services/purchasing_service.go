package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"honeypos/internal/domain"
	applog "honeypos/internal/log"
	"honeypos/internal/repos"
)

const reorderNote = "Automatic order due to low stock"

type PurchasingService struct {
	Store *repos.Store
	Now   func() time.Time
}

func NewPurchasingService(store *repos.Store) *PurchasingService {
	return &PurchasingService{Store: store, Now: nowUTC}
}

type NewOrder struct {
	LocationID       string                     `json:"locationId"`
	SupplierID       string                     `json:"supplierId"`
	Items            []domain.PurchaseOrderItem `json:"items"`
	ExpectedDelivery time.Time                  `json:"expectedDelivery"`
	Notes            string                     `json:"notes,omitempty"`
}

type OrderPatch struct {
	ExpectedDelivery *time.Time `json:"expectedDelivery"`
	Notes            *string    `json:"notes"`
}

func checkOrder(tx *repos.Tx, o domain.PurchaseOrder) error {
	if _, err := findLocation(tx.Locations(), o.LocationID); err != nil {
		return invalid("order.location", "unknown location %q", o.LocationID)
	}
	if _, err := findSupplier(tx.Suppliers(), o.SupplierID); err != nil {
		return invalid("order.supplier", "unknown supplier %q", o.SupplierID)
	}
	if len(o.Items) == 0 {
		return invalid("order.items", "order has no items")
	}
	for _, it := range o.Items {
		if _, err := findProduct(tx.Products(), it.ProductID); err != nil {
			return invalid("order.item", "unknown product %q", it.ProductID)
		}
		if !it.Quantity.IsPositive() {
			return invalid("order.item", "quantity for %q must be positive", it.ProductID)
		}
		if it.UnitPrice.IsNegative() {
			return invalid("order.item", "price for %q cannot be negative", it.ProductID)
		}
	}
	return nil
}

func priced(items []domain.PurchaseOrderItem) ([]domain.PurchaseOrderItem, decimal.Decimal) {
	out := make([]domain.PurchaseOrderItem, len(items))
	total := decimal.Zero
	for i, it := range items {
		it.TotalPrice = it.Quantity.Mul(it.UnitPrice)
		out[i] = it
		total = total.Add(it.TotalPrice)
	}
	return out, total
}

// Create stores a pending order with line totals recomputed.
func (s *PurchasingService) Create(ctx context.Context, req NewOrder) (domain.PurchaseOrder, error) {
	now := s.Now()
	items, total := priced(req.Items)
	o := domain.PurchaseOrder{
		ID:               newID("order"),
		LocationID:       req.LocationID,
		SupplierID:       req.SupplierID,
		Items:            items,
		TotalAmount:      total,
		Status:           domain.OrderPending,
		OrderDate:        now,
		ExpectedDelivery: req.ExpectedDelivery,
		Notes:            req.Notes,
	}
	if o.ExpectedDelivery.IsZero() {
		o.ExpectedDelivery = now
	}
	err := s.Store.Update(ctx, func(tx *repos.Tx) error {
		if err := checkOrder(tx, o); err != nil {
			return err
		}
		orders := tx.MutPurchaseOrders()
		*orders = append(*orders, o)
		return nil
	})
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	applog.Audit(nil, "order.create", map[string]any{
		"order": o.ID, "location": o.LocationID, "supplier": o.SupplierID, "total": o.TotalAmount.String(),
	})
	return o, nil
}

func orderIndex(orders []domain.PurchaseOrder, id string) int {
	return slices.IndexFunc(orders, func(o domain.PurchaseOrder) bool { return o.ID == id })
}

// Update changes notes or expected delivery of an open order.
func (s *PurchasingService) Update(ctx context.Context, id string, patch OrderPatch) (domain.PurchaseOrder, error) {
	var out domain.PurchaseOrder
	err := s.Store.Update(ctx, func(tx *repos.Tx) error {
		i := orderIndex(tx.PurchaseOrders(), id)
		if i < 0 {
			return fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		if !tx.PurchaseOrders()[i].Status.Open() {
			return invalid("order.status", "order %s is %s", id, tx.PurchaseOrders()[i].Status)
		}
		orders := tx.MutPurchaseOrders()
		set(&(*orders)[i].ExpectedDelivery, patch.ExpectedDelivery)
		set(&(*orders)[i].Notes, patch.Notes)
		out = (*orders)[i]
		return nil
	})
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	applog.Audit(nil, "order.update", map[string]any{"order": id})
	return out, nil
}

// Transition moves an order to next. Delivery restocks every line at the
// order's location in the same transaction.
func (s *PurchasingService) Transition(ctx context.Context, id string, next domain.OrderStatus) (domain.PurchaseOrder, error) {
	var out domain.PurchaseOrder
	var from domain.OrderStatus
	now := s.Now()
	err := s.Store.Update(ctx, func(tx *repos.Tx) error {
		i := orderIndex(tx.PurchaseOrders(), id)
		if i < 0 {
			return fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		from = tx.PurchaseOrders()[i].Status
		if !from.CanBecome(next) {
			return invalid("order.status", "cannot move order from %s to %s", from, next)
		}
		orders := tx.MutPurchaseOrders()
		o := &(*orders)[i]
		o.Status = next
		if next == domain.OrderDelivered {
			o.ActualDelivery = &now
			for _, it := range o.Items {
				restock(tx, o.LocationID, it.ProductID, it.Quantity, now)
			}
		}
		out = *o
		return nil
	})
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	applog.Audit(nil, "order.status", map[string]any{"order": id, "from": string(from), "to": string(next)})
	return out, nil
}

func (s *PurchasingService) Get(id string) (domain.PurchaseOrder, error) {
	orders := s.Store.Snapshot().PurchaseOrders
	i := orderIndex(orders, id)
	if i < 0 {
		return domain.PurchaseOrder{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return orders[i], nil
}

// List filters by status and location; empty values match everything.
func (s *PurchasingService) List(status domain.OrderStatus, locationID string) []domain.PurchaseOrder {
	out := []domain.PurchaseOrder{}
	for _, o := range s.Store.Snapshot().PurchaseOrders {
		if status != "" && o.Status != status {
			continue
		}
		if locationID != "" && o.LocationID != locationID {
			continue
		}
		out = append(out, o)
	}
	return out
}

// draft builds a restocking order for rec from the first active supplier
// carrying the product. A record already at or above its ceiling with no
// supplier minimum yields no order.
func draft(tx *repos.Tx, rec domain.InventoryRecord, now time.Time) (domain.PurchaseOrder, error) {
	for _, sup := range tx.Suppliers() {
		if !sup.IsActive {
			continue
		}
		offer, ok := sup.Offer(rec.ProductID)
		if !ok {
			continue
		}
		qty := decimal.Max(offer.MinOrderQuantity, rec.MaxStock.Sub(rec.CurrentStock))
		if !qty.IsPositive() {
			return domain.PurchaseOrder{}, invalid("order.quantity", "nothing to reorder for %s", rec.ProductID)
		}
		items, total := priced([]domain.PurchaseOrderItem{{
			ProductID: rec.ProductID,
			Quantity:  qty,
			UnitPrice: offer.PurchasePrice,
		}})
		return domain.PurchaseOrder{
			ID:               newID("order"),
			LocationID:       rec.LocationID,
			SupplierID:       sup.ID,
			Items:            items,
			TotalAmount:      total,
			Status:           domain.OrderPending,
			OrderDate:        now,
			ExpectedDelivery: now.AddDate(0, 0, offer.DeliveryDays),
			Notes:            reorderNote,
		}, nil
	}
	return domain.PurchaseOrder{}, fmt.Errorf("supplier for %s: %w", rec.ProductID, ErrNotFound)
}

// hasOpenOrder reports whether an unfinished order already covers the pair.
func hasOpenOrder(orders []domain.PurchaseOrder, locationID, productID string) bool {
	for _, o := range orders {
		if o.LocationID != locationID || !o.Status.Open() {
			continue
		}
		if slices.ContainsFunc(o.Items, func(it domain.PurchaseOrderItem) bool { return it.ProductID == productID }) {
			return true
		}
	}
	return false
}

// DraftReorder creates a restocking order for one inventory record.
func (s *PurchasingService) DraftReorder(ctx context.Context, locationID, productID string) (domain.PurchaseOrder, error) {
	var out domain.PurchaseOrder
	err := s.Store.Update(ctx, func(tx *repos.Tx) error {
		i := recordIndex(tx.Inventory(), locationID, productID)
		if i < 0 {
			return fmt.Errorf("stock %s/%s: %w", locationID, productID, ErrNotFound)
		}
		o, err := draft(tx, tx.Inventory()[i], s.Now())
		if err != nil {
			return err
		}
		orders := tx.MutPurchaseOrders()
		*orders = append(*orders, o)
		out = o
		return nil
	})
	if err != nil {
		return domain.PurchaseOrder{}, err
	}
	applog.Audit(nil, "order.reorder", map[string]any{
		"order": out.ID, "location": locationID, "product": productID, "quantity": out.Items[0].Quantity.String(),
	})
	return out, nil
}

// ReorderLowStock drafts one order per low record that has no open order
// yet. Records no supplier carries are logged and skipped.
func (s *PurchasingService) ReorderLowStock(ctx context.Context, locationID string) ([]domain.PurchaseOrder, error) {
	return s.reorder(ctx, func(tx *repos.Tx) []domain.InventoryRecord {
		return filterRecords(tx.Inventory(), locationID, true)
	})
}

// HandleLowStock is a LowStockFunc that reorders the given records.
func (s *PurchasingService) HandleLowStock(ctx context.Context, recs []domain.InventoryRecord) {
	keys := make([][2]string, len(recs))
	for i, r := range recs {
		keys[i] = [2]string{r.LocationID, r.ProductID}
	}
	_, err := s.reorder(ctx, func(tx *repos.Tx) []domain.InventoryRecord {
		out := []domain.InventoryRecord{}
		for _, k := range keys {
			if i := recordIndex(tx.Inventory(), k[0], k[1]); i >= 0 && tx.Inventory()[i].IsLow() {
				out = append(out, tx.Inventory()[i])
			}
		}
		return out
	})
	if err != nil {
		applog.Error(nil, "order.reorder", err, map[string]any{"records": len(recs)})
	}
}

func (s *PurchasingService) reorder(ctx context.Context, pick func(tx *repos.Tx) []domain.InventoryRecord) ([]domain.PurchaseOrder, error) {
	var created []domain.PurchaseOrder
	now := s.Now()
	err := s.Store.Update(ctx, func(tx *repos.Tx) error {
		created = nil
		for _, rec := range pick(tx) {
			if hasOpenOrder(tx.PurchaseOrders(), rec.LocationID, rec.ProductID) {
				continue
			}
			o, err := draft(tx, rec, now)
			if err != nil {
				applog.Warn(nil, "order.reorder.skip", map[string]any{
					"location": rec.LocationID, "product": rec.ProductID, "reason": err.Error(),
				})
				continue
			}
			orders := tx.MutPurchaseOrders()
			*orders = append(*orders, o)
			created = append(created, o)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, o := range created {
		applog.Audit(nil, "order.reorder", map[string]any{
			"order": o.ID, "location": o.LocationID, "product": o.Items[0].ProductID,
		})
	}
	if created == nil {
		created = []domain.PurchaseOrder{}
	}
	return created, nil
}
