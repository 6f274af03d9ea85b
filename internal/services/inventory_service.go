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

// InventoryService is the stock ledger: one record per (location, product).
type InventoryService struct {
	Store *repos.Store
	Now   func() time.Time
}

func NewInventoryService(store *repos.Store) *InventoryService {
	return &InventoryService{Store: store, Now: nowUTC}
}

func recordIndex(recs []domain.InventoryRecord, locationID, productID string) int {
	return slices.IndexFunc(recs, func(r domain.InventoryRecord) bool {
		return r.LocationID == locationID && r.ProductID == productID
	})
}

// GetStock returns ErrNotFound when the pair has no record.
func (s *InventoryService) GetStock(locationID, productID string) (domain.InventoryRecord, error) {
	recs := s.Store.Snapshot().Inventory
	i := recordIndex(recs, locationID, productID)
	if i < 0 {
		return domain.InventoryRecord{}, fmt.Errorf("stock %s/%s: %w", locationID, productID, ErrNotFound)
	}
	return recs[i], nil
}

// SetStock overwrites the current stock of an existing record.
func (s *InventoryService) SetStock(ctx context.Context, locationID, productID string, qty decimal.Decimal) (domain.InventoryRecord, error) {
	if qty.IsNegative() {
		return domain.InventoryRecord{}, invalid("stock.negative", "stock cannot be negative")
	}
	var before, after domain.InventoryRecord
	err := s.Store.Update(ctx, func(tx *repos.Tx) error {
		i := recordIndex(tx.Inventory(), locationID, productID)
		if i < 0 {
			return fmt.Errorf("stock %s/%s: %w", locationID, productID, ErrNotFound)
		}
		recs := tx.MutInventory()
		before = (*recs)[i]
		(*recs)[i].CurrentStock = qty
		(*recs)[i].LastUpdated = s.Now()
		after = (*recs)[i]
		return nil
	})
	if err != nil {
		return domain.InventoryRecord{}, err
	}
	applog.Audit(nil, "inventory.set", map[string]any{
		"location": locationID, "product": productID,
		"before": before.CurrentStock.String(), "after": after.CurrentStock.String(),
	})
	return after, nil
}

// AddRecord creates the record for a (location, product) pair. A zero max
// defaults to twice the opening stock.
func (s *InventoryService) AddRecord(ctx context.Context, locationID, productID string, current, minStock, maxStock decimal.Decimal) (domain.InventoryRecord, error) {
	if current.IsNegative() || minStock.IsNegative() || maxStock.IsNegative() {
		return domain.InventoryRecord{}, invalid("stock.negative", "stock levels cannot be negative")
	}
	if maxStock.IsZero() {
		maxStock = current.Mul(decimal.NewFromInt(2))
	}
	now := s.Now()
	rec := domain.InventoryRecord{
		ID:           newID("inv"),
		LocationID:   locationID,
		ProductID:    productID,
		CurrentStock: current,
		MinStock:     minStock,
		MaxStock:     maxStock,
		LastUpdated:  now,
		LastRestock:  now,
	}
	err := s.Store.Update(ctx, func(tx *repos.Tx) error {
		if _, err := findLocation(tx.Locations(), locationID); err != nil {
			return invalid("stock.location", "unknown location %q", locationID)
		}
		if _, err := findProduct(tx.Products(), productID); err != nil {
			return invalid("stock.product", "unknown product %q", productID)
		}
		if recordIndex(tx.Inventory(), locationID, productID) >= 0 {
			return fmt.Errorf("stock %s/%s: %w", locationID, productID, ErrDuplicateRecord)
		}
		recs := tx.MutInventory()
		*recs = append(*recs, rec)
		return nil
	})
	if err != nil {
		return domain.InventoryRecord{}, err
	}
	applog.Audit(nil, "inventory.add", map[string]any{
		"location": locationID, "product": productID, "stock": current.String(),
	})
	return rec, nil
}

// List returns the records of one location, or all records when locationID is empty.
func (s *InventoryService) List(locationID string) []domain.InventoryRecord {
	return filterRecords(s.Store.Snapshot().Inventory, locationID, false)
}

// ListLowStock returns exactly the records with currentStock <= minStock.
func (s *InventoryService) ListLowStock(locationID string) []domain.InventoryRecord {
	return filterRecords(s.Store.Snapshot().Inventory, locationID, true)
}

// Available lists the active products with stock above zero at locationID.
func (s *InventoryService) Available(locationID string) []domain.Product {
	d := s.Store.Snapshot()
	out := []domain.Product{}
	for _, p := range d.Products {
		if !p.IsActive {
			continue
		}
		if i := recordIndex(d.Inventory, locationID, p.ID); i >= 0 && d.Inventory[i].CurrentStock.IsPositive() {
			out = append(out, p)
		}
	}
	return out
}

func filterRecords(recs []domain.InventoryRecord, locationID string, lowOnly bool) []domain.InventoryRecord {
	out := []domain.InventoryRecord{}
	for _, r := range recs {
		if locationID != "" && r.LocationID != locationID {
			continue
		}
		if lowOnly && !r.IsLow() {
			continue
		}
		out = append(out, r)
	}
	return out
}

// deduct subtracts qty from a record inside tx. Stock never goes negative.
func deduct(tx *repos.Tx, locationID, productID string, qty decimal.Decimal, now time.Time) (domain.InventoryRecord, error) {
	i := recordIndex(tx.Inventory(), locationID, productID)
	if i < 0 {
		return domain.InventoryRecord{}, fmt.Errorf("stock %s/%s: %w", locationID, productID, ErrNotFound)
	}
	cur := tx.Inventory()[i].CurrentStock
	if cur.LessThan(qty) {
		return domain.InventoryRecord{}, fmt.Errorf("%w for %s in %s (need %s, have %s)",
			ErrInsufficientStock, productID, locationID, qty, cur)
	}
	recs := tx.MutInventory()
	(*recs)[i].CurrentStock = cur.Sub(qty)
	(*recs)[i].LastUpdated = now
	return (*recs)[i], nil
}

// restock adds qty inside tx, creating the record when the pair has none.
func restock(tx *repos.Tx, locationID, productID string, qty decimal.Decimal, now time.Time) domain.InventoryRecord {
	recs := tx.MutInventory()
	i := recordIndex(*recs, locationID, productID)
	if i < 0 {
		*recs = append(*recs, domain.InventoryRecord{
			ID:           newID("inv"),
			LocationID:   locationID,
			ProductID:    productID,
			CurrentStock: qty,
			MaxStock:     qty,
			LastUpdated:  now,
			LastRestock:  now,
		})
		return (*recs)[len(*recs)-1]
	}
	(*recs)[i].CurrentStock = (*recs)[i].CurrentStock.Add(qty)
	(*recs)[i].LastUpdated = now
	(*recs)[i].LastRestock = now
	return (*recs)[i]
}
