package repos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"honeypos/internal/domain"
)

// SchemaVersion is written into every persisted envelope.
const SchemaVersion = 1

// Persistence keys, one per collection.
const (
	KeyProducts       = "honeyProducts"
	KeyLocations      = "honeyLocations"
	KeySuppliers      = "honeySuppliers"
	KeyInventory      = "honeyInventory"
	KeySales          = "honeySales"
	KeyPurchaseOrders = "honeyPurchaseOrders"
	KeyPromotions     = "honeyPromotions"
	KeyUsers          = "honeyUsers"
	KeyRedemptions    = "honeyRedemptions"
)

var ErrSchemaVersion = errors.New("unsupported schema version")

type envelope struct {
	Version int             `json:"version"`
	Items   json.RawMessage `json:"items"`
}

// Data holds every collection. Slices inside a published Data are never
// modified in place; a transaction clones a slice before its first write.
type Data struct {
	Products       []domain.Product
	Locations      []domain.Location
	Suppliers      []domain.Supplier
	Inventory      []domain.InventoryRecord
	Sales          []domain.Sale
	PurchaseOrders []domain.PurchaseOrder
	Promotions     []domain.Promotion
	Users          []domain.User
	Redemptions    []domain.Redemption
}

func (d *Data) fields() map[string]any {
	return map[string]any{
		KeyProducts:       &d.Products,
		KeyLocations:      &d.Locations,
		KeySuppliers:      &d.Suppliers,
		KeyInventory:      &d.Inventory,
		KeySales:          &d.Sales,
		KeyPurchaseOrders: &d.PurchaseOrders,
		KeyPromotions:     &d.Promotions,
		KeyUsers:          &d.Users,
		KeyRedemptions:    &d.Redemptions,
	}
}

// Store is the single process-wide owner of all collections. Writers are
// serialized; each Update persists and publishes in one step or not at all.
type Store struct {
	kv KV

	mu   sync.RWMutex // guards data
	data Data

	wmu sync.Mutex // serializes Update
}

func NewStore(kv KV) *Store { return &Store{kv: kv} }

// Load reads every collection. A missing key yields an empty collection;
// a bare JSON array is accepted as the unversioned legacy shape.
func (s *Store) Load(ctx context.Context) error {
	var d Data
	for key, ptr := range d.fields() {
		raw, err := s.kv.Get(ctx, key)
		if errors.Is(err, ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if err := decode(raw, ptr); err != nil {
			return fmt.Errorf("load %s: %w", key, err)
		}
	}

	s.wmu.Lock()
	defer s.wmu.Unlock()
	s.mu.Lock()
	s.data = d
	s.mu.Unlock()
	return nil
}

func decode(raw []byte, ptr any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		return json.Unmarshal(raw, ptr)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	if env.Version != SchemaVersion {
		return fmt.Errorf("%w: %d", ErrSchemaVersion, env.Version)
	}
	if len(env.Items) == 0 || string(env.Items) == "null" {
		return nil
	}
	return json.Unmarshal(env.Items, ptr)
}

func encode(v any) ([]byte, error) {
	items, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Version: SchemaVersion, Items: items})
}

// Snapshot returns the current collections. Callers must not modify the
// returned slices.
func (s *Store) Snapshot() Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// Update runs fn against a private working copy. If fn succeeds, every
// collection it touched is persisted in one batch and then published.
// If fn or the write fails, the store is unchanged.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	tx := &Tx{work: s.Snapshot(), dirty: map[string]bool{}}
	if err := fn(tx); err != nil {
		return err
	}
	if len(tx.dirty) == 0 {
		return nil
	}

	fields := tx.work.fields()
	entries := make(map[string][]byte, len(tx.dirty))
	for key := range tx.dirty {
		b, err := encode(fields[key])
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		entries[key] = b
	}
	if err := s.kv.PutBatch(ctx, entries); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = tx.work
	s.mu.Unlock()
	return nil
}

func (s *Store) Close() error { return s.kv.Close() }

// Tx is the working copy handed to Update. Read accessors return the
// current view; Mut accessors clone on first use and mark the collection
// for persistence.
type Tx struct {
	work  Data
	dirty map[string]bool
}

func mutable[T any](tx *Tx, key string, field *[]T) *[]T {
	if !tx.dirty[key] {
		*field = slices.Clone(*field)
		tx.dirty[key] = true
	}
	return field
}

func (tx *Tx) Products() []domain.Product { return tx.work.Products }
func (tx *Tx) Locations() []domain.Location { return tx.work.Locations }
func (tx *Tx) Suppliers() []domain.Supplier { return tx.work.Suppliers }
func (tx *Tx) Inventory() []domain.InventoryRecord { return tx.work.Inventory }
func (tx *Tx) Sales() []domain.Sale { return tx.work.Sales }
func (tx *Tx) PurchaseOrders() []domain.PurchaseOrder { return tx.work.PurchaseOrders }
func (tx *Tx) Promotions() []domain.Promotion { return tx.work.Promotions }
func (tx *Tx) Users() []domain.User { return tx.work.Users }
func (tx *Tx) Redemptions() []domain.Redemption { return tx.work.Redemptions }

func (tx *Tx) MutProducts() *[]domain.Product {
	return mutable(tx, KeyProducts, &tx.work.Products)
}

func (tx *Tx) MutLocations() *[]domain.Location {
	return mutable(tx, KeyLocations, &tx.work.Locations)
}

func (tx *Tx) MutSuppliers() *[]domain.Supplier {
	return mutable(tx, KeySuppliers, &tx.work.Suppliers)
}

func (tx *Tx) MutInventory() *[]domain.InventoryRecord {
	return mutable(tx, KeyInventory, &tx.work.Inventory)
}

func (tx *Tx) MutSales() *[]domain.Sale {
	return mutable(tx, KeySales, &tx.work.Sales)
}

func (tx *Tx) MutPurchaseOrders() *[]domain.PurchaseOrder {
	return mutable(tx, KeyPurchaseOrders, &tx.work.PurchaseOrders)
}

func (tx *Tx) MutPromotions() *[]domain.Promotion {
	return mutable(tx, KeyPromotions, &tx.work.Promotions)
}

func (tx *Tx) MutUsers() *[]domain.User {
	return mutable(tx, KeyUsers, &tx.work.Users)
}

func (tx *Tx) MutRedemptions() *[]domain.Redemption {
	return mutable(tx, KeyRedemptions, &tx.work.Redemptions)
}
