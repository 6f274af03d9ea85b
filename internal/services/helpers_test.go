package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"honeypos/internal/domain"
	"honeypos/internal/repos"
	"honeypos/internal/services"
)

var clock = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return clock }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// flakyKV fails every batch write while fail is set.
type flakyKV struct {
	repos.KV
	fail bool
}

func (f *flakyKV) PutBatch(ctx context.Context, entries map[string][]byte) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.KV.PutBatch(ctx, entries)
}

type fixture struct {
	kv         *flakyKV
	store      *repos.Store
	catalog    *services.CatalogService
	inventory  *services.InventoryService
	promos     *services.PromotionService
	sales      *services.SaleService
	purchasing *services.PurchasingService
	auth       *services.AuthService

	loc   domain.Location
	honey domain.Product
	jar   domain.Product
	actor domain.Actor
}

func memStore(t *testing.T) (*repos.Store, *flakyKV) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	kv := &flakyKV{KV: repos.NewSQLiteKV(db)}
	store := repos.NewStore(kv)
	require.NoError(t, store.Load(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store, kv
}

// newFixture returns services over an in-memory store holding one location,
// a honey product with 10 kg in stock (min 2) and a jam jar with 5 in stock (min 1).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store, kv := memStore(t)

	f := &fixture{
		kv:         kv,
		store:      store,
		catalog:    services.NewCatalogService(store),
		inventory:  services.NewInventoryService(store),
		promos:     services.NewPromotionService(store),
		sales:      services.NewSaleService(store),
		purchasing: services.NewPurchasingService(store),
		auth:       services.NewAuthService(store, "test-secret", time.Hour),
	}
	f.inventory.Now = fixedNow
	f.promos.Now = fixedNow
	f.sales.Now = fixedNow
	f.purchasing.Now = fixedNow
	f.auth.Now = fixedNow

	var err error
	f.loc, err = f.catalog.AddLocation(ctx, domain.Location{Name: "Center", Address: "15 Lenin St.", IsActive: true})
	require.NoError(t, err)
	f.honey, err = f.catalog.AddProduct(ctx, domain.Product{
		Name: "Linden honey", Type: domain.ProductHoney, Category: "honey",
		BasePrice: dec("500"), Unit: domain.UnitKg, MinWeight: dec("0.25"), MaxWeight: dec("3"), IsActive: true,
	})
	require.NoError(t, err)
	f.jar, err = f.catalog.AddProduct(ctx, domain.Product{
		Name: "Raspberry jam", Type: domain.ProductJam, Category: "jam",
		BasePrice: dec("150"), Unit: domain.UnitMl, IsActive: true,
	})
	require.NoError(t, err)

	_, err = f.inventory.AddRecord(ctx, f.loc.ID, f.honey.ID, dec("10"), dec("2"), dec("20"))
	require.NoError(t, err)
	_, err = f.inventory.AddRecord(ctx, f.loc.ID, f.jar.ID, dec("5"), dec("1"), dec("10"))
	require.NoError(t, err)

	f.actor = domain.Actor{ID: "user-promoter", Role: domain.RolePromoter, LocationID: f.loc.ID}
	return f
}

func (f *fixture) stock(t *testing.T, productID string) decimal.Decimal {
	t.Helper()
	rec, err := f.inventory.GetStock(f.loc.ID, productID)
	require.NoError(t, err)
	return rec.CurrentStock
}

func line(productID, qty, price string) domain.SaleItem {
	q, u := dec(qty), dec(price)
	return domain.SaleItem{ProductID: productID, Quantity: q, UnitPrice: u, TotalPrice: q.Mul(u)}
}

func request(items ...domain.SaleItem) services.CommitRequest {
	return services.CommitRequest{
		Items:         items,
		PaymentMethod: domain.PaymentCash,
		Photos:        []string{"data:image/jpeg;base64,AAAA"},
	}
}

func decEqual(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}
