package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeypos/internal/domain"
	"honeypos/internal/services"
)

func TestCommit_TotalsAndStock(t *testing.T) {
	f := newFixture(t)
	req := request(line(f.honey.ID, "1.5", "500"), line(f.jar.ID, "2", "150"))
	req.Items[0].TotalPrice = dec("1") // client-side totals are recomputed

	sale, err := f.sales.Commit(context.Background(), req, f.actor, "")
	require.NoError(t, err)

	assert.Equal(t, f.loc.ID, sale.LocationID)
	assert.Equal(t, f.actor.ID, sale.PromoterID)
	assert.False(t, sale.IsVerified)
	assert.Len(t, sale.Photos, 1)
	assert.Equal(t, clock, sale.Timestamp)
	decEqual(t, "750", sale.Items[0].TotalPrice)
	decEqual(t, "300", sale.Items[1].TotalPrice)
	decEqual(t, "1050", sale.TotalAmount)

	decEqual(t, "8.5", f.stock(t, f.honey.ID))
	decEqual(t, "3", f.stock(t, f.jar.ID))

	got, err := f.sales.Get(sale.ID)
	require.NoError(t, err)
	assert.Equal(t, sale.ID, got.ID)
}

func TestCommit_GiftsExcludedFromTotal(t *testing.T) {
	f := newFixture(t)
	req := request(line(f.honey.ID, "2", "500"))
	req.Gifts = []domain.GiftItem{{ProductID: f.jar.ID, Quantity: dec("1"), Reason: "Promotion: test"}}

	sale, err := f.sales.Commit(context.Background(), req, f.actor, f.loc.ID)
	require.NoError(t, err)
	decEqual(t, "1000", sale.TotalAmount)
	require.Len(t, sale.Gifts, 1)
	// gifts are not taken from stock
	decEqual(t, "5", f.stock(t, f.jar.ID))
}

func TestCommit_RepeatedLinesDecrementEach(t *testing.T) {
	f := newFixture(t)
	req := request(line(f.honey.ID, "1", "500"), line(f.honey.ID, "2", "480"))

	sale, err := f.sales.Commit(context.Background(), req, f.actor, "")
	require.NoError(t, err)
	decEqual(t, "1460", sale.TotalAmount)
	decEqual(t, "7", f.stock(t, f.honey.ID))
}

func TestCommit_ValidationLeavesStateUntouched(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(f *fixture, req *services.CommitRequest, actor *domain.Actor, loc *string)
		rule   string
	}{
		{"no photos", func(_ *fixture, r *services.CommitRequest, _ *domain.Actor, _ *string) { r.Photos = nil }, "photos.missing"},
		{"empty cart", func(_ *fixture, r *services.CommitRequest, _ *domain.Actor, _ *string) { r.Items = nil }, "cart.empty"},
		{"bad payment", func(_ *fixture, r *services.CommitRequest, _ *domain.Actor, _ *string) { r.PaymentMethod = "barter" }, "payment.method"},
		{"no actor", func(_ *fixture, _ *services.CommitRequest, a *domain.Actor, _ *string) { a.ID = "" }, "actor.missing"},
		{"zero quantity", func(_ *fixture, r *services.CommitRequest, _ *domain.Actor, _ *string) { r.Items[0].Quantity = dec("0") }, "item.quantity"},
		{"negative price", func(_ *fixture, r *services.CommitRequest, _ *domain.Actor, _ *string) { r.Items[0].UnitPrice = dec("-1") }, "item.price"},
		{"unknown product", func(_ *fixture, r *services.CommitRequest, _ *domain.Actor, _ *string) { r.Items[0].ProductID = "prod-missing" }, "item.product"},
		{"unknown location", func(_ *fixture, _ *services.CommitRequest, _ *domain.Actor, l *string) { *l = "loc-missing" }, "location.missing"},
		{"no location", func(_ *fixture, _ *services.CommitRequest, a *domain.Actor, l *string) { a.LocationID = ""; *l = "" }, "location.missing"},
		{"unknown gift", func(_ *fixture, r *services.CommitRequest, _ *domain.Actor, _ *string) {
			r.Gifts = []domain.GiftItem{{ProductID: "prod-missing", Quantity: dec("1")}}
		}, "gift.product"},
		{"zero gift", func(f *fixture, r *services.CommitRequest, _ *domain.Actor, _ *string) {
			r.Gifts = []domain.GiftItem{{ProductID: f.jar.ID, Quantity: dec("0")}}
		}, "gift.quantity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			req := request(line(f.honey.ID, "2", "500"), line(f.jar.ID, "1", "150"))
			actor := f.actor
			loc := f.loc.ID
			tc.mutate(f, &req, &actor, &loc)

			_, err := f.sales.Commit(context.Background(), req, actor, loc)
			require.ErrorIs(t, err, services.ErrValidation)
			assert.Equal(t, tc.rule, services.RuleOf(err))
			assert.Empty(t, f.sales.List(services.SaleFilter{}))
			decEqual(t, "10", f.stock(t, f.honey.ID))
			decEqual(t, "5", f.stock(t, f.jar.ID))
		})
	}
}

func TestCommit_InactiveLocation(t *testing.T) {
	f := newFixture(t)
	off := false
	_, err := f.catalog.UpdateLocation(context.Background(), f.loc.ID, services.LocationPatch{IsActive: &off})
	require.NoError(t, err)

	_, err = f.sales.Commit(context.Background(), request(line(f.honey.ID, "1", "500")), f.actor, "")
	assert.Equal(t, "location.inactive", services.RuleOf(err))
}

func TestCommit_InsufficientStockAbortsWholeSale(t *testing.T) {
	f := newFixture(t)
	req := request(line(f.jar.ID, "1", "150"), line(f.honey.ID, "11", "500"))

	_, err := f.sales.Commit(context.Background(), req, f.actor, "")
	require.ErrorIs(t, err, services.ErrInsufficientStock)
	decEqual(t, "5", f.stock(t, f.jar.ID))
	decEqual(t, "10", f.stock(t, f.honey.ID))
	assert.Empty(t, f.sales.List(services.SaleFilter{}))
}

func TestCommit_MissingStockRecord(t *testing.T) {
	f := newFixture(t)
	wax, err := f.catalog.AddProduct(context.Background(), domain.Product{
		Name: "Beeswax", Type: domain.ProductHoney, BasePrice: dec("90"), Unit: domain.UnitG, IsActive: true,
	})
	require.NoError(t, err)

	_, err = f.sales.Commit(context.Background(), request(line(wax.ID, "1", "90")), f.actor, "")
	require.ErrorIs(t, err, services.ErrNotFound)
	assert.Empty(t, f.sales.List(services.SaleFilter{}))
}

func TestCommit_FailedWriteLeavesMemoryUntouched(t *testing.T) {
	f := newFixture(t)
	before := f.store.Snapshot()
	f.kv.fail = true

	_, err := f.sales.Commit(context.Background(), request(line(f.honey.ID, "2", "500")), f.actor, "")
	require.Error(t, err)

	after := f.store.Snapshot()
	assert.Empty(t, after.Sales)
	assert.Equal(t, before.Inventory, after.Inventory)
	decEqual(t, "10", f.stock(t, f.honey.ID))

	f.kv.fail = false
	_, err = f.sales.Commit(context.Background(), request(line(f.honey.ID, "2", "500")), f.actor, "")
	require.NoError(t, err)
	decEqual(t, "8", f.stock(t, f.honey.ID))
}

func TestCommit_LowStockHookAtThreshold(t *testing.T) {
	f := newFixture(t)
	var got []domain.InventoryRecord
	f.sales.OnLowStock = func(_ context.Context, recs []domain.InventoryRecord) { got = recs }

	_, err := f.sales.Commit(context.Background(), request(line(f.honey.ID, "7", "500")), f.actor, "")
	require.NoError(t, err)
	assert.Nil(t, got, "3 kg left is above the minimum of 2")

	_, err = f.sales.Commit(context.Background(), request(line(f.honey.ID, "1", "500")), f.actor, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, f.honey.ID, got[0].ProductID)
	decEqual(t, "2", got[0].CurrentStock)
}

func TestCommit_GiftLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	one := 1
	promo, err := f.promos.Create(ctx, domain.Promotion{
		Name: "Jar with 2 kg", Type: domain.PromoBuyXGetY, IsActive: true,
		Conditions: []domain.PromotionCondition{{ProductID: f.honey.ID, MinQuantity: dec("2")}},
		Gifts:      []domain.PromotionGift{{ProductID: f.jar.ID, Quantity: dec("1"), MaxUses: &one}},
	})
	require.NoError(t, err)

	cart := []domain.SaleItem{line(f.honey.ID, "2", "500")}
	gifts := f.promos.Evaluate(cart, f.loc.ID)
	require.Len(t, gifts, 1)
	assert.Equal(t, promo.ID, gifts[0].PromotionID)

	req := request(cart...)
	req.Gifts = gifts
	_, err = f.sales.Commit(ctx, req, f.actor, "")
	require.NoError(t, err)

	assert.Empty(t, f.promos.Evaluate(cart, f.loc.ID), "limit reached")

	_, err = f.sales.Commit(ctx, req, f.actor, "")
	assert.Equal(t, "gift.limit", services.RuleOf(err))
	decEqual(t, "8", f.stock(t, f.honey.ID))
}

func TestCommit_GiftMustMatchPromotion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	promo, err := f.promos.Create(ctx, domain.Promotion{
		Name: "Jar with 2 kg", Type: domain.PromoGift, IsActive: true,
		Conditions: []domain.PromotionCondition{{ProductID: f.honey.ID, MinQuantity: dec("2")}},
		Gifts:      []domain.PromotionGift{{ProductID: f.jar.ID, Quantity: dec("1")}},
	})
	require.NoError(t, err)

	cases := []struct {
		name string
		gift domain.GiftItem
	}{
		{"unknown promotion", domain.GiftItem{ProductID: f.jar.ID, Quantity: dec("1"), PromotionID: "promo-missing"}},
		{"product not offered", domain.GiftItem{ProductID: f.honey.ID, Quantity: dec("1"), PromotionID: promo.ID}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := request(line(f.honey.ID, "2", "500"))
			req.Gifts = []domain.GiftItem{tc.gift}
			_, err := f.sales.Commit(ctx, req, f.actor, "")
			assert.Equal(t, "gift.promotion", services.RuleOf(err))
			assert.Empty(t, f.store.Snapshot().Sales)
			assert.Empty(t, f.store.Snapshot().Redemptions)
			decEqual(t, "10", f.stock(t, f.honey.ID))
		})
	}
}

func TestSales_ListAndReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := domain.Actor{ID: "user-other", Role: domain.RolePromoter, LocationID: f.loc.ID}

	_, err := f.sales.Commit(ctx, request(line(f.honey.ID, "2", "500")), f.actor, "")
	require.NoError(t, err)
	f.sales.Now = func() time.Time { return clock.Add(24 * time.Hour) }
	_, err = f.sales.Commit(ctx, request(line(f.jar.ID, "1", "150"), line(f.honey.ID, "1", "500")), other, "")
	require.NoError(t, err)

	assert.Len(t, f.sales.List(services.SaleFilter{}), 2)
	assert.Len(t, f.sales.List(services.SaleFilter{PromoterID: other.ID}), 1)
	assert.Len(t, f.sales.List(services.SaleFilter{From: clock.Add(time.Hour)}), 1)
	assert.Len(t, f.sales.List(services.SaleFilter{To: clock}), 1)

	rep := f.sales.Report(services.SaleFilter{LocationID: f.loc.ID}, 0)
	assert.Equal(t, 2, rep.SaleCount)
	assert.Equal(t, 3, rep.TotalItems)
	decEqual(t, "1650", rep.TotalSales)

	require.Len(t, rep.TopProducts, 2)
	assert.Equal(t, f.honey.ID, rep.TopProducts[0].ProductID)
	decEqual(t, "3", rep.TopProducts[0].Quantity)
	decEqual(t, "1500", rep.TopProducts[0].Revenue)

	require.Len(t, rep.DailyBreakdown, 2)
	assert.Equal(t, "2025-06-01", rep.DailyBreakdown[0].Date)
	assert.Equal(t, "2025-06-02", rep.DailyBreakdown[1].Date)
	assert.Equal(t, 2, rep.DailyBreakdown[1].Items)

	assert.Len(t, f.sales.Report(services.SaleFilter{}, 1).TopProducts, 1)
}

func TestSales_GetUnknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.sales.Get("sale-missing")
	assert.ErrorIs(t, err, services.ErrNotFound)
}
