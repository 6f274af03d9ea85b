package handlers_test

import (
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeypos/internal/domain"
)

func saleBody(locationID string, lines ...map[string]any) map[string]any {
	b := map[string]any{
		"items":         lines,
		"paymentMethod": "cash",
		"photos":        []string{"receipt-1.jpg"},
	}
	if locationID != "" {
		b["locationId"] = locationID
	}
	return b
}

func saleLine(productID, qty, price, clientTotal string) map[string]any {
	return map[string]any{"productId": productID, "quantity": qty, "unitPrice": price, "totalPrice": clientTotal}
}

func TestSaleCommitRecomputesTotals(t *testing.T) {
	e := newEnv(t, testConfig())

	var resp *http.Response
	var body []byte
	logs := captureLogs(t, func() {
		resp, body = e.do(t, "POST", "/api/v1/sales", e.promoter,
			saleBody("", saleLine(e.honey.ID, "2", "500", "1"), saleLine(e.jar.ID, "1", "150", "150")))
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	sale := decode[domain.Sale](t, body)
	assert.Equal(t, e.loc.ID, sale.LocationID)
	assert.True(t, sale.TotalAmount.Equal(decimal.NewFromInt(1150)), sale.TotalAmount.String())
	assert.True(t, sale.Items[0].TotalPrice.Equal(decimal.NewFromInt(1000)))
	assert.False(t, sale.IsVerified)

	assert.True(t, e.stock(t, e.loc.ID, e.honey.ID).Equal(decimal.NewFromInt(8)))
	assert.True(t, e.stock(t, e.loc.ID, e.jar.ID).Equal(decimal.NewFromInt(4)))

	audit, ok := findLog(logs, "audit", "sale.place")
	require.True(t, ok, "expected sale.place audit log")
	assert.Equal(t, true, audit.Fields["mismatch"])
	assert.Equal(t, "151", audit.Fields["client_total"])
	assert.Equal(t, "1150", audit.Fields["server_total"])
}

func TestSaleCommitIsAllOrNothing(t *testing.T) {
	e := newEnv(t, testConfig())

	resp, body := e.do(t, "POST", "/api/v1/sales", e.promoter,
		saleBody("", saleLine(e.jar.ID, "1", "150", "150"), saleLine(e.honey.ID, "11", "500", "5500")))
	assert.Equal(t, http.StatusConflict, resp.StatusCode, string(body))

	assert.True(t, e.stock(t, e.loc.ID, e.jar.ID).Equal(decimal.NewFromInt(5)))
	assert.True(t, e.stock(t, e.loc.ID, e.honey.ID).Equal(decimal.NewFromInt(10)))
	assert.Empty(t, e.store.Snapshot().Sales)
}

func TestSaleCommitValidation(t *testing.T) {
	e := newEnv(t, testConfig())

	cases := []struct {
		name string
		body map[string]any
		rule string
	}{
		{"empty cart", saleBody(""), "cart.empty"},
		{"zero quantity", saleBody("", saleLine(e.honey.ID, "0", "500", "0")), "item.quantity"},
		{"unknown product", saleBody("", saleLine("prod-missing", "1", "500", "500")), "item.product"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := e.do(t, "POST", "/api/v1/sales", e.promoter, tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tc.rule, decode[map[string]any](t, body)["rule"])
		})
	}

	noPhotos := saleBody("", saleLine(e.honey.ID, "1", "500", "500"))
	delete(noPhotos, "photos")
	resp, body := e.do(t, "POST", "/api/v1/sales", e.promoter, noPhotos)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "photos.missing", decode[map[string]any](t, body)["rule"])

	// promoters cannot sell for another location
	resp, _ = e.do(t, "POST", "/api/v1/sales", e.promoter, saleBody(e.other.ID, saleLine(e.honey.ID, "1", "500", "500")))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, e.store.Snapshot().Sales)
}

func TestSaleVisibleOnlyAtOwnLocation(t *testing.T) {
	e := newEnv(t, testConfig())

	resp, body := e.do(t, "POST", "/api/v1/sales", e.admin, saleBody(e.other.ID, saleLine(e.honey.ID, "1", "500", "500")))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	elsewhere := decode[domain.Sale](t, body)

	resp, body = e.do(t, "POST", "/api/v1/sales", e.promoter, saleBody("", saleLine(e.honey.ID, "1", "500", "500")))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	own := decode[domain.Sale](t, body)

	resp, _ = e.do(t, "GET", "/api/v1/sales/"+elsewhere.ID, e.promoter, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = e.do(t, "GET", "/api/v1/sales/"+own.ID, e.promoter, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = e.do(t, "GET", "/api/v1/sales/"+elsewhere.ID, e.admin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, body = e.do(t, "GET", "/api/v1/sales", e.promoter, nil)
	list := decode[[]domain.Sale](t, body)
	require.Len(t, list, 1)
	assert.Equal(t, own.ID, list[0].ID)
}

func TestSalesReport(t *testing.T) {
	e := newEnv(t, testConfig())
	for _, qty := range []string{"2", "1"} {
		resp, body := e.do(t, "POST", "/api/v1/sales", e.promoter, saleBody("", saleLine(e.honey.ID, qty, "500", "0")))
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	}
	resp, body := e.do(t, "POST", "/api/v1/sales", e.promoter, saleBody("", saleLine(e.jar.ID, "1", "150", "150")))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = e.do(t, "GET", "/api/v1/reports/sales?top=1&locationId="+e.loc.ID, e.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	rep := decode[domain.SalesReport](t, body)
	assert.Equal(t, 3, rep.SaleCount)
	assert.Equal(t, 3, rep.TotalItems)
	assert.True(t, rep.TotalSales.Equal(decimal.NewFromInt(1650)), rep.TotalSales.String())
	require.Len(t, rep.TopProducts, 1)
	assert.Equal(t, e.honey.ID, rep.TopProducts[0].ProductID)
	require.Len(t, rep.DailyBreakdown, 1)

	resp, _ = e.do(t, "GET", "/api/v1/reports/sales?from=yesterday", e.admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
