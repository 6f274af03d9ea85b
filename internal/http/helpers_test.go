package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"honeypos/internal/config"
	"honeypos/internal/domain"
	"honeypos/internal/http/handlers"
	"honeypos/internal/repos"
	"honeypos/internal/services"
)

const (
	adminEmail    = "admin@honeypos.local"
	adminPassword = "Passw0rd!"
)

type env struct {
	app      *fiber.App
	deps     *handlers.Deps
	store    *repos.Store
	loc      domain.Location
	other    domain.Location
	honey    domain.Product
	jar      domain.Product
	admin    string
	promoter string
}

func testConfig() config.Config {
	return config.Config{
		DBDSN:      ":memory:",
		JWTSecret:  "test-secret-0123456789abcdef0123456789",
		TokenTTL:   time.Hour,
		RateLimit:  1000,
		LoginLimit: 100,
	}
}

// newEnv wires the real app over an in-memory store with one seeded
// location, a second location, two products and a promoter.
func newEnv(t *testing.T, cfg config.Config) *env {
	t.Helper()
	return newEnvKV(t, cfg, nil)
}

func newEnvKV(t *testing.T, cfg config.Config, wrap func(repos.KV) repos.KV) *env {
	t.Helper()
	ctx := context.Background()
	db, err := repos.OpenDB(cfg.DBDSN)
	require.NoError(t, err)
	var kv repos.KV = repos.NewSQLiteKV(db)
	if wrap != nil {
		kv = wrap(kv)
	}
	store := repos.NewStore(kv)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Load(ctx))
	require.NoError(t, services.SeedIfEmpty(ctx, store, adminEmail, adminPassword))

	d := handlers.NewDeps(store, cfg)
	e := &env{app: handlers.NewApp(d, cfg), deps: d, store: store}
	e.loc = store.Snapshot().Locations[0]

	e.other, err = d.Catalog.AddLocation(ctx, domain.Location{Name: "Market", Address: "3 Mira Ave.", IsActive: true})
	require.NoError(t, err)
	e.honey, err = d.Catalog.AddProduct(ctx, domain.Product{
		Name: "Linden honey", Type: domain.ProductHoney, Category: "honey",
		BasePrice: decimal.NewFromInt(500), Unit: domain.UnitKg, IsActive: true,
	})
	require.NoError(t, err)
	e.jar, err = d.Catalog.AddProduct(ctx, domain.Product{
		Name: "Raspberry jam", Type: domain.ProductJam, Category: "jam",
		BasePrice: decimal.NewFromInt(150), Unit: domain.UnitMl, IsActive: true,
	})
	require.NoError(t, err)
	for _, l := range []string{e.loc.ID, e.other.ID} {
		_, err = d.Inventory.AddRecord(ctx, l, e.honey.ID, decimal.NewFromInt(10), decimal.NewFromInt(2), decimal.NewFromInt(20))
		require.NoError(t, err)
		_, err = d.Inventory.AddRecord(ctx, l, e.jar.ID, decimal.NewFromInt(5), decimal.NewFromInt(1), decimal.NewFromInt(10))
		require.NoError(t, err)
	}

	p, err := d.Auth.CreateUser(ctx, services.NewUser{
		Name: "Promoter", Email: "promoter@honeypos.local", Password: "Sell3r!pass",
		Role: domain.RolePromoter, LocationID: e.loc.ID,
	})
	require.NoError(t, err)
	e.promoter, err = d.Auth.IssueToken(p)
	require.NoError(t, err)

	for _, u := range store.Snapshot().Users {
		if u.Role == domain.RoleAdmin {
			e.admin, err = d.Auth.IssueToken(u)
			require.NoError(t, err)
		}
	}
	require.NotEmpty(t, e.admin)
	return e
}

// do sends a JSON request; body may be nil, a string (sent raw) or a value.
func (e *env) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func (e *env) stock(t *testing.T, locationID, productID string) decimal.Decimal {
	t.Helper()
	rec, err := e.deps.Inventory.GetStock(locationID, productID)
	require.NoError(t, err)
	return rec.CurrentStock
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	UserID string         `json:"user_id"`
	Fields map[string]any `json:"fields"`
}

// captureLogs swaps the standard logger output for the duration of fn.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedWriter{w: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	mu.Lock()
	defer mu.Unlock()
	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, level, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Level == level && e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}
