package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/treasurybot/internal/bond"
	"github.com/alanyoungcy/treasurybot/internal/domain"
)

type stubCache struct {
	vals map[string]domain.Valuation
}

func (c *stubCache) Set(context.Context, domain.Valuation) error { return nil }

func (c *stubCache) Get(_ context.Context, _ domain.Network, bondName string) (domain.Valuation, error) {
	v, ok := c.vals[bondName]
	if !ok {
		return domain.Valuation{}, domain.ErrNotFound
	}
	return v, nil
}

func (c *stubCache) GetAll(_ context.Context, _ domain.Network, bonds []string) (map[string]domain.Valuation, error) {
	out := make(map[string]domain.Valuation)
	for _, name := range bonds {
		if v, ok := c.vals[name]; ok {
			out[name] = v
		}
	}
	return out, nil
}

type stubStore struct {
	history []domain.Valuation
	total   float64
	newest  time.Time
	err     error
}

func (s *stubStore) Insert(context.Context, domain.Valuation) error { return nil }

func (s *stubStore) History(context.Context, domain.Network, string, int) ([]domain.Valuation, error) {
	return s.history, s.err
}

func (s *stubStore) LatestTotal(context.Context, domain.Network) (float64, time.Time, error) {
	if s.err != nil {
		return 0, time.Time{}, s.err
	}
	return s.total, s.newest, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bondRoutes(h *BondHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/bonds", h.ListBonds)
	mux.HandleFunc("GET /api/bonds/{name}", h.GetBond)
	mux.HandleFunc("GET /api/bonds/{name}/history", h.History)
	return mux
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestListBonds(t *testing.T) {
	reg := bond.DefaultRegistry()
	cache := &stubCache{vals: map[string]domain.Valuation{
		"dai": {Bond: "dai", Network: domain.Mainnet, Value: 1000, ReservePrice: 1, BondPriceUSD: 25, CreatedAt: time.Now()},
	}}
	h := NewBondHandler(reg, cache, nil, domain.Mainnet, testLogger())

	rec := httptest.NewRecorder()
	bondRoutes(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bonds", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "mainnet", body["network"])
	assert.Equal(t, float64(6), body["count"])

	bonds := body["bonds"].([]any)
	require.Len(t, bonds, 6)
	first := bonds[0].(map[string]any)
	assert.Equal(t, "dai", first["name"])
	assert.Equal(t, float64(1000), first["value_usd"])

	// Bonds without a cached valuation omit the value fields.
	second := bonds[1].(map[string]any)
	assert.Equal(t, "frax", second["name"])
	_, hasValue := second["value_usd"]
	assert.False(t, hasValue)
}

func TestListBondsNetworkOverride(t *testing.T) {
	h := NewBondHandler(bond.DefaultRegistry(), &stubCache{}, nil, domain.Mainnet, testLogger())
	mux := bondRoutes(h)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bonds?network=testnet", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "testnet", body["network"])
	assert.Equal(t, float64(5), body["count"], "lusd is mainnet-only")

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bonds?network=polygon", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBond(t *testing.T) {
	reg := bond.DefaultRegistry()
	cache := &stubCache{vals: map[string]domain.Valuation{
		"weth": {Bond: "weth", Network: domain.Mainnet, Value: 6000, ReservePrice: 1, BondPriceUSD: 30, CreatedAt: time.Now()},
	}}
	h := NewBondHandler(reg, cache, nil, domain.Mainnet, testLogger())
	mux := bondRoutes(h)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bonds/weth", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "weth", body["name"])
	assert.Equal(t, "custom", body["type"])
	assert.Equal(t, float64(6000), body["value_usd"])

	// Unknown bond.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bonds/doge", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBondNotOnNetwork(t *testing.T) {
	reg := bond.DefaultRegistry()
	h := NewBondHandler(reg, &stubCache{}, nil, domain.Testnet, testLogger())

	rec := httptest.NewRecorder()
	bondRoutes(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bonds/lusd", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBondHistory(t *testing.T) {
	reg := bond.DefaultRegistry()
	store := &stubStore{history: []domain.Valuation{
		{ID: "a", Bond: "dai", Network: domain.Mainnet, Value: 1000, CreatedAt: time.Now()},
		{ID: "b", Bond: "dai", Network: domain.Mainnet, Value: 990, CreatedAt: time.Now().Add(-time.Hour)},
	}}
	h := NewBondHandler(reg, &stubCache{}, store, domain.Mainnet, testLogger())

	rec := httptest.NewRecorder()
	bondRoutes(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bonds/dai/history?limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(2), body["count"])
}

func TestBondHistoryStoreDisabled(t *testing.T) {
	h := NewBondHandler(bond.DefaultRegistry(), &stubCache{}, nil, domain.Mainnet, testLogger())

	rec := httptest.NewRecorder()
	bondRoutes(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bonds/dai/history", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
