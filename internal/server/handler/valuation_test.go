package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/treasurybot/internal/bond"
	"github.com/alanyoungcy/treasurybot/internal/domain"
	"github.com/alanyoungcy/treasurybot/internal/service"
)

type stubRefresher struct {
	summary service.Summary
	err     error
	calls   int
}

func (s *stubRefresher) RefreshAll(context.Context) (service.Summary, error) {
	s.calls++
	return s.summary, s.err
}

func TestTreasuryFromCache(t *testing.T) {
	reg := bond.DefaultRegistry()
	now := time.Now()
	cache := &stubCache{vals: map[string]domain.Valuation{
		"dai":  {Bond: "dai", Value: 1000, CreatedAt: now},
		"frax": {Bond: "frax", Value: 500, CreatedAt: now.Add(-time.Minute)},
	}}
	h := NewValuationHandler(reg, cache, nil, nil, domain.Mainnet, testLogger())

	rec := httptest.NewRecorder()
	h.Treasury(rec, httptest.NewRequest(http.MethodGet, "/api/treasury", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1500), body["total_usd"])
	assert.Equal(t, "cache", body["source"])

	breakdown := body["breakdown"].(map[string]any)
	assert.Equal(t, float64(1000), breakdown["dai"])
	assert.Equal(t, float64(500), breakdown["frax"])
}

func TestTreasuryFallsBackToStore(t *testing.T) {
	reg := bond.DefaultRegistry()
	store := &stubStore{total: 4200, newest: time.Now()}
	h := NewValuationHandler(reg, &stubCache{}, store, nil, domain.Mainnet, testLogger())

	rec := httptest.NewRecorder()
	h.Treasury(rec, httptest.NewRequest(http.MethodGet, "/api/treasury", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(4200), body["total_usd"])
	assert.Equal(t, "store", body["source"])
}

func TestTreasuryNothingAvailable(t *testing.T) {
	h := NewValuationHandler(bond.DefaultRegistry(), &stubCache{}, nil, nil, domain.Mainnet, testLogger())

	rec := httptest.NewRecorder()
	h.Treasury(rec, httptest.NewRequest(http.MethodGet, "/api/treasury", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRefreshTrigger(t *testing.T) {
	refresher := &stubRefresher{summary: service.Summary{
		Refreshed: 6,
		TotalUSD:  9000,
		Elapsed:   1200 * time.Millisecond,
	}}
	h := NewValuationHandler(bond.DefaultRegistry(), &stubCache{}, nil, refresher, domain.Mainnet, testLogger())

	rec := httptest.NewRecorder()
	h.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, refresher.calls)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(6), body["refreshed"])
	assert.Equal(t, float64(9000), body["total_usd"])
	assert.Equal(t, float64(1200), body["elapsed_ms"])
}

func TestRefreshTriggerFailure(t *testing.T) {
	refresher := &stubRefresher{err: fmt.Errorf("every bond failed")}
	h := NewValuationHandler(bond.DefaultRegistry(), &stubCache{}, nil, refresher, domain.Mainnet, testLogger())

	rec := httptest.NewRecorder()
	h.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
