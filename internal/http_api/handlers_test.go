package http_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowbot/shadowbot/internal/models"
	"github.com/shadowbot/shadowbot/pkg/logger"
	"github.com/shadowbot/shadowbot/pkg/units"
)

const wallet = "0xffffffffffffffffffffffffffffffffffffffff"

type fakeLookup struct {
	balance  *big.Int
	snapshot *models.AnalyticsSnapshot
	err      error
}

func (f *fakeLookup) LookupBalance(_ context.Context, address string) (*big.Int, error) {
	if !strings.HasPrefix(address, "0x") {
		return nil, fmt.Errorf("%w: bad", models.ErrInvalidAddress)
	}
	return f.balance, f.err
}

func (f *fakeLookup) LookupAnalytics(_ context.Context, address string) (*models.AnalyticsSnapshot, error) {
	if !strings.HasPrefix(address, "0x") {
		return nil, fmt.Errorf("%w: bad", models.ErrInvalidAddress)
	}
	return f.snapshot, f.err
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func init() {
	gin.SetMode(gin.TestMode)
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	h.ServeHTTP(rec, req)
	return rec
}

func TestWalletBalance(t *testing.T) {
	s := NewHTTPServer(&fakeLookup{balance: units.Ether(12345, 4)}, 0, logger.NewNop())

	rec := do(t, s.Handler(), http.MethodGet, "/api/v1/wallet/0xFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF")
	require.Equal(t, http.StatusOK, rec.Code)

	var body BalanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, wallet, body.Address)
	assert.Equal(t, "1.2345", body.Balance)
	assert.Equal(t, "1234500000000000000", body.BalanceWei)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWalletErrors(t *testing.T) {
	tests := []struct {
		name   string
		lookup *fakeLookup
		path   string
		status int
	}{
		{name: "invalid address", lookup: &fakeLookup{}, path: "/api/v1/wallet/nope", status: http.StatusBadRequest},
		{name: "provider error", lookup: &fakeLookup{err: models.NewProviderError("balance", errors.New("down"))}, path: "/api/v1/wallet/" + wallet, status: http.StatusBadGateway},
		{name: "analytics no data", lookup: &fakeLookup{err: models.ErrNoData}, path: "/api/v1/wallet/" + wallet + "/analytics", status: http.StatusNotFound},
		{name: "analytics invalid", lookup: &fakeLookup{}, path: "/api/v1/wallet/xyz/analytics", status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewHTTPServer(tt.lookup, 0, logger.NewNop())
			rec := do(t, s.Handler(), http.MethodGet, tt.path)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"success":false`)
		})
	}
}

func TestWalletAnalytics(t *testing.T) {
	snapshot := &models.AnalyticsSnapshot{
		Balance:       units.Ether(12345, 4),
		TotalTx:       1,
		IncomingTx:    1,
		TotalReceived: units.Ether(1, 0),
		TotalSent:     new(big.Int),
		NetFlow:       units.Ether(1, 0),
		RecentTx:      1,
	}
	s := NewHTTPServer(&fakeLookup{snapshot: snapshot}, 0, logger.NewNop())

	rec := do(t, s.Handler(), http.MethodGet, "/api/v1/wallet/"+wallet+"/analytics")
	require.Equal(t, http.StatusOK, rec.Code)

	var body AnalyticsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, AnalyticsResponse{
		Address:       wallet,
		Balance:       "1.2345",
		TotalTx:       1,
		IncomingTx:    1,
		OutgoingTx:    0,
		TotalReceived: "1.0000",
		TotalSent:     "0.0000",
		NetFlow:       "1.0000",
		RecentTx:      1,
		TxFrequency:   0,
	}, body)
}

func TestHealthCheck(t *testing.T) {
	s := NewHTTPServer(&fakeLookup{}, 0, logger.NewNop())
	assert.Equal(t, http.StatusOK, do(t, s.Handler(), http.MethodGet, "/health").Code)

	down := NewHTTPServer(&fakeLookup{}, 0, logger.NewNop(), WithHealthCheck(pingFunc(func(context.Context) error {
		return errors.New("connection refused")
	})))
	assert.Equal(t, http.StatusServiceUnavailable, do(t, down.Handler(), http.MethodGet, "/health").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := NewHTTPServer(&fakeLookup{}, 0, logger.NewNop())

	rec := do(t, s.Handler(), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestWebhookRoute(t *testing.T) {
	s := NewHTTPServer(&fakeLookup{}, 0, logger.NewNop())
	assert.Equal(t, http.StatusNotFound, do(t, s.Handler(), http.MethodPost, "/telegram/webhook").Code)

	called := false
	hooked := NewHTTPServer(&fakeLookup{}, 0, logger.NewNop(), WithTelegramWebhook(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})))
	assert.Equal(t, http.StatusOK, do(t, hooked.Handler(), http.MethodPost, "/telegram/webhook").Code)
	assert.True(t, called)
}

func TestCORSPreflight(t *testing.T) {
	s := NewHTTPServer(&fakeLookup{}, 0, logger.NewNop())
	assert.Equal(t, http.StatusNoContent, do(t, s.Handler(), http.MethodOptions, "/api/v1/wallet/"+wallet).Code)
}
