package blockchain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowbot/shadowbot/internal/models"
	"github.com/shadowbot/shadowbot/pkg/logger"
	"github.com/shadowbot/shadowbot/pkg/units"
)

const testWallet = "0x9642b23ed1e01df1092b92641051881a322f5d4e"

func newTestEtherscan(t *testing.T, handler http.HandlerFunc) *Etherscan {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewEtherscan(EtherscanConfig{
		APIURL:    server.URL + "/v2/api",
		APIKey:    "test-key",
		ChainID:   1,
		RateLimit: 1000,
	}, logger.NewNop())
}

func txJSON(hash, from, to, value string, ts int64) string {
	return fmt.Sprintf(`{"hash":%q,"from":%q,"to":%q,"value":%q,"gasUsed":"21000","gasPrice":"7424228342","timeStamp":"%d","isError":"0"}`,
		hash, from, to, value, ts)
}

func TestEtherscanGetRecentTransactions(t *testing.T) {
	other := "0xeea5b26b94e4e5ba416c9725e51ab755e2dde107"
	var gotQuery map[string]string

	e := newTestEtherscan(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		items := []string{
			txJSON("0xb", other, strings.ToUpper(testWallet[2:]), "1000000000000000000", 1700000100),
			txJSON("0xa", testWallet, other, "500000000000000000", 1700000000),
		}
		fmt.Fprintf(w, `{"status":"1","message":"OK","result":[%s]}`, strings.Join(items, ","))
	})

	txs, err := e.GetRecentTransactions(context.Background(), testWallet)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "txlist", gotQuery["action"])
	assert.Equal(t, "desc", gotQuery["sort"])
	assert.Equal(t, "5", gotQuery["offset"])
	assert.Equal(t, "1", gotQuery["chainid"])
	assert.Equal(t, "test-key", gotQuery["apikey"])
	assert.Equal(t, testWallet, gotQuery["address"])

	assert.Equal(t, "0xb", txs[0].Hash)
	assert.Equal(t, models.DirectionOutgoing, txs[0].Direction, "to field without 0x prefix does not match")
	assert.Equal(t, "0xa", txs[1].Hash)
	assert.Equal(t, models.DirectionOutgoing, txs[1].Direction)
	assert.Zero(t, txs[0].Value.Cmp(units.Ether(1, 0)))
	assert.Equal(t, uint64(21000), txs[0].GasUsed)
	assert.Equal(t, time.Unix(1700000100, 0).UTC(), txs[0].Timestamp)
}

func TestEtherscanDirection(t *testing.T) {
	other := "0xeea5b26b94e4e5ba416c9725e51ab755e2dde107"
	e := newTestEtherscan(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"status":"1","message":"OK","result":[%s]}`,
			txJSON("0xc", other, "0x9642B23Ed1E01Df1092B92641051881a322F5D4E", "1", 1700000000))
	})

	txs, err := e.GetRecentTransactions(context.Background(), testWallet)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, models.DirectionIncoming, txs[0].Direction)
}

func TestEtherscanTruncatesToLimit(t *testing.T) {
	e := newTestEtherscan(t, func(w http.ResponseWriter, r *http.Request) {
		var items []string
		for i := 0; i < 8; i++ {
			items = append(items, txJSON(fmt.Sprintf("0x%d", i), testWallet, testWallet, "1", 1700000000))
		}
		fmt.Fprintf(w, `{"status":"1","message":"OK","result":[%s]}`, strings.Join(items, ","))
	})

	txs, err := e.GetRecentTransactions(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Len(t, txs, RecentTransactionsLimit)
	assert.Equal(t, "0x0", txs[0].Hash)
}

func TestEtherscanNoTransactions(t *testing.T) {
	e := newTestEtherscan(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"0","message":"No transactions found","result":[]}`)
	})

	txs, err := e.GetRecentTransactions(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestEtherscanErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantMsg string
	}{
		{
			name: "api error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"status":"0","message":"NOTOK","result":"Invalid API Key"}`)
			},
			wantMsg: "Invalid API Key",
		},
		{
			name: "http error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantMsg: "http error (502)",
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `<html>`)
			},
			wantMsg: "failed to decode response",
		},
		{
			name: "malformed transaction",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintf(w, `{"status":"1","message":"OK","result":[%s]}`, txJSON("0x1", testWallet, testWallet, "abc", 1))
			},
			wantMsg: "invalid wei amount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEtherscan(t, tt.handler)

			_, err := e.GetRecentTransactions(context.Background(), testWallet)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrProvider))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestEtherscanGetBalance(t *testing.T) {
	e := newTestEtherscan(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "balance", r.URL.Query().Get("action"))
		assert.Equal(t, "latest", r.URL.Query().Get("tag"))
		fmt.Fprint(w, `{"status":"1","message":"OK","result":"1234500000000000000"}`)
	})

	balance, err := e.GetBalance(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, "1.2345", units.FormatEther(balance, 4))
}

func TestEtherscanGetBalanceError(t *testing.T) {
	e := newTestEtherscan(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"0","message":"NOTOK","result":"Max rate limit reached"}`)
	})

	_, err := e.GetBalance(context.Background(), testWallet)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrProvider)
	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestEtherscanCircuitBreakerOpens(t *testing.T) {
	calls := 0
	e := newTestEtherscan(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 10; i++ {
		_, err := e.GetBalance(context.Background(), testWallet)
		assert.Error(t, err)
	}
	assert.Equal(t, 6, calls)
}
