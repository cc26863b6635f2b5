package blockchain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/shadowbot/shadowbot/internal/models"
	"github.com/shadowbot/shadowbot/pkg/logger"
	"github.com/shadowbot/shadowbot/pkg/units"
)

const (
	// RecentTransactionsLimit is how many transactions txlist returns per query.
	RecentTransactionsLimit = 5

	etherscanHTTPTimeout = 15 * time.Second
	maxResponseSize      = 4 << 20

	statusOK             = "1"
	messageNoTxFound     = "No transactions found"
	messageNoRecordFound = "No records found"
)

// EtherscanConfig configures the Etherscan client.
type EtherscanConfig struct {
	APIURL  string
	APIKey  string
	ChainID int
	// RateLimit is the maximum number of requests per second.
	RateLimit float64
}

// HTTPError is a non-2xx response from the indexer.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("http error (%d)", e.StatusCode)
	}
	return fmt.Sprintf("http error (%d): %s", e.StatusCode, string(e.Body))
}

// APIError is an error reported in the indexer's response envelope.
type APIError struct {
	Message string
	Result  string
}

func (e *APIError) Error() string {
	if e.Result == "" {
		return fmt.Sprintf("etherscan error: %s", e.Message)
	}
	return fmt.Sprintf("etherscan error: %s: %s", e.Message, e.Result)
}

type etherscanResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type etherscanTx struct {
	Hash      string `json:"hash"`
	From      string `json:"from"`
	To        string `json:"to"`
	Value     string `json:"value"`
	GasUsed   string `json:"gasUsed"`
	GasPrice  string `json:"gasPrice"`
	TimeStamp string `json:"timeStamp"`
	IsError   string `json:"isError"`
}

var _ models.WalletDataProvider = (*Etherscan)(nil)

// Etherscan queries the Etherscan account API for transactions and balances.
type Etherscan struct {
	logger *logger.Logger
	config EtherscanConfig

	httpClient     *http.Client
	rateLimiter    *rate.Limiter
	circuitBreaker *gobreaker.CircuitBreaker
}

// NewEtherscan creates a new Etherscan client.
func NewEtherscan(config EtherscanConfig, logger *logger.Logger) *Etherscan {
	if config.RateLimit <= 0 {
		config.RateLimit = 5
	}

	circuitBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "Etherscan",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &Etherscan{
		logger:         logger,
		config:         config,
		rateLimiter:    rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		circuitBreaker: circuitBreaker,
		httpClient: &http.Client{
			Timeout: etherscanHTTPTimeout,
		},
	}
}

// GetRecentTransactions returns the newest transactions of the address, newest first.
func (e *Etherscan) GetRecentTransactions(ctx context.Context, address string) ([]*models.Transaction, error) {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "txlist")
	params.Set("address", address)
	params.Set("startblock", "0")
	params.Set("endblock", "99999999")
	params.Set("page", "1")
	params.Set("offset", strconv.Itoa(RecentTransactionsLimit))
	params.Set("sort", "desc")

	result, err := e.call(ctx, params)
	if err != nil {
		return nil, models.NewProviderError("txlist", err)
	}
	if result == nil {
		return nil, nil
	}

	var raw []etherscanTx
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, models.NewProviderError("txlist", fmt.Errorf("failed to decode transactions: %w", err))
	}

	if len(raw) > RecentTransactionsLimit {
		raw = raw[:RecentTransactionsLimit]
	}

	transactions := make([]*models.Transaction, 0, len(raw))
	for _, r := range raw {
		tx, err := r.toTransaction(address)
		if err != nil {
			return nil, models.NewProviderError("txlist", err)
		}
		transactions = append(transactions, tx)
	}
	return transactions, nil
}

// GetBalance returns the latest balance of the address in wei.
func (e *Etherscan) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "balance")
	params.Set("address", address)
	params.Set("tag", "latest")

	result, err := e.call(ctx, params)
	if err != nil {
		return nil, models.NewProviderError("balance", err)
	}
	if result == nil {
		return nil, models.NewProviderError("balance", fmt.Errorf("empty balance result"))
	}

	var raw string
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, models.NewProviderError("balance", fmt.Errorf("failed to decode balance: %w", err))
	}
	balance, err := units.ParseWei(raw)
	if err != nil {
		return nil, models.NewProviderError("balance", err)
	}
	return balance, nil
}

// call performs one rate limited, circuit broken request and returns the
// result field. A nil result means the indexer reported no records.
func (e *Etherscan) call(ctx context.Context, params url.Values) (json.RawMessage, error) {
	if err := e.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	params.Set("chainid", strconv.Itoa(e.config.ChainID))
	params.Set("apikey", e.config.APIKey)

	out, err := e.circuitBreaker.Execute(func() (interface{}, error) {
		return e.doGET(ctx, params)
	})
	if err != nil {
		return nil, err
	}
	body := out.([]byte)

	var resp etherscanResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.Status != statusOK {
		if resp.Message == messageNoTxFound || resp.Message == messageNoRecordFound {
			return nil, nil
		}
		apiErr := &APIError{Message: resp.Message}
		_ = json.Unmarshal(resp.Result, &apiErr.Result)
		return nil, apiErr
	}
	return resp.Result, nil
}

func (e *Etherscan) doGET(ctx context.Context, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.config.APIURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	e.logger.Debug("Etherscan request",
		"action", params.Get("action"),
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: body}
	}
	return body, nil
}

func (r etherscanTx) toTransaction(address string) (*models.Transaction, error) {
	if r.Hash == "" {
		return nil, errors.New("transaction without hash")
	}

	value, err := units.ParseWei(r.Value)
	if err != nil {
		return nil, fmt.Errorf("tx %s: %w", r.Hash, err)
	}
	gasPrice, err := units.ParseWei(r.GasPrice)
	if err != nil {
		return nil, fmt.Errorf("tx %s: invalid gas price: %w", r.Hash, err)
	}

	var gasUsed uint64
	if r.GasUsed != "" {
		gasUsed, err = strconv.ParseUint(r.GasUsed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("tx %s: invalid gas used: %w", r.Hash, err)
		}
	}

	var timestamp time.Time
	if r.TimeStamp != "" {
		secs, err := strconv.ParseInt(r.TimeStamp, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("tx %s: invalid timestamp: %w", r.Hash, err)
		}
		timestamp = time.Unix(secs, 0).UTC()
	}

	direction := models.DirectionOutgoing
	if strings.EqualFold(r.To, address) {
		direction = models.DirectionIncoming
	}

	return &models.Transaction{
		Hash:      r.Hash,
		From:      r.From,
		To:        r.To,
		Value:     value,
		GasUsed:   gasUsed,
		GasPrice:  gasPrice,
		Timestamp: timestamp,
		Direction: direction,
		Failed:    r.IsError == "1",
	}, nil
}
