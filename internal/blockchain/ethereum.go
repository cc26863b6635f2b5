package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/shadowbot/shadowbot/internal/models"
	"github.com/shadowbot/shadowbot/pkg/logger"
)

const rpcCallTimeout = 10 * time.Second

type balanceAtFn func(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)

var _ models.BalanceProvider = (*Ethereum)(nil)

// Ethereum reads balances straight from an Ethereum JSON-RPC node.
type Ethereum struct {
	logger *logger.Logger
	apiURL string

	mu     sync.RWMutex
	client *ethclient.Client

	balanceAt balanceAtFn
}

// NewEthereum creates a new Ethereum instance. Call ConnectToRPC before use.
func NewEthereum(apiURL string, logger *logger.Logger) *Ethereum {
	return &Ethereum{apiURL: apiURL, logger: logger}
}

func (e *Ethereum) ConnectToRPC(ctx context.Context) error {
	client, err := ethclient.DialContext(ctx, e.apiURL)
	if err != nil {
		return fmt.Errorf("failed to connect to the ethereum RPC server: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return fmt.Errorf("failed to get chain id: %w", err)
	}

	e.mu.Lock()
	e.client = client
	e.balanceAt = client.BalanceAt
	e.mu.Unlock()

	e.logger.Info("Connected to ethereum RPC", "chain_id", chainID.String())
	return nil
}

func (e *Ethereum) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.client != nil {
		e.client.Close()
		e.client = nil
		e.balanceAt = nil
	}
	return nil
}

// GetBalance returns the latest balance of the address in wei.
func (e *Ethereum) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	e.mu.RLock()
	balanceAt := e.balanceAt
	e.mu.RUnlock()
	if balanceAt == nil {
		return nil, models.NewProviderError("eth_getBalance", fmt.Errorf("rpc client is not connected"))
	}

	ctx, cancel := context.WithTimeout(ctx, rpcCallTimeout)
	defer cancel()

	balance, err := balanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, models.NewProviderError("eth_getBalance", err)
	}
	return balance, nil
}
