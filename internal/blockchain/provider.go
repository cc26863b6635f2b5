package blockchain

import (
	"context"
	"math/big"

	"github.com/shadowbot/shadowbot/internal/models"
)

var _ models.WalletDataProvider = (*Provider)(nil)

// Provider serves transactions from the indexer and balances from a JSON-RPC
// node when one is configured, falling back to the indexer otherwise.
type Provider struct {
	indexer  models.WalletDataProvider
	balances models.BalanceProvider
}

// NewProvider combines an indexer with an optional balance source.
func NewProvider(indexer models.WalletDataProvider, balances models.BalanceProvider) *Provider {
	if balances == nil {
		balances = indexer
	}
	return &Provider{indexer: indexer, balances: balances}
}

func (p *Provider) GetRecentTransactions(ctx context.Context, address string) ([]*models.Transaction, error) {
	return p.indexer.GetRecentTransactions(ctx, address)
}

func (p *Provider) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	return p.balances.GetBalance(ctx, address)
}
