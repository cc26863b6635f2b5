package blockchain

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowbot/shadowbot/internal/models"
	"github.com/shadowbot/shadowbot/pkg/logger"
)

type fakeIndexer struct {
	balance *big.Int
	txs     []*models.Transaction
}

func (f *fakeIndexer) GetRecentTransactions(ctx context.Context, address string) ([]*models.Transaction, error) {
	return f.txs, nil
}

func (f *fakeIndexer) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	return f.balance, nil
}

func TestProviderFallsBackToIndexerBalance(t *testing.T) {
	p := NewProvider(&fakeIndexer{balance: big.NewInt(7)}, nil)

	balance, err := p.GetBalance(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, int64(7), balance.Int64())
}

func TestProviderPrefersRPCBalance(t *testing.T) {
	rpc := NewEthereum("http://unused", logger.NewNop())
	var gotAccount common.Address
	rpc.balanceAt = func(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
		gotAccount = account
		assert.Nil(t, blockNumber)
		return big.NewInt(42), nil
	}

	indexer := &fakeIndexer{balance: big.NewInt(7), txs: []*models.Transaction{{Hash: "0x1"}}}
	p := NewProvider(indexer, rpc)

	balance, err := p.GetBalance(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, int64(42), balance.Int64())
	assert.Equal(t, common.HexToAddress(testWallet), gotAccount)

	txs, err := p.GetRecentTransactions(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestEthereumBalanceErrors(t *testing.T) {
	rpc := NewEthereum("http://unused", logger.NewNop())

	_, err := rpc.GetBalance(context.Background(), testWallet)
	assert.ErrorIs(t, err, models.ErrProvider)

	rpc.balanceAt = func(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
		return nil, assert.AnError
	}
	_, err = rpc.GetBalance(context.Background(), testWallet)
	assert.ErrorIs(t, err, models.ErrProvider)
	assert.ErrorIs(t, err, assert.AnError)
}
