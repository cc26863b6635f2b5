package models

import (
	"context"
	"math/big"
)

// WalletDataProvider queries an external ledger data source.
// An empty transaction list is "no data", not an error. Failures are
// reported as *ProviderError.
type WalletDataProvider interface {
	// GetRecentTransactions returns at most the 5 newest transactions, newest first.
	GetRecentTransactions(ctx context.Context, address string) ([]*Transaction, error)
	// GetBalance returns the native balance in wei.
	GetBalance(ctx context.Context, address string) (*big.Int, error)
}

// BalanceProvider is the subset of WalletDataProvider served by a plain JSON-RPC node.
type BalanceProvider interface {
	GetBalance(ctx context.Context, address string) (*big.Int, error)
}

// ActivityPublisher forwards detected wallet activity to downstream consumers.
type ActivityPublisher interface {
	Publish(ctx context.Context, event *ActivityEvent) error
	Close() error
}
