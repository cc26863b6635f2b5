package models

import "context"

// Repository persists tracked wallets. Every method is atomic at the single
// record level.
type Repository interface {
	// AddTrackedWallet inserts the wallet unless (ChatID, WalletAddress) already
	// exists. It reports whether a record was created.
	AddTrackedWallet(ctx context.Context, wallet *TrackedWallet) (bool, error)
	// RemoveTrackedWallet deletes the record and reports whether one existed.
	RemoveTrackedWallet(ctx context.Context, chatID, address string) (bool, error)
	GetTrackedWallets(ctx context.Context) ([]*TrackedWallet, error)
	GetTrackedWalletsByChat(ctx context.Context, chatID string) ([]*TrackedWallet, error)
	UpdateLastTxHash(ctx context.Context, chatID, address, txHash string) error
	UpdateLastTxHashByAddress(ctx context.Context, address, txHash string) error
	CountTrackedWallets(ctx context.Context) (int64, error)
}
