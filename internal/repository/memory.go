package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shadowbot/shadowbot/internal/models"
)

var _ models.Repository = (*MemoryDB)(nil)

type walletKey struct {
	chatID  string
	address string
}

// MemoryDB is a process-local Repository used in development and tests.
type MemoryDB struct {
	mu      sync.RWMutex
	nextID  int64
	wallets map[walletKey]*models.TrackedWallet
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{wallets: make(map[walletKey]*models.TrackedWallet)}
}

func (db *MemoryDB) AddTrackedWallet(ctx context.Context, wallet *models.TrackedWallet) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	key := walletKey{chatID: wallet.ChatID, address: wallet.WalletAddress}
	if _, ok := db.wallets[key]; ok {
		return false, nil
	}

	db.nextID++
	now := time.Now().Unix()
	stored := *wallet
	stored.ID = db.nextID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	db.wallets[key] = &stored
	wallet.ID = stored.ID

	return true, nil
}

func (db *MemoryDB) RemoveTrackedWallet(ctx context.Context, chatID, address string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	key := walletKey{chatID: chatID, address: address}
	if _, ok := db.wallets[key]; !ok {
		return false, nil
	}
	delete(db.wallets, key)
	return true, nil
}

func (db *MemoryDB) GetTrackedWallets(ctx context.Context) ([]*models.TrackedWallet, error) {
	return db.find(func(*models.TrackedWallet) bool { return true }), nil
}

func (db *MemoryDB) GetTrackedWalletsByChat(ctx context.Context, chatID string) ([]*models.TrackedWallet, error) {
	return db.find(func(w *models.TrackedWallet) bool { return w.ChatID == chatID }), nil
}

func (db *MemoryDB) UpdateLastTxHash(ctx context.Context, chatID, address, txHash string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if w, ok := db.wallets[walletKey{chatID: chatID, address: address}]; ok {
		w.LastTxHash = txHash
		w.UpdatedAt = time.Now().Unix()
	}
	return nil
}

func (db *MemoryDB) UpdateLastTxHashByAddress(ctx context.Context, address, txHash string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for key, w := range db.wallets {
		if key.address == address {
			w.LastTxHash = txHash
			w.UpdatedAt = time.Now().Unix()
		}
	}
	return nil
}

func (db *MemoryDB) CountTrackedWallets(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return int64(len(db.wallets)), nil
}

// find returns copies so callers never share records with the store.
func (db *MemoryDB) find(match func(*models.TrackedWallet) bool) []*models.TrackedWallet {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var out []*models.TrackedWallet
	for _, w := range db.wallets {
		if match(w) {
			c := *w
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
