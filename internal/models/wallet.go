package models

// TrackedWallet is one chat's subscription to one wallet address.
// The pair (ChatID, WalletAddress) is unique.
type TrackedWallet struct {
	// ID is the surrogate primary key.
	ID int64 `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	// ChatID is the Telegram chat that receives notifications for the wallet.
	ChatID string `json:"chat_id" gorm:"column:chat_id;size:64;not null;uniqueIndex:idx_tracked_wallets_chat_wallet"`
	// WalletAddress is the tracked address, lowercase 0x form.
	WalletAddress string `json:"wallet_address" gorm:"column:wallet_address;size:42;not null;uniqueIndex:idx_tracked_wallets_chat_wallet;index"`
	// LastTxHash is the newest transaction already notified, empty until the first observation.
	LastTxHash string `json:"last_tx_hash" gorm:"column:last_tx_hash;size:66"`
	// CreatedAt is the Unix timestamp of the track command.
	CreatedAt int64 `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	// UpdatedAt is the Unix timestamp of the last cursor move.
	UpdatedAt int64 `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (TrackedWallet) TableName() string {
	return "tracked_wallets"
}
