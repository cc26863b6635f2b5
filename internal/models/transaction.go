package models

import (
	"math/big"
	"time"
)

type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Transaction is a ledger transaction as seen from the queried address.
type Transaction struct {
	Hash      string
	From      string
	To        string
	Value     *big.Int // wei
	GasUsed   uint64
	GasPrice  *big.Int // wei
	Timestamp time.Time
	Direction Direction
	Failed    bool
}

// Incoming reports whether the queried address received the value.
func (tx *Transaction) Incoming() bool {
	return tx.Direction == DirectionIncoming
}

// AnalyticsSnapshot holds derived wallet statistics. Monetary fields are wei.
type AnalyticsSnapshot struct {
	Balance       *big.Int
	TotalTx       int
	IncomingTx    int
	OutgoingTx    int
	TotalReceived *big.Int
	TotalSent     *big.Int
	NetFlow       *big.Int
	RecentTx      int
	TxFrequency   float64
}

// ActivityEvent is published whenever the monitor sees a new transaction
// for a tracked wallet.
type ActivityEvent struct {
	ChatID    string    `json:"chat_id"`
	Wallet    string    `json:"wallet"`
	TxHash    string    `json:"tx_hash"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ValueWei  string    `json:"value_wei"`
	Direction Direction `json:"direction"`
	Timestamp int64     `json:"timestamp"`
	SeenAt    int64     `json:"seen_at"`
}
