package models

import (
	"context"
	"math/big"
)

// Tracker is the command surface driven by the chat front end. Each call
// sends its reply through the NotificationSink and reports the outcome.
type Tracker interface {
	Welcome(ctx context.Context, chatID string) Outcome
	Help(ctx context.Context, chatID string) Outcome
	StartTracking(ctx context.Context, chatID, address string) Outcome
	StopTracking(ctx context.Context, chatID, address string) Outcome
	Balance(ctx context.Context, chatID, address string) Outcome
	Transactions(ctx context.Context, chatID, address string) Outcome
	Analytics(ctx context.Context, chatID, address string) Outcome
	ListWallets(ctx context.Context, chatID string) Outcome
	PromptAddress(ctx context.Context, chatID string, intent Intent) Outcome
	// HandleText interprets free text: reply keyboard labels and bare addresses.
	HandleText(ctx context.Context, chatID, text string) Outcome
	// HandleAction dispatches an action token attached to an earlier message.
	HandleAction(ctx context.Context, chatID, token string) Outcome
}

// WalletLookup answers wallet queries without a chat, for the HTTP API.
type WalletLookup interface {
	LookupBalance(ctx context.Context, address string) (*big.Int, error)
	LookupAnalytics(ctx context.Context, address string) (*AnalyticsSnapshot, error)
}
