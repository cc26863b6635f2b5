package models

import "context"

// Intent is a pending conversational action for a chat, consumed by the
// next address the chat sends.
type Intent string

const (
	IntentNone   Intent = ""
	IntentAdd    Intent = "add"
	IntentRemove Intent = "remove"
)

// IntentStore keeps at most one pending intent per chat. Entries expire
// after a store-defined TTL.
type IntentStore interface {
	Set(ctx context.Context, chatID string, intent Intent) error
	// Pop returns and removes the pending intent, IntentNone if there is none.
	Pop(ctx context.Context, chatID string) (Intent, error)
}
