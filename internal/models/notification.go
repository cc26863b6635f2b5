package models

import "context"

// Action is an interactive element attached to a message. Token is opaque
// to the transport and dispatched back to the tracker when pressed.
type Action struct {
	Label string
	Token string
}

// Message is a formatted outbound chat message.
type Message struct {
	Text string
	// Markdown enables Telegram Markdown formatting.
	Markdown bool
	// Actions are rendered as inline buttons, one slice per row.
	Actions [][]Action
	// Keyboard is a persistent reply keyboard, one slice per row.
	Keyboard [][]string
}

// NotificationSink delivers a message to a chat.
type NotificationSink interface {
	SendMessage(ctx context.Context, chatID string, msg *Message) error
}
