package tracker

import (
	"fmt"
	"strings"

	"github.com/shadowbot/shadowbot/pkg/validation"
)

// ActionKind identifies what an action token does when dispatched.
type ActionKind string

const (
	ActionBalance      ActionKind = "bal"
	ActionTransactions ActionKind = "tx"
	ActionAnalytics    ActionKind = "an"
	ActionUntrack      ActionKind = "untrack"
	// ActionAsk prompts for an address to track and carries none.
	ActionAsk ActionKind = "ask"
)

const tokenSeparator = ":"

// EncodeAction builds the opaque token "<kind>:<address>". The longest token
// is well under Telegram's 64 byte callback data limit.
func EncodeAction(kind ActionKind, address string) string {
	return string(kind) + tokenSeparator + address
}

// ParseAction decodes a token produced by EncodeAction.
func ParseAction(token string) (ActionKind, string, error) {
	kindStr, address, ok := strings.Cut(token, tokenSeparator)
	if !ok {
		return "", "", fmt.Errorf("malformed action token %q", token)
	}

	kind := ActionKind(kindStr)
	switch kind {
	case ActionAsk:
		return kind, "", nil
	case ActionBalance, ActionTransactions, ActionAnalytics, ActionUntrack:
		normalized, err := validation.ValidateAndNormalizeAddress(address)
		if err != nil {
			return "", "", fmt.Errorf("action token %q: %w", token, err)
		}
		return kind, normalized, nil
	default:
		return "", "", fmt.Errorf("unknown action kind %q", kindStr)
	}
}
