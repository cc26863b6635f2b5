package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shadowbot/shadowbot/internal/models"
)

func TestNotificationRecipient(t *testing.T) {
	m := NewMessages("https://etherscan.io")

	transfer := tx("A", models.DirectionOutgoing, 1000, time.Hour)
	msg := m.Notification(walletB, transfer)
	assert.Contains(t, msg.Text, "*To:* `"+walletF+"`")

	creation := tx("B", models.DirectionOutgoing, 0, time.Hour)
	creation.To = ""
	msg = m.Notification(walletB, creation)
	assert.Contains(t, msg.Text, "*To:* _contract creation_")
	assert.NotContains(t, msg.Text, "``")
	assert.True(t, msg.Markdown)
}
