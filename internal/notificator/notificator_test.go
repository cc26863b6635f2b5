package notificator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shadowbot/shadowbot/internal/models"
	"github.com/shadowbot/shadowbot/pkg/logger"
)

type sinkFunc func(ctx context.Context, chatID string, msg *models.Message) error

func (f sinkFunc) SendMessage(ctx context.Context, chatID string, msg *models.Message) error {
	return f(ctx, chatID, msg)
}

func TestNotificatorDelegates(t *testing.T) {
	var got string
	n := NewNotificator(logger.NewNop(), sinkFunc(func(_ context.Context, chatID string, msg *models.Message) error {
		got = chatID + ":" + msg.Text
		return nil
	}))

	assert.NoError(t, n.SendMessage(context.Background(), "1", &models.Message{Text: "hi"}))
	assert.Equal(t, "1:hi", got)
}

func TestNotificatorWrapsErrors(t *testing.T) {
	n := NewNotificator(logger.NewNop(), sinkFunc(func(context.Context, string, *models.Message) error {
		return errors.New("forbidden: bot was blocked by the user")
	}))

	err := n.SendMessage(context.Background(), "1", &models.Message{Text: "hi"})
	assert.ErrorIs(t, err, models.ErrNotificationDelivery)
	assert.ErrorContains(t, err, "blocked")
}

func TestNotificatorRecoversPanics(t *testing.T) {
	n := NewNotificator(logger.NewNop(), sinkFunc(func(context.Context, string, *models.Message) error {
		panic("nil markup")
	}))

	err := n.SendMessage(context.Background(), "1", &models.Message{Text: "hi"})
	assert.ErrorIs(t, err, models.ErrNotificationDelivery)
	assert.ErrorContains(t, err, "sendMessage panicked")
}
