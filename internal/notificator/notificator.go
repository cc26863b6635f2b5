package notificator

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/shadowbot/shadowbot/internal/models"
	"github.com/shadowbot/shadowbot/pkg/logger"
)

var _ models.NotificationSink = (*Notificator)(nil)

// Notificator is the NotificationSink handed to the tracker. It shields callers
// from transport panics and tags every failure as a delivery error.
type Notificator struct {
	logger *logger.Logger
	sink   models.NotificationSink
}

func NewNotificator(logger *logger.Logger, sink models.NotificationSink) *Notificator {
	return &Notificator{logger: logger, sink: sink}
}

func (n *Notificator) SendMessage(ctx context.Context, chatID string, msg *models.Message) error {
	err := n.safeCall(func() error { return n.sink.SendMessage(ctx, chatID, msg) }, "sendMessage")
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrNotificationDelivery, err)
	}
	return nil
}

// safeCall runs a function with panic recovery (synchronous, no goroutine spawning)
func (n *Notificator) safeCall(fn func() error, context string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("Function panicked",
				"context", context,
				"panic", r,
				"stack", string(debug.Stack()))
			err = fmt.Errorf("%s panicked: %v", context, r)
		}
	}()
	return fn()
}
