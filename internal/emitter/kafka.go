package emitter

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/shadowbot/shadowbot/internal/models"
	"github.com/shadowbot/shadowbot/pkg/logger"
)

// batchTimeout bounds how long a synchronous write waits for a batch to fill.
const batchTimeout = 10 * time.Millisecond

var _ models.ActivityPublisher = (*KafkaEmitter)(nil)

// KafkaEmitter publishes wallet activity events to a Kafka topic, keyed by
// transaction hash.
type KafkaEmitter struct {
	logger *logger.Logger
	writer messageWriter
	// mu guards writer; Publish holds it shared so writes run concurrently.
	mu sync.RWMutex
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaEmitter(brokers []string, topic string, logger *logger.Logger) *KafkaEmitter {
	return &KafkaEmitter{
		logger: logger,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			BatchTimeout:           batchTimeout,
			AllowAutoTopicCreation: true,
		},
	}
}

func (k *KafkaEmitter) Publish(ctx context.Context, event *models.ActivityEvent) error {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.writer == nil {
		return fmt.Errorf("kafka emitter is closed")
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.TxHash),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	k.logger.Debug("Emitted activity event", "wallet", event.Wallet, "txHash", event.TxHash)
	return nil
}

func (k *KafkaEmitter) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.writer != nil {
		err := k.writer.Close()
		k.writer = nil
		return err
	}
	return nil
}
