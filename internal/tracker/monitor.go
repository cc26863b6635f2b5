package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/shadowbot/shadowbot/internal/metrics"
	"github.com/shadowbot/shadowbot/internal/models"
	"github.com/shadowbot/shadowbot/pkg/logger"
)

const (
	DefaultPollInterval   = 30 * time.Second
	DefaultConcurrency    = 8
	DefaultPublishTimeout = 5 * time.Second
)

// ErrTickInProgress is returned by Tick when the previous tick has not finished.
var ErrTickInProgress = errors.New("monitor tick already in progress")

// Monitor polls every tracked wallet and notifies the owning chats when the
// newest transaction changes. Only the newest transaction is considered, so
// several transactions between two ticks produce one notification.
type Monitor struct {
	logger *logger.Logger

	repo      models.Repository
	provider  models.WalletDataProvider
	sink      models.NotificationSink
	publisher models.ActivityPublisher
	messages  *Messages

	interval       time.Duration
	ticks          <-chan time.Time
	now            func() time.Time
	concurrency    int
	publishTimeout time.Duration

	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type MonitorOption func(*Monitor)

func WithInterval(interval time.Duration) MonitorOption {
	return func(m *Monitor) {
		if interval > 0 {
			m.interval = interval
		}
	}
}

// WithTicks replaces the internal ticker, letting tests drive ticks by hand.
func WithTicks(ticks <-chan time.Time) MonitorOption {
	return func(m *Monitor) { m.ticks = ticks }
}

func WithClock(now func() time.Time) MonitorOption {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// WithConcurrency bounds how many addresses are fetched at once.
func WithConcurrency(n int) MonitorOption {
	return func(m *Monitor) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// WithPublisher forwards each detected transaction to an activity stream.
func WithPublisher(publisher models.ActivityPublisher) MonitorOption {
	return func(m *Monitor) { m.publisher = publisher }
}

// WithPublishTimeout bounds a single activity publish.
func WithPublishTimeout(timeout time.Duration) MonitorOption {
	return func(m *Monitor) {
		if timeout > 0 {
			m.publishTimeout = timeout
		}
	}
}

func NewMonitor(
	repo models.Repository,
	provider models.WalletDataProvider,
	sink models.NotificationSink,
	messages *Messages,
	logger *logger.Logger,
	opts ...MonitorOption,
) *Monitor {
	m := &Monitor{
		logger:         logger,
		repo:           repo,
		provider:       provider,
		sink:           sink,
		messages:       messages,
		interval:       DefaultPollInterval,
		now:            time.Now,
		concurrency:    DefaultConcurrency,
		publishTimeout: DefaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start runs the polling loop in the background until Stop is called or ctx
// is cancelled. Calling Start on a running monitor is a no-op.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done != nil {
		return
	}

	m.seedTrackedWallets(ctx)

	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})

	ticks := m.ticks
	var ticker *time.Ticker
	if ticks == nil {
		ticker = time.NewTicker(m.interval)
		ticks = ticker.C
	}

	go func(done chan struct{}) {
		defer close(done)
		if ticker != nil {
			defer ticker.Stop()
		}
		m.logger.Info("Wallet monitor started", "interval", m.interval, "concurrency", m.concurrency)

		for {
			select {
			case <-ctx.Done():
				m.logger.Info("Wallet monitor stopped")
				return
			case _, ok := <-ticks:
				if !ok {
					m.logger.Info("Wallet monitor tick source closed")
					return
				}
				if err := m.Tick(ctx); err != nil {
					m.logger.Error("Wallet monitor tick finished with errors", "error", err)
				}
			}
		}
	}(m.done)
}

// seedTrackedWallets sets the tracked wallets gauge before the first tick.
func (m *Monitor) seedTrackedWallets(ctx context.Context) {
	count, err := m.repo.CountTrackedWallets(ctx)
	if err != nil {
		m.logger.Warn("Failed to count tracked wallets", "error", err)
		return
	}
	metrics.TrackedWallets.Set(float64(count))
}

// Stop cancels the loop and waits for the current tick to finish.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Tick runs one pass over all tracked wallets. Per-wallet failures never stop
// the pass; they are combined into the returned error.
func (m *Monitor) Tick(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		metrics.MonitorTicksSkipped.Inc()
		return ErrTickInProgress
	}
	defer m.running.Store(false)

	start := m.now()
	err := m.tick(ctx)
	metrics.MonitorTickDuration.Observe(m.now().Sub(start).Seconds())

	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.MonitorTicks.WithLabelValues(result).Inc()
	return err
}

func (m *Monitor) tick(ctx context.Context) error {
	wallets, err := m.repo.GetTrackedWallets(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tracked wallets: %w", err)
	}
	metrics.TrackedWallets.Set(float64(len(wallets)))

	// one provider query per address, shared by every chat tracking it
	byAddress := make(map[string][]*models.TrackedWallet)
	var order []string
	for _, w := range wallets {
		if _, ok := byAddress[w.WalletAddress]; !ok {
			order = append(order, w.WalletAddress)
		}
		byAddress[w.WalletAddress] = append(byAddress[w.WalletAddress], w)
	}

	var (
		errMu  sync.Mutex
		errAll error
	)
	var g errgroup.Group
	g.SetLimit(m.concurrency)
	for _, address := range order {
		records := byAddress[address]
		g.Go(func() error {
			if err := m.checkAddress(ctx, address, records); err != nil {
				errMu.Lock()
				errAll = multierr.Append(errAll, err)
				errMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	m.logger.Debug("Wallet monitor tick done", "wallets", len(wallets), "addresses", len(order))
	return errAll
}

func (m *Monitor) checkAddress(ctx context.Context, address string, records []*models.TrackedWallet) error {
	metrics.WalletsChecked.Inc()

	txs, err := m.provider.GetRecentTransactions(ctx, address)
	if err != nil {
		metrics.ProviderErrors.WithLabelValues("monitor").Inc()
		m.logger.Warn("Failed to fetch transactions", "address", address, "error", err)
		return fmt.Errorf("address %s: %w", address, err)
	}
	if len(txs) == 0 || txs[0] == nil {
		return nil
	}
	newest := txs[0]

	var errs error
	for _, record := range records {
		if strings.EqualFold(record.LastTxHash, newest.Hash) {
			continue
		}
		errs = multierr.Append(errs, m.notify(ctx, record, newest))
	}
	return errs
}

// notify delivers the notification and only then advances the cursor, so a
// failed delivery is retried on the next tick.
func (m *Monitor) notify(ctx context.Context, record *models.TrackedWallet, tx *models.Transaction) error {
	log := m.logger.With("chat_id", record.ChatID, "address", record.WalletAddress, "tx", tx.Hash)

	msg := m.messages.Notification(record.WalletAddress, tx)
	if err := m.sink.SendMessage(ctx, record.ChatID, msg); err != nil {
		metrics.DeliveryErrors.Inc()
		log.Error("Failed to deliver notification", "error", err)
		return fmt.Errorf("chat %s address %s: %w: %v", record.ChatID, record.WalletAddress, models.ErrNotificationDelivery, err)
	}
	metrics.NotificationsSent.Inc()

	if err := m.repo.UpdateLastTxHash(ctx, record.ChatID, record.WalletAddress, tx.Hash); err != nil {
		log.Error("Failed to update last tx hash", "error", err)
		return fmt.Errorf("chat %s address %s: %w", record.ChatID, record.WalletAddress, err)
	}
	log.Info("New transaction notified")

	m.publish(ctx, log, record, tx)
	return nil
}

func (m *Monitor) publish(ctx context.Context, log *logger.Logger, record *models.TrackedWallet, tx *models.Transaction) {
	if m.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, m.publishTimeout)
	defer cancel()

	event := &models.ActivityEvent{
		ChatID:    record.ChatID,
		Wallet:    record.WalletAddress,
		TxHash:    tx.Hash,
		From:      tx.From,
		To:        tx.To,
		Direction: tx.Direction,
		Timestamp: tx.Timestamp.Unix(),
		SeenAt:    m.now().Unix(),
	}
	if tx.Value != nil {
		event.ValueWei = tx.Value.String()
	}
	if err := m.publisher.Publish(ctx, event); err != nil {
		log.Warn("Failed to publish activity event", "error", err)
	}
}
