package tracker

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/shadowbot/shadowbot/internal/analytics"
	"github.com/shadowbot/shadowbot/internal/intent"
	"github.com/shadowbot/shadowbot/internal/models"
	"github.com/shadowbot/shadowbot/internal/repository"
	"github.com/shadowbot/shadowbot/pkg/logger"
	"github.com/shadowbot/shadowbot/pkg/units"
)

const (
	walletF = "0xffffffffffffffffffffffffffffffffffffffff"
	walletA = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	walletB = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	chat1   = "100"
	chat2   = "200"
)

var (
	testNow        = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	errUnavailable = errors.New("upstream unavailable")
)

type fakeProvider struct {
	mu       sync.Mutex
	txs      map[string][]*models.Transaction
	balances map[string]*big.Int
	txErr    map[string]error
	balErr   map[string]error
	txCalls  map[string]int
	// block, when set, is waited on inside GetRecentTransactions.
	block   chan struct{}
	entered chan struct{}
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		txs:      make(map[string][]*models.Transaction),
		balances: make(map[string]*big.Int),
		txErr:    make(map[string]error),
		balErr:   make(map[string]error),
		txCalls:  make(map[string]int),
	}
}

func (p *fakeProvider) setTxs(address string, txs ...*models.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.txs[address] = txs
}

func (p *fakeProvider) calls(address string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.txCalls[address]
}

func (p *fakeProvider) GetRecentTransactions(ctx context.Context, address string) ([]*models.Transaction, error) {
	p.mu.Lock()
	p.txCalls[address]++
	block, entered := p.block, p.entered
	txs, err := p.txs[address], p.txErr[address]
	p.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, models.NewProviderError("txlist", err)
	}
	return txs, nil
}

func (p *fakeProvider) GetBalance(ctx context.Context, address string) (*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.balErr[address]; err != nil {
		return nil, models.NewProviderError("balance", err)
	}
	if b, ok := p.balances[address]; ok {
		return b, nil
	}
	return new(big.Int), nil
}

type sentMessage struct {
	chatID string
	msg    *models.Message
}

type recordingSink struct {
	mu   sync.Mutex
	sent []sentMessage
	fail map[string]error
}

func newRecordingSink() *recordingSink {
	return &recordingSink{fail: make(map[string]error)}
}

func (s *recordingSink) SendMessage(_ context.Context, chatID string, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[chatID]; err != nil {
		return err
	}
	s.sent = append(s.sent, sentMessage{chatID: chatID, msg: msg})
	return nil
}

func (s *recordingSink) failFor(chatID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, chatID)
		return
	}
	s.fail[chatID] = err
}

func (s *recordingSink) messages() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMessage(nil), s.sent...)
}

func (s *recordingSink) last() *models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return nil
	}
	return s.sent[len(s.sent)-1].msg
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*models.ActivityEvent
	err    error
	// block makes Publish wait for ctx to end.
	block bool
}

func (p *recordingPublisher) Publish(ctx context.Context, event *models.ActivityEvent) error {
	p.mu.Lock()
	p.events = append(p.events, event)
	block, err := p.block, p.err
	p.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (p *recordingPublisher) Close() error { return nil }

func tx(hash string, direction models.Direction, valueMilli int64, age time.Duration) *models.Transaction {
	return &models.Transaction{
		Hash:      hash,
		From:      walletB,
		To:        walletF,
		Value:     units.Ether(valueMilli, 3),
		GasUsed:   21000,
		GasPrice:  big.NewInt(20_000_000_000),
		Timestamp: testNow.Add(-age),
		Direction: direction,
	}
}

type harness struct {
	repo     *repository.MemoryDB
	provider *fakeProvider
	sink     *recordingSink
	intents  *intent.MemoryStore
	service  *Service
	messages *Messages
}

func newHarness() *harness {
	h := &harness{
		repo:     repository.NewMemoryDB(),
		provider: newFakeProvider(),
		sink:     newRecordingSink(),
		intents:  intent.NewMemoryStore(time.Minute),
		messages: NewMessages("https://etherscan.io"),
	}
	h.service = NewService(
		h.repo,
		h.provider,
		h.sink,
		h.intents,
		analytics.NewEngine(func() time.Time { return testNow }),
		h.messages,
		logger.NewNop(),
	)
	return h
}

func (h *harness) monitor(opts ...MonitorOption) *Monitor {
	opts = append([]MonitorOption{WithClock(func() time.Time { return testNow })}, opts...)
	return NewMonitor(h.repo, h.provider, h.sink, h.messages, logger.NewNop(), opts...)
}

func (h *harness) track(chatID, address, lastTxHash string) {
	_, _ = h.repo.AddTrackedWallet(context.Background(), &models.TrackedWallet{ChatID: chatID, WalletAddress: address})
	if lastTxHash != "" {
		_ = h.repo.UpdateLastTxHash(context.Background(), chatID, address, lastTxHash)
	}
}

func (h *harness) cursor(chatID, address string) string {
	wallets, _ := h.repo.GetTrackedWalletsByChat(context.Background(), chatID)
	for _, w := range wallets {
		if w.WalletAddress == address {
			return w.LastTxHash
		}
	}
	return "<missing>"
}

func tokens(msg *models.Message) []string {
	var out []string
	for _, row := range msg.Actions {
		for _, a := range row {
			out = append(out, a.Token)
		}
	}
	return out
}
