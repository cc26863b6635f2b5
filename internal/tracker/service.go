package tracker

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/shadowbot/shadowbot/internal/analytics"
	"github.com/shadowbot/shadowbot/internal/metrics"
	"github.com/shadowbot/shadowbot/internal/models"
	"github.com/shadowbot/shadowbot/pkg/logger"
	"github.com/shadowbot/shadowbot/pkg/validation"
)

var (
	_ models.Tracker      = (*Service)(nil)
	_ models.WalletLookup = (*Service)(nil)
)

// Service serves all chat commands. Every operation catches its own
// failures and answers the chat with exactly one message, so nothing
// returned from here is an error.
type Service struct {
	logger *logger.Logger

	repo      models.Repository
	provider  models.WalletDataProvider
	sink      models.NotificationSink
	intents   models.IntentStore
	analytics *analytics.Engine
	messages  *Messages
}

// NewService creates a new Service
func NewService(
	repo models.Repository,
	provider models.WalletDataProvider,
	sink models.NotificationSink,
	intents models.IntentStore,
	engine *analytics.Engine,
	messages *Messages,
	logger *logger.Logger,
) *Service {
	return &Service{
		logger:    logger,
		repo:      repo,
		provider:  provider,
		sink:      sink,
		intents:   intents,
		analytics: engine,
		messages:  messages,
	}
}

// Welcome greets the chat and installs the reply keyboard. It is the one
// operation that sends two messages: the keyboard needs a message of its own.
func (s *Service) Welcome(ctx context.Context, chatID string) models.Outcome {
	s.send(ctx, chatID, s.messages.Welcome())
	return s.reply(ctx, "start", chatID, models.OutcomeOK, s.messages.Menu())
}

func (s *Service) Help(ctx context.Context, chatID string) models.Outcome {
	return s.reply(ctx, "help", chatID, models.OutcomeOK, s.messages.Help())
}

func (s *Service) StartTracking(ctx context.Context, chatID, address string) models.Outcome {
	const command = "track"

	normalized, err := validation.ValidateAndNormalizeAddress(strings.TrimSpace(address))
	if err != nil {
		return s.reply(ctx, command, chatID, models.OutcomeInvalidAddress, s.messages.InvalidAddress())
	}

	created, err := s.repo.AddTrackedWallet(ctx, &models.TrackedWallet{ChatID: chatID, WalletAddress: normalized})
	if err != nil {
		s.logger.Error("Failed to track wallet", "chat_id", chatID, "address", normalized, "error", err)
		return s.reply(ctx, command, chatID, models.OutcomeFailed, s.messages.TrackFailed())
	}
	if !created {
		return s.reply(ctx, command, chatID, models.OutcomeAlreadyTracked, s.messages.AlreadyTracked(normalized))
	}

	metrics.TrackedWallets.Inc()
	s.logger.Info("Tracking started", "chat_id", chatID, "address", normalized)
	return s.reply(ctx, command, chatID, models.OutcomeCreated, s.messages.TrackingStarted(normalized))
}

func (s *Service) StopTracking(ctx context.Context, chatID, address string) models.Outcome {
	const command = "untrack"

	normalized, err := validation.ValidateAndNormalizeAddress(strings.TrimSpace(address))
	if err != nil {
		return s.reply(ctx, command, chatID, models.OutcomeInvalidAddress, s.messages.InvalidAddress())
	}

	removed, err := s.repo.RemoveTrackedWallet(ctx, chatID, normalized)
	if err != nil {
		s.logger.Error("Failed to untrack wallet", "chat_id", chatID, "address", normalized, "error", err)
		return s.reply(ctx, command, chatID, models.OutcomeFailed, s.messages.UntrackFailed())
	}
	if !removed {
		return s.reply(ctx, command, chatID, models.OutcomeNotFound, s.messages.NotTracked())
	}

	metrics.TrackedWallets.Dec()
	s.logger.Info("Tracking stopped", "chat_id", chatID, "address", normalized)
	return s.reply(ctx, command, chatID, models.OutcomeRemoved, s.messages.TrackingStopped(normalized))
}

func (s *Service) Balance(ctx context.Context, chatID, address string) models.Outcome {
	const command = "balance"

	normalized, err := validation.ValidateAndNormalizeAddress(strings.TrimSpace(address))
	if err != nil {
		return s.reply(ctx, command, chatID, models.OutcomeInvalidAddress, s.messages.InvalidAddress())
	}

	balance, err := s.provider.GetBalance(ctx, normalized)
	if err != nil {
		s.providerFailure(command, chatID, normalized, err)
		return s.reply(ctx, command, chatID, models.OutcomeProviderError, s.messages.BalanceFailed())
	}

	return s.reply(ctx, command, chatID, models.OutcomeOK, s.messages.Balance(normalized, balance))
}

func (s *Service) Transactions(ctx context.Context, chatID, address string) models.Outcome {
	const command = "transactions"

	normalized, err := validation.ValidateAndNormalizeAddress(strings.TrimSpace(address))
	if err != nil {
		return s.reply(ctx, command, chatID, models.OutcomeInvalidAddress, s.messages.InvalidAddress())
	}

	txs, err := s.provider.GetRecentTransactions(ctx, normalized)
	if err != nil {
		s.providerFailure(command, chatID, normalized, err)
		return s.reply(ctx, command, chatID, models.OutcomeProviderError, s.messages.TransactionsFailed())
	}
	if len(txs) == 0 {
		return s.reply(ctx, command, chatID, models.OutcomeNoData, s.messages.NoTransactions())
	}

	return s.reply(ctx, command, chatID, models.OutcomeOK, s.messages.Transactions(normalized, txs))
}

func (s *Service) Analytics(ctx context.Context, chatID, address string) models.Outcome {
	const command = "analytics"

	normalized, err := validation.ValidateAndNormalizeAddress(strings.TrimSpace(address))
	if err != nil {
		return s.reply(ctx, command, chatID, models.OutcomeInvalidAddress, s.messages.InvalidAddress())
	}

	snapshot, err := s.snapshot(ctx, normalized)
	switch {
	case errors.Is(err, models.ErrNoData):
		return s.reply(ctx, command, chatID, models.OutcomeNoData, s.messages.NoAnalytics())
	case err != nil:
		s.providerFailure(command, chatID, normalized, err)
		return s.reply(ctx, command, chatID, models.OutcomeProviderError, s.messages.AnalyticsFailed())
	}

	return s.reply(ctx, command, chatID, models.OutcomeOK, s.messages.Analytics(normalized, snapshot))
}

func (s *Service) ListWallets(ctx context.Context, chatID string) models.Outcome {
	const command = "list"

	wallets, err := s.repo.GetTrackedWalletsByChat(ctx, chatID)
	if err != nil {
		s.logger.Error("Failed to list tracked wallets", "chat_id", chatID, "error", err)
		return s.reply(ctx, command, chatID, models.OutcomeFailed, s.messages.ListFailed())
	}
	if len(wallets) == 0 {
		return s.reply(ctx, command, chatID, models.OutcomeNoData, s.messages.NoWallets())
	}

	return s.reply(ctx, command, chatID, models.OutcomeOK, s.messages.WalletList(wallets))
}

// PromptAddress records what the next address from this chat is for and
// asks for it.
func (s *Service) PromptAddress(ctx context.Context, chatID string, intent models.Intent) models.Outcome {
	if intent != models.IntentRemove {
		intent = models.IntentAdd
	}
	if err := s.intents.Set(ctx, chatID, intent); err != nil {
		// the address will still be handled as a track request
		s.logger.Warn("Failed to store intent", "chat_id", chatID, "intent", intent, "error", err)
	}
	return s.reply(ctx, "prompt", chatID, models.OutcomePrompted, s.messages.Prompt(intent))
}

func (s *Service) HandleText(ctx context.Context, chatID, text string) models.Outcome {
	const command = "text"

	text = strings.TrimSpace(text)
	switch {
	case text == KeyboardAddTracker:
		return s.PromptAddress(ctx, chatID, models.IntentAdd)
	case text == KeyboardRemoveTracker:
		return s.PromptAddress(ctx, chatID, models.IntentRemove)
	case validation.IsValidAddress(text):
		intent, err := s.intents.Pop(ctx, chatID)
		if err != nil {
			s.logger.Warn("Failed to load intent", "chat_id", chatID, "error", err)
		}
		if intent == models.IntentRemove {
			return s.StopTracking(ctx, chatID, text)
		}
		return s.StartTracking(ctx, chatID, text)
	case validation.LooksLikeAddress(text):
		// the pending intent survives so the user can retry
		return s.reply(ctx, command, chatID, models.OutcomeInvalidAddress, s.messages.MalformedAddress())
	default:
		metrics.Commands.WithLabelValues(command, models.OutcomeIgnored.String()).Inc()
		return models.OutcomeIgnored
	}
}

func (s *Service) HandleAction(ctx context.Context, chatID, token string) models.Outcome {
	kind, address, err := ParseAction(token)
	if err != nil {
		s.logger.Warn("Unknown action token", "chat_id", chatID, "token", token, "error", err)
		return s.reply(ctx, "action", chatID, models.OutcomeFailed, s.messages.UnknownAction())
	}

	switch kind {
	case ActionBalance:
		return s.Balance(ctx, chatID, address)
	case ActionTransactions:
		return s.Transactions(ctx, chatID, address)
	case ActionAnalytics:
		return s.Analytics(ctx, chatID, address)
	case ActionUntrack:
		return s.StopTracking(ctx, chatID, address)
	default:
		return s.PromptAddress(ctx, chatID, models.IntentAdd)
	}
}

// LookupBalance returns the balance of a well-formed address.
func (s *Service) LookupBalance(ctx context.Context, address string) (*big.Int, error) {
	normalized, err := validation.ValidateAndNormalizeAddress(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidAddress, err)
	}
	return s.provider.GetBalance(ctx, normalized)
}

// LookupAnalytics returns fresh analytics, or ErrNoData when the address has
// no transactions.
func (s *Service) LookupAnalytics(ctx context.Context, address string) (*models.AnalyticsSnapshot, error) {
	normalized, err := validation.ValidateAndNormalizeAddress(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidAddress, err)
	}
	return s.snapshot(ctx, normalized)
}

// snapshot fetches transactions and balance concurrently.
func (s *Service) snapshot(ctx context.Context, address string) (*models.AnalyticsSnapshot, error) {
	var (
		txs     []*models.Transaction
		balance *big.Int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.provider.GetRecentTransactions(gctx, address)
		return err
	})
	g.Go(func() error {
		var err error
		balance, err = s.provider.GetBalance(gctx, address)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(txs) == 0 {
		return nil, models.ErrNoData
	}
	return s.analytics.Compute(txs, balance), nil
}

func (s *Service) providerFailure(command, chatID, address string, err error) {
	metrics.ProviderErrors.WithLabelValues(command).Inc()
	s.logger.Error("Wallet data provider failed", "command", command, "chat_id", chatID, "address", address, "error", err)
}

// reply sends msg, records the outcome and returns it.
func (s *Service) reply(ctx context.Context, command, chatID string, outcome models.Outcome, msg *models.Message) models.Outcome {
	metrics.Commands.WithLabelValues(command, outcome.String()).Inc()
	s.send(ctx, chatID, msg)
	return outcome
}

func (s *Service) send(ctx context.Context, chatID string, msg *models.Message) {
	if err := s.sink.SendMessage(ctx, chatID, msg); err != nil {
		metrics.DeliveryErrors.Inc()
		s.logger.Error("Failed to deliver message", "chat_id", chatID, "error", err)
	}
}
