package notificator

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	tgModels "github.com/go-telegram/bot/models"

	"github.com/shadowbot/shadowbot/internal/models"
	"github.com/shadowbot/shadowbot/pkg/logger"
)

var _ models.NotificationSink = (*TelegramNotificator)(nil)

// TelegramNotificator is both the chat front end and the Telegram
// NotificationSink: it renders outbound messages and routes incoming
// commands and button presses to the tracker.
type TelegramNotificator struct {
	logger        *logger.Logger
	bot           *bot.Bot
	tracker       models.Tracker
	webhookSecret string
}

// NewTelegramNotificator creates the bot client. When webhookSecret is set,
// webhook updates without a matching X-Telegram-Bot-Api-Secret-Token header
// are dropped. Extra options are appended after the defaults, tests use them
// to point the client at a fake server.
func NewTelegramNotificator(logger *logger.Logger, token, webhookSecret string, opts ...bot.Option) (*TelegramNotificator, error) {
	provider := &TelegramNotificator{
		logger:        logger,
		webhookSecret: webhookSecret,
	}
	defaults := []bot.Option{
		bot.WithDefaultHandler(provider.handler),
		bot.WithErrorsHandler(func(err error) {
			logger.Error("Telegram bot error", "error", err)
		}),
	}
	if webhookSecret != "" {
		defaults = append(defaults, bot.WithWebhookSecretToken(webhookSecret))
	}
	opts = append(defaults, opts...)

	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	provider.bot = b

	return provider, nil
}

// SetTracker attaches the command handler. Updates received before it is set
// are dropped.
func (t *TelegramNotificator) SetTracker(tracker models.Tracker) {
	t.tracker = tracker
}

// Start consumes updates by long polling until ctx is cancelled.
func (t *TelegramNotificator) Start(ctx context.Context) {
	t.logger.Info("Telegram bot started (long polling)")
	t.bot.Start(ctx)
}

// StartWebhook registers webhookURL with Telegram and processes updates
// posted to WebhookHandler until ctx is cancelled.
func (t *TelegramNotificator) StartWebhook(ctx context.Context, webhookURL string) error {
	if t.webhookSecret == "" {
		return fmt.Errorf("refusing to start webhook without a secret token")
	}
	params := &bot.SetWebhookParams{URL: webhookURL, SecretToken: t.webhookSecret}
	if _, err := t.bot.SetWebhook(ctx, params); err != nil {
		return fmt.Errorf("failed to set telegram webhook: %w", err)
	}
	t.logger.Info("Telegram bot started (webhook)", "url", webhookURL)
	go t.bot.StartWebhook(ctx)
	return nil
}

// NewWebhookSecret returns a random token usable as a webhook secret.
func NewWebhookSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate webhook secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func (t *TelegramNotificator) WebhookHandler() http.Handler {
	return t.bot.WebhookHandler()
}

func (t *TelegramNotificator) SendMessage(ctx context.Context, chatID string, msg *models.Message) error {
	if _, err := t.bot.SendMessage(ctx, sendMessageParams(chatID, msg)); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

func sendMessageParams(chatID string, msg *models.Message) *bot.SendMessageParams {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   msg.Text,
	}
	if msg.Markdown {
		params.ParseMode = tgModels.ParseModeMarkdownV1
	}

	switch {
	case len(msg.Actions) > 0:
		rows := make([][]tgModels.InlineKeyboardButton, 0, len(msg.Actions))
		for _, actions := range msg.Actions {
			row := make([]tgModels.InlineKeyboardButton, 0, len(actions))
			for _, a := range actions {
				row = append(row, tgModels.InlineKeyboardButton{Text: a.Label, CallbackData: a.Token})
			}
			rows = append(rows, row)
		}
		params.ReplyMarkup = &tgModels.InlineKeyboardMarkup{InlineKeyboard: rows}
	case len(msg.Keyboard) > 0:
		rows := make([][]tgModels.KeyboardButton, 0, len(msg.Keyboard))
		for _, labels := range msg.Keyboard {
			row := make([]tgModels.KeyboardButton, 0, len(labels))
			for _, label := range labels {
				row = append(row, tgModels.KeyboardButton{Text: label})
			}
			rows = append(rows, row)
		}
		params.ReplyMarkup = &tgModels.ReplyKeyboardMarkup{Keyboard: rows, ResizeKeyboard: true}
	}

	return params
}

func (t *TelegramNotificator) handler(ctx context.Context, b *bot.Bot, update *tgModels.Update) {
	if t.tracker == nil {
		t.logger.Warn("Telegram update dropped, tracker not attached", "update_id", update.ID)
		return
	}

	switch {
	case update.CallbackQuery != nil:
		t.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Text != "":
		t.handleMessage(ctx, update.Message)
	}
}

func (t *TelegramNotificator) handleMessage(ctx context.Context, msg *tgModels.Message) {
	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	username := ""
	if msg.From != nil {
		username = msg.From.Username
	}
	t.logger.Debug("Telegram message", "chat_id", chatID, "username", username, "text", msg.Text)

	command, arg, ok := parseCommand(msg.Text)
	if !ok {
		t.tracker.HandleText(ctx, chatID, msg.Text)
		return
	}

	switch command {
	case "start":
		t.tracker.Welcome(ctx, chatID)
	case "help":
		t.tracker.Help(ctx, chatID)
	case "list":
		t.tracker.ListWallets(ctx, chatID)
	case "track":
		if arg == "" {
			t.tracker.PromptAddress(ctx, chatID, models.IntentAdd)
			return
		}
		t.tracker.StartTracking(ctx, chatID, arg)
	case "untrack":
		if arg == "" {
			t.tracker.PromptAddress(ctx, chatID, models.IntentRemove)
			return
		}
		t.tracker.StopTracking(ctx, chatID, arg)
	case "balance":
		t.typing(ctx, chatID)
		t.tracker.Balance(ctx, chatID, arg)
	case "transactions":
		t.typing(ctx, chatID)
		t.tracker.Transactions(ctx, chatID, arg)
	case "analytics":
		t.typing(ctx, chatID)
		t.tracker.Analytics(ctx, chatID, arg)
	default:
		t.logger.Debug("Unknown command ignored", "chat_id", chatID, "command", command)
	}
}

func (t *TelegramNotificator) handleCallback(ctx context.Context, query *tgModels.CallbackQuery) {
	chatID := callbackChatID(query)
	t.logger.Debug("Telegram callback", "chat_id", chatID, "data", query.Data)

	t.typing(ctx, chatID)
	outcome := t.tracker.HandleAction(ctx, chatID, query.Data)

	// always answer so the client stops the loading animation
	params := &bot.AnswerCallbackQueryParams{CallbackQueryID: query.ID}
	switch outcome {
	case models.OutcomeRemoved:
		params.Text = "✅ Untracked!"
	case models.OutcomeFailed, models.OutcomeProviderError:
		params.Text = "Error processing request"
	}
	if _, err := t.bot.AnswerCallbackQuery(ctx, params); err != nil {
		t.logger.Warn("Failed to answer callback query", "chat_id", chatID, "error", err)
	}
}

func (t *TelegramNotificator) typing(ctx context.Context, chatID string) {
	_, err := t.bot.SendChatAction(ctx, &bot.SendChatActionParams{
		ChatID: chatID,
		Action: tgModels.ChatActionTyping,
	})
	if err != nil {
		t.logger.Debug("Failed to send typing action", "chat_id", chatID, "error", err)
	}
}

// callbackChatID resolves the chat a button was pressed in. Old messages may
// be inaccessible, in which case the private chat with the user is used.
func callbackChatID(query *tgModels.CallbackQuery) string {
	switch {
	case query.Message.Message != nil:
		return strconv.FormatInt(query.Message.Message.Chat.ID, 10)
	case query.Message.InaccessibleMessage != nil:
		return strconv.FormatInt(query.Message.InaccessibleMessage.Chat.ID, 10)
	default:
		return strconv.FormatInt(query.From.ID, 10)
	}
}

// parseCommand splits "/cmd@bot arg" into its lowercase command and first
// argument. ok is false for text that is not a command.
func parseCommand(text string) (command, arg string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", "", false
	}

	command = strings.TrimPrefix(fields[0], "/")
	if i := strings.Index(command, "@"); i >= 0 {
		command = command[:i]
	}
	if command == "" {
		return "", "", false
	}
	if len(fields) > 1 {
		arg = fields[1]
	}
	return strings.ToLower(command), arg, true
}
