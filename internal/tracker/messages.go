package tracker

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shadowbot/shadowbot/internal/models"
	"github.com/shadowbot/shadowbot/pkg/units"
)

const (
	// KeyboardAddTracker and KeyboardRemoveTracker label the persistent reply keyboard.
	KeyboardAddTracker    = "➕ Add tracker"
	KeyboardRemoveTracker = "❌ Remove tracker"

	displayDecimals = 4
	gasDecimals     = 2
	timeLayout      = "2006-01-02 15:04:05 UTC"
	shortHashLen    = 12
)

// Messages renders every outbound chat message.
type Messages struct {
	explorerURL string
}

func NewMessages(explorerURL string) *Messages {
	return &Messages{explorerURL: strings.TrimRight(explorerURL, "/")}
}

func (m *Messages) txLink(hash, label string) string {
	return fmt.Sprintf("[%s](%s/tx/%s)", label, m.explorerURL, hash)
}

func markdown(text string, actions ...[]models.Action) *models.Message {
	return &models.Message{Text: text, Markdown: true, Actions: actions}
}

func plain(text string) *models.Message {
	return &models.Message{Text: text}
}

func action(label string, kind ActionKind, address string) models.Action {
	return models.Action{Label: label, Token: EncodeAction(kind, address)}
}

func (m *Messages) Welcome() *models.Message {
	text := "Welcome to ShadowBot 🚀\n" +
		"Track wallet balances, transactions, and more.\n\n" +
		"🛠️ *Available Commands:*\n" +
		"📌 `/transactions 0xYourWalletAddress` – View latest transactions\n" +
		"📌 `/balance 0xYourWalletAddress` – Check ETH balance\n" +
		"📌 `/analytics 0xYourWalletAddress` – Wallet analytics\n" +
		"📌 `/track 0xYourWalletAddress` – Start tracking a wallet\n" +
		"📌 `/untrack 0xYourWalletAddress` – Stop tracking a wallet\n" +
		"📌 `/list` – Show tracked wallets\n\n" +
		"ℹ️ _Send a valid wallet address to get started!_"
	return markdown(text, []models.Action{action("🔍 Track Wallet", ActionAsk, "")})
}

// Menu carries the persistent reply keyboard. Telegram cannot attach inline
// actions and a reply keyboard to the same message.
func (m *Messages) Menu() *models.Message {
	return &models.Message{
		Text:     "Choose from the menu below 👇",
		Keyboard: [][]string{{KeyboardAddTracker, KeyboardRemoveTracker}},
	}
}

func (m *Messages) Help() *models.Message {
	text := "📌 *Bot Commands & Usage Guide*:\n\n" +
		"🔹 */start* - Start the bot and get a welcome message.\n\n" +
		"🔹 */transactions <address>* - View recent transactions of a wallet.\n" +
		"  *Example:* `/transactions 0x1234567890abcdef...`\n\n" +
		"🔹 */track <address>* - Start tracking a wallet for real-time updates.\n" +
		"  *Example:* `/track 0x1234567890abcdef...`\n\n" +
		"🔹 */untrack <address>* - Stop tracking a wallet.\n" +
		"  *Example:* `/untrack 0x1234567890abcdef...`\n\n" +
		"🔹 */balance <address>* - Check the current balance of a wallet.\n" +
		"  *Example:* `/balance 0x1234567890abcdef...`\n\n" +
		"🔹 */analytics <address>* - Wallet analytics: flows, counts and activity.\n" +
		"  *Example:* `/analytics 0x1234567890abcdef...`\n\n" +
		"🔹 */list* - Show the wallets tracked in this chat.\n\n" +
		"ℹ️ *Use the correct Ethereum wallet address format (0x followed by 40 hex characters) when using commands.*\n\n" +
		"🚀 Happy tracking!"
	return markdown(text)
}

func (m *Messages) InvalidAddress() *models.Message {
	return markdown("⚠️ *Invalid Ethereum address format*")
}

// MalformedAddress answers free text that looks like an address but is not one.
func (m *Messages) MalformedAddress() *models.Message {
	return plain("⚠️ Invalid Ethereum address. Please try again.")
}

func (m *Messages) Prompt(intent models.Intent) *models.Message {
	if intent == models.IntentRemove {
		return plain("📤 Please send the Ethereum wallet address to stop tracking:")
	}
	return plain("📥 Please send your Ethereum wallet address:")
}

func (m *Messages) TrackingStarted(address string) *models.Message {
	return markdown(
		fmt.Sprintf("✅ *Tracking started for wallet:*\n`%s`\n\n_You will be notified for new transactions._", address),
		[]models.Action{
			action("📊 Check Balance", ActionBalance, address),
			action("📜 View Transactions", ActionTransactions, address),
		},
	)
}

func (m *Messages) AlreadyTracked(address string) *models.Message {
	return markdown(
		"⚠️ *This wallet is already being tracked.*",
		[]models.Action{action("🔍 Untrack Wallet", ActionUntrack, address)},
	)
}

func (m *Messages) TrackingStopped(address string) *models.Message {
	return markdown(fmt.Sprintf("✅ *Tracking stopped for wallet:*\n`%s`", address))
}

func (m *Messages) NotTracked() *models.Message {
	return markdown("⚠️ *This wallet is not currently tracked.*")
}

func (m *Messages) TrackFailed() *models.Message {
	return plain("❌ Could not track wallet. Try again later.")
}

func (m *Messages) UntrackFailed() *models.Message {
	return plain("❌ Failed to untrack wallet. Try again later.")
}

func (m *Messages) Balance(address string, wei *big.Int) *models.Message {
	text := fmt.Sprintf("💰 *Wallet Balance*\n`%s`\n\n🔹 *ETH Available:* `%s ETH`\n\n_Data fetched in real-time from Ethereum network._",
		address, ether(wei))
	return markdown(text, []models.Action{
		action("🔄 Refresh Balance", ActionBalance, address),
		action("📜 View Transactions", ActionTransactions, address),
	})
}

func (m *Messages) BalanceFailed() *models.Message {
	return plain("❌ Error fetching balance. Try again later.")
}

func (m *Messages) Transactions(address string, txs []*models.Transaction) *models.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "📜 *Latest Transactions for*\n`%s`:\n\n", address)
	for i, tx := range txs {
		direction := "⬆️ Out"
		if tx.Incoming() {
			direction = "⬇️ In"
		}
		fmt.Fprintf(&b, "🔹 *%d. TxHash:* %s\n", i+1, m.txLink(tx.Hash, shortHash(tx.Hash)))
		fmt.Fprintf(&b, "   %s 💰 *Value:* `%s ETH`\n", direction, ether(tx.Value))
		fmt.Fprintf(&b, "   ⛽ *Gas Used:* `%d`\n", tx.GasUsed)
		fmt.Fprintf(&b, "   ⏳ *Time:* `%s`\n", formatTime(tx.Timestamp))
		if tx.Failed {
			b.WriteString("   ❌ _Failed_\n")
		}
		b.WriteString("\n")
	}
	return markdown(strings.TrimRight(b.String(), "\n"), []models.Action{
		action("🔄 Refresh Tx", ActionTransactions, address),
		action("📈 Analytics", ActionAnalytics, address),
	})
}

func (m *Messages) NoTransactions() *models.Message {
	return plain("⚠️ No transactions found for this address.")
}

func (m *Messages) TransactionsFailed() *models.Message {
	return plain("❌ Error fetching transactions. Try again later.")
}

func (m *Messages) Analytics(address string, s *models.AnalyticsSnapshot) *models.Message {
	text := fmt.Sprintf("📈 *Wallet Analytics*\n`%s`\n\n"+
		"💼 *Current Balance:* `%s ETH`\n\n"+
		"📊 *Transaction Stats:*\n"+
		"├ Total: `%d`\n"+
		"├ Incoming: `%d`\n"+
		"└ Outgoing: `%d`\n\n"+
		"💰 *Value Flow:*\n"+
		"├ Received: `%s ETH`\n"+
		"├ Sent: `%s ETH`\n"+
		"└ Net: `%s ETH`\n\n"+
		"⏳ *Activity:*\n"+
		"├ Last 30 days: `%d tx`\n"+
		"└ Avg: `%.1f tx/day`\n\n"+
		"_Data based on visible Ethereum transactions_",
		address,
		ether(s.Balance),
		s.TotalTx, s.IncomingTx, s.OutgoingTx,
		ether(s.TotalReceived),
		ether(s.TotalSent),
		ether(s.NetFlow),
		s.RecentTx, s.TxFrequency,
	)
	return markdown(text, []models.Action{
		action("🔄 Refresh Stats", ActionAnalytics, address),
		action("📜 View Transactions", ActionTransactions, address),
	})
}

func (m *Messages) NoAnalytics() *models.Message {
	return plain("No transaction history found for analytics.")
}

func (m *Messages) AnalyticsFailed() *models.Message {
	return plain("❌ Error generating analytics. Try again later.")
}

func (m *Messages) WalletList(wallets []*models.TrackedWallet) *models.Message {
	var b strings.Builder
	b.WriteString("👀 *Tracked wallets:*\n\n")
	rows := make([][]models.Action, 0, len(wallets))
	for i, w := range wallets {
		fmt.Fprintf(&b, "%d. `%s`\n", i+1, w.WalletAddress)
		rows = append(rows, []models.Action{
			action("❌ Untrack "+shortAddress(w.WalletAddress), ActionUntrack, w.WalletAddress),
		})
	}
	return markdown(strings.TrimRight(b.String(), "\n"), rows...)
}

func (m *Messages) NoWallets() *models.Message {
	return plain("You are not tracking any wallets yet. Send an address to start.")
}

func (m *Messages) ListFailed() *models.Message {
	return plain("❌ Could not load tracked wallets. Try again later.")
}

func (m *Messages) UnknownAction() *models.Message {
	return plain("⚠️ This button is no longer supported.")
}

// Notification announces a new transaction for a tracked wallet.
func (m *Messages) Notification(address string, tx *models.Transaction) *models.Message {
	text := "🚨 *New Transaction Detected!* 🔥\n\n" +
		fmt.Sprintf("🔹 *Wallet:* `%s`\n\n", address) +
		fmt.Sprintf("🔹 *Transaction Hash:* %s\n\n", m.txLink(tx.Hash, tx.Hash)) +
		fmt.Sprintf("⬇️ *From:* `%s`\n", tx.From) +
		fmt.Sprintf("⬆️ *To:* %s\n\n", recipient(tx)) +
		fmt.Sprintf("💎 *Value:* `%s ETH`\n\n", ether(tx.Value)) +
		fmt.Sprintf("⛽ *Gas Used:* `%d` @ `%s Gwei`\n\n", tx.GasUsed, units.FormatGwei(tx.GasPrice, gasDecimals)) +
		fmt.Sprintf("🕒 *Timestamp:* `%s`", formatTime(tx.Timestamp))
	return markdown(text, []models.Action{
		action("📜 View Transactions", ActionTransactions, address),
		action("📈 Analytics", ActionAnalytics, address),
		action("❌ Untrack", ActionUntrack, address),
	})
}

// recipient renders the To field; contract creations have none.
func recipient(tx *models.Transaction) string {
	if tx.To == "" {
		return "_contract creation_"
	}
	return "`" + tx.To + "`"
}

func ether(wei *big.Int) string {
	return units.FormatEther(wei, displayDecimals)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func shortHash(hash string) string {
	if len(hash) <= shortHashLen {
		return hash
	}
	return hash[:shortHashLen] + "..."
}

func shortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "…" + address[len(address)-4:]
}
