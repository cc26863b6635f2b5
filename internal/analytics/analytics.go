// Package analytics derives wallet statistics from a transaction list.
package analytics

import (
	"math"
	"math/big"
	"time"

	"github.com/shadowbot/shadowbot/internal/models"
)

const (
	// Window is the trailing period used for recent activity and frequency.
	Window = 30 * 24 * time.Hour
	// windowDays is Window expressed in days.
	windowDays = 30
)

// Compute builds an AnalyticsSnapshot. It has no side effects; now is the
// reference point for the trailing window. Monetary sums are exact (wei);
// rounding happens only when the snapshot is formatted.
func Compute(transactions []*models.Transaction, balance *big.Int, now time.Time) *models.AnalyticsSnapshot {
	snapshot := &models.AnalyticsSnapshot{
		Balance:       new(big.Int),
		TotalReceived: new(big.Int),
		TotalSent:     new(big.Int),
		NetFlow:       new(big.Int),
	}
	if balance != nil {
		snapshot.Balance.Set(balance)
	}

	cutoff := now.Add(-Window)
	for _, tx := range transactions {
		if tx == nil {
			continue
		}
		snapshot.TotalTx++

		value := tx.Value
		if value == nil {
			value = new(big.Int)
		}
		if tx.Incoming() {
			snapshot.IncomingTx++
			snapshot.TotalReceived.Add(snapshot.TotalReceived, value)
		} else {
			snapshot.TotalSent.Add(snapshot.TotalSent, value)
		}

		if tx.Timestamp.After(cutoff) {
			snapshot.RecentTx++
		}
	}
	snapshot.OutgoingTx = snapshot.TotalTx - snapshot.IncomingTx
	snapshot.NetFlow.Sub(snapshot.TotalReceived, snapshot.TotalSent)

	if snapshot.TotalTx > 0 {
		snapshot.TxFrequency = math.Round(float64(snapshot.TotalTx)/windowDays*10) / 10
	}

	return snapshot
}

// Engine binds Compute to a clock so callers do not pass "now" around.
type Engine struct {
	now func() time.Time
}

// NewEngine returns an Engine. A nil clock means time.Now.
func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

func (e *Engine) Compute(transactions []*models.Transaction, balance *big.Int) *models.AnalyticsSnapshot {
	return Compute(transactions, balance, e.now())
}
