package http_api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shadowbot/shadowbot/internal/models"
	"github.com/shadowbot/shadowbot/pkg/units"
	"github.com/shadowbot/shadowbot/pkg/validation"
)

const displayDecimals = 4

// BalanceResponse is the body of GET /api/v1/wallet/:address
type BalanceResponse struct {
	Address    string `json:"address"`
	BalanceWei string `json:"balance_wei"`
	Balance    string `json:"balance"` // ETH, 4 decimals
}

// AnalyticsResponse is the body of GET /api/v1/wallet/:address/analytics.
// Monetary values are ETH with 4 decimals.
type AnalyticsResponse struct {
	Address       string  `json:"address"`
	Balance       string  `json:"balance"`
	TotalTx       int     `json:"total_tx"`
	IncomingTx    int     `json:"incoming_tx"`
	OutgoingTx    int     `json:"outgoing_tx"`
	TotalReceived string  `json:"total_received"`
	TotalSent     string  `json:"total_sent"`
	NetFlow       string  `json:"net_flow"`
	RecentTx      int     `json:"recent_tx"`
	TxFrequency   float64 `json:"tx_frequency"`
}

// walletBalance is a handler for the /wallet/:address endpoint.
func (s *HTTPServer) walletBalance(c *gin.Context) {
	address := c.Param("address")

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	balance, err := s.lookup.LookupBalance(ctx, address)
	if err != nil {
		s.lookupError(c, address, err)
		return
	}

	c.JSON(http.StatusOK, BalanceResponse{
		Address:    validation.NormalizeAddress(address),
		BalanceWei: balance.String(),
		Balance:    units.FormatEther(balance, displayDecimals),
	})
}

// walletAnalytics is a handler for the /wallet/:address/analytics endpoint.
func (s *HTTPServer) walletAnalytics(c *gin.Context) {
	address := c.Param("address")

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	snapshot, err := s.lookup.LookupAnalytics(ctx, address)
	if err != nil {
		s.lookupError(c, address, err)
		return
	}

	c.JSON(http.StatusOK, AnalyticsResponse{
		Address:       validation.NormalizeAddress(address),
		Balance:       units.FormatEther(snapshot.Balance, displayDecimals),
		TotalTx:       snapshot.TotalTx,
		IncomingTx:    snapshot.IncomingTx,
		OutgoingTx:    snapshot.OutgoingTx,
		TotalReceived: units.FormatEther(snapshot.TotalReceived, displayDecimals),
		TotalSent:     units.FormatEther(snapshot.TotalSent, displayDecimals),
		NetFlow:       units.FormatEther(snapshot.NetFlow, displayDecimals),
		RecentTx:      snapshot.RecentTx,
		TxFrequency:   snapshot.TxFrequency,
	})
}

func (s *HTTPServer) lookupError(c *gin.Context, address string, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidAddress):
		s.logger.Debug("Invalid address", "error", err, "address", address)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid Ethereum address",
		})
	case errors.Is(err, models.ErrNoData):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "No transactions found for this address",
		})
	default:
		s.logger.Error("Wallet lookup failed", "error", err, "address", address)
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   "Wallet data provider unavailable",
		})
	}
}

// healthCheck is a handler for the /health endpoint.
func (s *HTTPServer) healthCheck(c *gin.Context) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), ShutdownTimeout)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			s.logger.Warn("Health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
