package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MonitorTicks counts completed monitor passes
	MonitorTicks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shadowbot_monitor_ticks_total",
			Help: "Total number of monitor ticks by result",
		},
		[]string{"result"},
	)

	// MonitorTickDuration tracks how long one pass over all tracked wallets takes
	MonitorTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shadowbot_monitor_tick_duration_seconds",
			Help:    "Duration of a monitor tick in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// MonitorTicksSkipped counts ticks dropped because the previous one was still running
	MonitorTicksSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shadowbot_monitor_ticks_skipped_total",
			Help: "Total number of monitor ticks skipped due to overlap",
		},
	)

	WalletsChecked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shadowbot_wallets_checked_total",
			Help: "Total number of distinct wallet addresses queried by the monitor",
		},
	)

	NotificationsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shadowbot_notifications_sent_total",
			Help: "Total number of transaction notifications delivered",
		},
	)

	// ProviderErrors tracks data provider failures per operation
	ProviderErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shadowbot_provider_errors_total",
			Help: "Total number of wallet data provider errors",
		},
		[]string{"source"},
	)

	DeliveryErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shadowbot_delivery_errors_total",
			Help: "Total number of failed message deliveries",
		},
	)

	// Commands tracks user operations by outcome
	Commands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shadowbot_commands_total",
			Help: "Total number of user commands by command and outcome",
		},
		[]string{"command", "outcome"},
	)

	TrackedWallets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shadowbot_tracked_wallets",
			Help: "Number of tracked (chat, wallet) pairs",
		},
	)
)
