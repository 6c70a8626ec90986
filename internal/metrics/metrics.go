package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "client",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "client",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 30},
	}, []string{"method", "path"})

	PushEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "client",
		Name:      "push_events_total",
		Help:      "Push notifications received from the engine, by channel.",
	}, []string{"channel"})

	PushEventsCoalesced = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "client",
		Name:      "push_events_coalesced_total",
		Help:      "Push notifications folded into an already queued refresh.",
	}, []string{"channel"})

	RefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "client",
		Name:      "refresh_total",
		Help:      "Snapshot refreshes by target (sessions, wallet) and outcome.",
	}, []string{"target", "outcome"})

	WorkflowOpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "client",
		Name:      "workflow_ops_total",
		Help:      "Workflow operations by workflow, operation and outcome.",
	}, []string{"workflow", "op", "outcome"})

	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "client",
		Name:      "active_sessions",
		Help:      "Active sessions in the last applied snapshot.",
	})

	TotalPeers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "client",
		Name:      "total_peers",
		Help:      "Connected peers across all sessions in the last snapshot.",
	})

	WalletBalanceSats = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "client",
		Name:      "wallet_balance_sats",
		Help:      "Last-known wallet balance in satoshis.",
	})

	LedgerWriteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "client",
		Name:      "ledger_write_failures_total",
		Help:      "Failed fund ledger writes.",
	})

	EventStreamReconnects = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "client",
		Name:      "event_stream_reconnects_total",
		Help:      "Reconnect attempts of the engine event stream.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		PushEventsTotal,
		PushEventsCoalesced,
		RefreshTotal,
		WorkflowOpsTotal,
		ActiveSessions,
		TotalPeers,
		WalletBalanceSats,
		LedgerWriteFailures,
		EventStreamReconnects,
	)
}
