// Package metrics defines the Prometheus collectors for the deposit service
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DepositSubmissions counts deposit submissions to the gateway by result
	DepositSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deposit_submissions_total",
		Help: "Deposit submissions sent to the payment gateway, by result",
	}, []string{"result"})

	// DepositResolutions counts how external payment steps were resolved
	DepositResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deposit_resolutions_total",
		Help: "External payment step resolutions, by kind (success/failed/returned)",
	}, []string{"kind"})

	// ActiveWizardSessions tracks currently open wizard sessions
	ActiveWizardSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "deposit_wizard_active_sessions",
		Help: "Currently open deposit wizard sessions",
	})

	// GatewayRequestDuration observes upstream gateway call latency
	GatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_gateway_request_duration_seconds",
		Help:    "Latency of payment gateway requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})

	// ReconciliationSweeps counts reconciliation sweeps by result
	ReconciliationSweeps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deposit_reconciliation_sweeps_total",
		Help: "Reconciliation sweeps over unsettled deposits, by result",
	}, []string{"result"})

	// DatabaseConnectionsGauge mirrors sql.DBStats into Prometheus
	DatabaseConnectionsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "database_connections",
		Help: "Database connection pool state",
	}, []string{"state"})
)
