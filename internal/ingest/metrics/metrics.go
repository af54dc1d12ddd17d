package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LedgersFetched tracks successful ledger fetches
	LedgersFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "importer_ledgers_fetched_total",
			Help: "Total number of ledgers fetched from the node",
		},
	)

	// LedgersStored tracks ledgers committed to the database
	LedgersStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "importer_ledgers_stored_total",
			Help: "Total number of ledgers stored",
		},
	)

	// LedgersSkipped tracks ledgers the node reported as not found
	LedgersSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "importer_ledgers_skipped_total",
			Help: "Total number of ledgers skipped (not found at the source)",
		},
	)

	// LedgersFailed tracks ledgers abandoned after exhausting retries
	LedgersFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "importer_ledgers_failed_total",
			Help: "Total number of ledgers that failed terminally",
		},
	)

	// TransactionsStored tracks transaction rows committed
	TransactionsStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "importer_transactions_stored_total",
			Help: "Total number of transactions stored",
		},
	)

	// AccountsCreated tracks newly discovered account addresses
	AccountsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "importer_accounts_created_total",
			Help: "Total number of account rows created",
		},
	)

	// FetchLatency tracks ledger fetch latency
	FetchLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "importer_fetch_latency_seconds",
			Help:    "Ledger fetch latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// FetchRetries tracks fetch attempts beyond the first, by error kind
	FetchRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "importer_fetch_retries_total",
			Help: "Total number of fetch retries",
		},
		[]string{"kind"},
	)

	// DBConnectionPoolUsage tracks connection pool usage percentage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "importer_db_pool_usage_percent",
			Help: "Database connection pool usage percentage",
		},
	)
)
