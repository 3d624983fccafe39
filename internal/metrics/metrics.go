package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BlocksCreated counts blocks appended to the chain, genesis included.
	BlocksCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_blocks_created_total",
			Help: "Total number of blocks appended to the chain",
		},
	)

	// TransactionsCommitted counts transactions sealed into blocks.
	TransactionsCommitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_transactions_committed_total",
			Help: "Total number of transactions committed into blocks",
		},
	)

	// ChainHeight tracks the index of the newest block.
	ChainHeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_chain_height",
			Help: "Index of the newest block in memory",
		},
	)

	// PersistedHeight tracks the index of the newest durable block.
	PersistedHeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_persisted_height",
			Help: "Index of the newest block written to the store",
		},
	)

	// StoreWrites counts chain writes by outcome (success, failure).
	StoreWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_store_writes_total",
			Help: "Total number of chain writes by result",
		},
		[]string{"result"},
	)

	// StoreWriteAttempts counts individual save attempts, retries included.
	StoreWriteAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_store_write_attempts_total",
			Help: "Total number of store save attempts including retries",
		},
	)

	// StoreWriteLatency tracks how long a chain write takes, retries included.
	StoreWriteLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledger_store_write_latency_seconds",
			Help:    "Chain write latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// BetsPlaced counts bets by whether they paid out.
	BetsPlaced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tiger_bets_placed_total",
			Help: "Total number of bets placed",
		},
		[]string{"outcome"},
	)

	// AmountWagered sums bet amounts.
	AmountWagered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tiger_amount_wagered_total",
			Help: "Sum of all bet amounts",
		},
	)

	// AmountPaid sums winnings.
	AmountPaid = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tiger_amount_paid_total",
			Help: "Sum of all winnings paid",
		},
	)
)

// DBConnectionPoolUsage reports open connections as a percentage of the pool.
var DBConnectionPoolUsage = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "ledger_db_connection_pool_usage_percent",
		Help: "Open database connections as a percentage of the pool limit",
	},
)
