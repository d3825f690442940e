package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RPC metrics
	RPCRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_rpc_requests_total",
			Help: "Total number of chain RPC calls",
		},
		[]string{"method", "status"},
	)

	RPCRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_rpc_retries_total",
			Help: "Total number of retried chain RPC attempts",
		},
		[]string{"method", "reason"},
	)

	RPCDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "arb_rpc_duration_seconds",
			Help:    "Chain RPC call duration in seconds, retries included",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method"},
	)

	BlockhashAge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arb_blockhash_age_seconds",
		Help: "Age of the cached blockhash at last read",
	})

	// Pool metrics
	PoolLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_pool_loads_total",
			Help: "Total number of pool loads",
		},
		[]string{"kind", "status"},
	)

	PoolLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arb_pool_load_duration_seconds",
		Help:    "Time to fetch and decode a pool pair",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	CandidatesDiscovered = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arb_candidates_discovered",
		Help: "Number of pool candidates returned by the last discovery call",
	})

	// Arbitrage metrics
	Attempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_attempts_total",
			Help: "Total number of arbitrage attempts",
		},
		[]string{"mode", "status"},
	)

	AttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "arb_attempt_duration_seconds",
			Help:    "Arbitrage attempt duration in seconds, confirmation included",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 240},
		},
		[]string{"mode"},
	)

	PriceSpreadBps = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arb_price_spread_bps",
		Help:    "Spread between sell and buy leg prices in basis points",
		Buckets: []float64{0, 5, 10, 25, 50, 100, 250, 500, 1000},
	})

	// Bundle metrics
	BundleSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_bundle_submissions_total",
			Help: "Total number of bundles sent to the block engine",
		},
		[]string{"status"},
	)

	BundleOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_bundle_outcomes_total",
			Help: "Terminal bundle states",
		},
		[]string{"state"},
	)

	BundlePolls = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arb_bundle_polls",
		Help:    "Status polls needed to reach a terminal state",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 90},
	})

	// Simulation metrics
	SimulationRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_simulation_requests_total",
		Help: "Total number of transaction simulations",
	})

	SimulationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_simulation_failures_total",
			Help: "Total number of failed transaction simulations",
		},
		[]string{"reason"},
	)

	ComputeUnits = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arb_compute_units",
		Help:    "Compute units consumed by simulated transactions",
		Buckets: []float64{1000, 5000, 10000, 50000, 100000, 200000, 400000, 1400000},
	})

	PriorityFee = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arb_priority_fee_micro_lamports",
		Help: "Last computed compute unit price",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "arb_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
