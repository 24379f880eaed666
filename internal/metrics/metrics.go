// Package metrics exposes the engine's prometheus instrumentation,
// mirroring the package-level var-block registered in p2pool-go's
// internal/metrics package.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ChainHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "utxochain",
		Name:      "chain_height",
		Help:      "Number of blocks in the loaded chain, genesis inclusive.",
	})

	UTXOSetSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "utxochain",
		Name:      "utxo_set_size",
		Help:      "Number of unspent outputs in the current UTXO set.",
	})

	MempoolSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "utxochain",
		Name:      "mempool_size",
		Help:      "Number of transactions waiting in the mempool.",
	})

	BlocksMined = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "utxochain",
		Name:      "blocks_mined_total",
		Help:      "Total blocks successfully mined by this node.",
	})

	MiningDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "utxochain",
		Name:      "mining_duration_seconds",
		Help:      "Wall-clock time spent per successful mining run.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 16),
	})

	NonceSearchRate = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "utxochain",
		Name:      "nonce_search_rate_hashes_per_second",
		Help:      "Most recently observed aggregate nonce search rate across workers.",
	})

	ValidationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "utxochain",
		Name:      "validation_failures_total",
		Help:      "Validation failures by error kind.",
	}, []string{"kind"})

	TransactionsSigned = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "utxochain",
		Name:      "transactions_signed_total",
		Help:      "Total transactions signed by wallets on this node.",
	})
)

func init() {
	prometheus.MustRegister(
		ChainHeight,
		UTXOSetSize,
		MempoolSize,
		BlocksMined,
		MiningDuration,
		NonceSearchRate,
		ValidationFailures,
		TransactionsSigned,
	)
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
