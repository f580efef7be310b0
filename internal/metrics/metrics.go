// Package metrics exposes Prometheus collectors for the RPC layer and the
// ledger engine.
package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/debtledger/internal/ledger"
	"github.com/mmynk/debtledger/internal/storage"
)

const metricPrefix = "debtledger_"

// Metrics holds every collector. A nil *Metrics is valid and records nothing,
// so services and tests can run without a registry.
type Metrics struct {
	rpcRequests          *prometheus.CounterVec
	rpcDuration          *prometheus.HistogramVec
	rejectedTransactions *prometheus.CounterVec
	settlementTransfers  prometheus.Histogram
	balanceEdges         prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "rpc_requests_total",
			Help: "RPC calls by procedure and result code",
		}, []string{"procedure", "code"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metricPrefix + "rpc_duration_seconds",
			Help:    "RPC latency by procedure",
			Buckets: prometheus.DefBuckets,
		}, []string{"procedure"}),
		rejectedTransactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "rejected_transactions_total",
			Help: "Transactions rejected by the ledger builder, by error kind",
		}, []string{"kind"}),
		settlementTransfers: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricPrefix + "settlement_transfers",
			Help:    "Number of transfers in computed settlement plans",
			Buckets: prometheus.LinearBuckets(0, 1, 12),
		}),
		balanceEdges: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricPrefix + "net_balance_edges",
			Help:    "Number of debts in computed net balance maps",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
	reg.MustRegister(m.rpcRequests, m.rpcDuration, m.rejectedTransactions, m.settlementTransfers, m.balanceEdges)
	return m
}

// ObserveRPC records one finished RPC.
func (m *Metrics) ObserveRPC(procedure, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(procedure, code).Inc()
	m.rpcDuration.WithLabelValues(procedure).Observe(elapsed.Seconds())
}

// ObserveRejected counts rejected transactions by kind.
func (m *Metrics) ObserveRejected(rejected []*ledger.TransactionError) {
	if m == nil {
		return
	}
	for _, r := range rejected {
		kind := string(r.Kind())
		if kind == "" {
			kind = "other"
		}
		m.rejectedTransactions.WithLabelValues(kind).Inc()
	}
}

// ObserveSettlement records the size of a settlement plan.
func (m *Metrics) ObserveSettlement(transfers int) {
	if m == nil {
		return
	}
	m.settlementTransfers.Observe(float64(transfers))
}

// ObserveBalances records the size of a net balance map.
func (m *Metrics) ObserveBalances(edges int) {
	if m == nil {
		return
	}
	m.balanceEdges.Observe(float64(edges))
}

// RegisterStoreGauges exposes record counts from the store. Each scrape runs
// one Stats query.
func RegisterStoreGauges(reg prometheus.Registerer, store storage.Store) {
	gauge := func(name, help string, pick func(storage.Stats) int64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: metricPrefix + name,
			Help: help,
		}, func() float64 {
			return queryCount(store, pick)
		})
	}
	reg.MustRegister(
		gauge("groups", "Stored groups", func(s storage.Stats) int64 { return s.Groups }),
		gauge("expenses", "Stored expenses", func(s storage.Stats) int64 { return s.Expenses }),
		gauge("payments", "Stored payments", func(s storage.Stats) int64 { return s.Payments }),
	)
}

func queryCount(store storage.Store, pick func(storage.Stats) int64) float64 {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, err := store.Stats(ctx)
	if err != nil {
		slog.Warn("metrics query failed", "error", err)
		return 0
	}
	count := pick(stats)
	if count < 0 {
		return 0
	}
	return float64(count)
}
