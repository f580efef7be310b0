package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/debtledger/internal/ledger"
	"github.com/mmynk/debtledger/internal/storage"
)

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRPC("/debtledger.v1.GroupService/GetBalances", "ok", 20*time.Millisecond)
	m.ObserveRPC("/debtledger.v1.GroupService/GetBalances", "ok", 10*time.Millisecond)
	m.ObserveRPC("/debtledger.v1.GroupService/GetBalances", "not_found", time.Millisecond)

	if got := testutil.ToFloat64(m.rpcRequests.WithLabelValues("/debtledger.v1.GroupService/GetBalances", "ok")); got != 2 {
		t.Errorf("ok requests = %v, want 2", got)
	}

	m.ObserveRejected([]*ledger.TransactionError{
		{TransactionID: "a", Err: ledger.ErrInvalidAmount},
		{TransactionID: "b", Err: ledger.ErrInvalidAmount},
		{TransactionID: "c", Err: errors.New("unsupported")},
	})
	if got := testutil.ToFloat64(m.rejectedTransactions.WithLabelValues("invalid_amount")); got != 2 {
		t.Errorf("invalid_amount = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.rejectedTransactions.WithLabelValues("other")); got != 1 {
		t.Errorf("other = %v, want 1", got)
	}

	m.ObserveSettlement(2)
	m.ObserveBalances(3)
	if n := testutil.CollectAndCount(m.settlementTransfers); n != 1 {
		t.Errorf("settlement series = %d, want 1", n)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveRPC("p", "ok", time.Second)
	m.ObserveRejected([]*ledger.TransactionError{{Err: ledger.ErrSelfDebt}})
	m.ObserveSettlement(1)
	m.ObserveBalances(1)
}

type fakeStore struct {
	storage.Store
	stats storage.Stats
	err   error
}

func (f fakeStore) Stats(context.Context) (storage.Stats, error) {
	return f.stats, f.err
}

func TestRegisterStoreGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterStoreGauges(reg, fakeStore{stats: storage.Stats{Groups: 2, Expenses: 7, Payments: 1}})

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	got := make(map[string]float64)
	for _, f := range families {
		got[f.GetName()] = f.GetMetric()[0].GetGauge().GetValue()
	}
	want := map[string]float64{
		"debtledger_groups":   2,
		"debtledger_expenses": 7,
		"debtledger_payments": 1,
	}
	for name, v := range want {
		if got[name] != v {
			t.Errorf("%s = %v, want %v", name, got[name], v)
		}
	}
}

func TestRegisterStoreGaugesError(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterStoreGauges(reg, fakeStore{err: errors.New("database is locked")})

	if n, err := testutil.GatherAndCount(reg, "debtledger_groups"); err != nil || n != 1 {
		t.Fatalf("GatherAndCount = %d, %v", n, err)
	}
}
