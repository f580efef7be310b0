package ledger

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeNetBalances_OpposingTwoPartyDebts(t *testing.T) {
	txs := []Transaction{
		twoParty("t1", "A", "B", "10"),
		twoParty("t2", "B", "A", "4"),
	}

	m, rejected := ComputeNetBalances(txs)
	require.Empty(t, rejected)
	assert.Equal(t, map[string]string{"A->B": "6"}, edges(m.Debts()))

	d, ok := m.Between("B", "A")
	require.True(t, ok)
	assert.Equal(t, MemberID("A"), d.Debtor)
	assert.Equal(t, MemberID("B"), d.Creditor)
}

func TestComputeNetBalances_DirectionFlips(t *testing.T) {
	m, rejected := ComputeNetBalances([]Transaction{
		twoParty("t1", "A", "B", "4"),
		twoParty("t2", "B", "A", "10"),
	})
	require.Empty(t, rejected)
	assert.Equal(t, map[string]string{"B->A": "6"}, edges(m.Debts()))
}

func TestComputeNetBalances_GroupEqualSplit(t *testing.T) {
	m, rejected := ComputeNetBalances([]Transaction{equalSplit("t1", "Y", "30", "X", "Y", "Z")})
	require.Empty(t, rejected)
	assert.Equal(t, map[string]string{"X->Y": "10", "Z->Y": "10"}, edges(m.Debts()))
}

func TestComputeNetBalances_InvalidTransactionDoesNotAbortBatch(t *testing.T) {
	txs := []Transaction{
		twoParty("good-1", "A", "B", "10"),
		twoParty("bad", "A", "B", "-5"),
		twoParty("good-2", "B", "A", "4"),
	}

	m, rejected := ComputeNetBalances(txs)
	require.Len(t, rejected, 1)
	assert.Equal(t, "bad", rejected[0].TransactionID)
	assert.Equal(t, InvalidAmount, rejected[0].Kind())
	assert.Equal(t, map[string]string{"A->B": "6"}, edges(m.Debts()))
}

func TestComputeNetBalances_ZeroPruning(t *testing.T) {
	t.Run("exact cancellation", func(t *testing.T) {
		m, _ := ComputeNetBalances([]Transaction{
			twoParty("t1", "A", "B", "5"),
			twoParty("t2", "B", "A", "5"),
		})
		assert.Equal(t, 0, m.Len())
		assert.Empty(t, m.Debts())
		_, ok := m.Between("A", "B")
		assert.False(t, ok)
	})

	t.Run("round robin thirds cancel", func(t *testing.T) {
		m, _ := ComputeNetBalances([]Transaction{
			equalSplit("t1", "X", "10", "X", "Y", "Z"),
			equalSplit("t2", "Y", "10", "X", "Y", "Z"),
			equalSplit("t3", "Z", "10", "X", "Y", "Z"),
		})
		assert.Empty(t, m.Debts())
	})

	t.Run("dust below tolerance is not emitted", func(t *testing.T) {
		m := NewNetBalanceMap("").With(
			Debt{Debtor: "A", Creditor: "B", Amount: amt("1")},
			Debt{Debtor: "B", Creditor: "A", Amount: amt("0.9999999999")},
		)
		assert.Empty(t, m.Debts())
	})
}

func TestComputeNetBalances_SelfDebtsNeverEmitted(t *testing.T) {
	m, rejected := ComputeNetBalances([]Transaction{
		twoParty("t1", "A", "A", "10"),
		equalSplit("t2", "A", "9", "A", "B", "C"),
		twoParty("t3", "B", "B", "3"),
	})
	require.Empty(t, rejected)
	for _, d := range m.Debts() {
		assert.NotEqual(t, d.Debtor, d.Creditor)
	}
	assert.Equal(t, map[string]string{"B->A": "3", "C->A": "3"}, edges(m.Debts()))

	m = m.With(Debt{Debtor: "C", Creditor: "C", Amount: amt("100")})
	assert.Equal(t, 2, m.Len())
}

func sampleFeed() []Transaction {
	return []Transaction{
		twoParty("q1", "A", "B", "10"),
		twoParty("q2", "B", "A", "4"),
		twoParty("q3", "C", "A", "7.25"),
		equalSplit("g1", "Y", "30", "X", "Y", "Z"),
		equalSplit("g2", "X", "45", "X", "Y", "Z", "A"),
		equalSplit("g3", "Z", "10", "Y"),
		equalSplit("g4", "A", "100", "A", "B", "C"),
		unequalSplit("u1", "120", map[MemberID]string{"A": "100", "B": "15", "C": "5"}),
		twoParty("bad", "A", "B", "-1"),
	}
}

func TestComputeNetBalances_Commutative(t *testing.T) {
	feed := sampleFeed()
	want, wantRejected := ComputeNetBalances(feed)
	require.Len(t, wantRejected, 1)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := append([]Transaction(nil), feed...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got, rejected := ComputeNetBalances(shuffled)
		require.Len(t, rejected, 1)
		assert.True(t, want.Equal(got), "shuffle %d: want %v, got %v", i, want.Debts(), got.Debts())
	}

	for i := range feed {
		for j := range feed {
			ab, _ := ComputeNetBalances([]Transaction{feed[i], feed[j]})
			ba, _ := ComputeNetBalances([]Transaction{feed[j], feed[i]})
			assert.True(t, ab.Equal(ba), "pair %s,%s", feed[i].ID, feed[j].ID)
		}
	}
}

func TestComputeNetBalances_Conservation(t *testing.T) {
	m, _ := ComputeNetBalances(sampleFeed())
	require.NotZero(t, m.Len())

	sum := decimal.Zero
	for _, p := range m.Positions() {
		sum = sum.Add(p)
	}
	assert.True(t, IsZero(sum), "positions sum to %s", sum)

	owed, owing := decimal.Zero, decimal.Zero
	for _, p := range m.Positions() {
		if p.IsPositive() {
			owed = owed.Add(p)
		} else {
			owing = owing.Sub(p)
		}
	}
	assert.True(t, IsZero(owed.Sub(owing)), "owed %s, owing %s", owed, owing)
}

func TestComputeNetBalances_AtMostOneEdgePerPair(t *testing.T) {
	m, _ := ComputeNetBalances(sampleFeed())
	seen := make(map[pairKey]bool)
	for _, d := range m.Debts() {
		assert.True(t, d.Amount.IsPositive())
		k, _ := orient(d.Debtor, d.Creditor)
		assert.False(t, seen[k], "duplicate edge for %v", k)
		seen[k] = true
	}
}

func TestComputeNetBalances_UnequalSplitMergesWithOpposingDebt(t *testing.T) {
	m, rejected := ComputeNetBalances([]Transaction{
		twoParty("q1", "m1", "m2", "30"),
		unequalSplit("u1", "120", map[MemberID]string{"m1": "100", "m2": "15", "m3": "5"}),
	})
	require.Empty(t, rejected)
	// Settlement gives m2->m1 25 and m3->m1 35; the first cancels against m1->m2 30.
	assert.Equal(t, map[string]string{"m1->m2": "5", "m3->m1": "35"}, edges(m.Debts()))
}

func TestNetBalanceMap_Immutable(t *testing.T) {
	base, _ := ComputeNetBalances([]Transaction{twoParty("t1", "A", "B", "10")})
	before := edges(base.Debts())

	_ = base.With(Debt{Debtor: "B", Creditor: "A", Amount: amt("10")})
	_, _ = base.Apply([]Transaction{twoParty("t2", "C", "A", "1")})
	_, _ = base.Revert([]Transaction{twoParty("t1", "A", "B", "10")})
	_ = base.Merge(base)

	assert.Equal(t, before, edges(base.Debts()))
}

func TestNetBalanceMap_ApplyAndRevert(t *testing.T) {
	feed := sampleFeed()
	snapshot, delta := feed[:4], feed[4:]

	full, _ := ComputeNetBalances(feed)
	partial, _ := ComputeNetBalances(snapshot)

	incremental, rejected := partial.Apply(delta)
	require.Len(t, rejected, 1)
	assert.True(t, full.Equal(incremental))

	reverted, _ := incremental.Revert(delta)
	assert.True(t, partial.Equal(reverted))
}

func TestNetBalanceMap_ApplyThenRevertIsEmpty(t *testing.T) {
	feed := []Transaction{
		twoParty("t1", "A", "B", "10"),
		equalSplit("t2", "C", "30", "A", "B", "C"),
		unequalSplit("t3", "120", map[MemberID]string{"A": "100", "B": "15", "C": "5"}),
	}

	applied, rejected := NewNetBalanceMap("USD").Apply(feed, WithRoster(NewRoster("A", "B", "C")))
	require.Empty(t, rejected)
	require.NotZero(t, applied.Len())
	assert.Equal(t, "USD", applied.Currency())

	reverted, rejected := applied.Revert(feed)
	require.Empty(t, rejected)
	assert.Equal(t, 0, reverted.Len())
	assert.Empty(t, reverted.Debts())
}

func TestNetBalanceMap_Merge(t *testing.T) {
	a, _ := ComputeNetBalances([]Transaction{twoParty("t1", "A", "B", "10")})
	b, _ := ComputeNetBalances([]Transaction{twoParty("t2", "B", "A", "3"), twoParty("t3", "C", "B", "1")})

	merged := a.Merge(b)
	assert.Equal(t, map[string]string{"A->B": "7", "C->B": "1"}, edges(merged.Debts()))
	assert.True(t, merged.Equal(b.Merge(a)))
	assert.True(t, a.Equal(a.Merge(nil)))
}

func TestNetBalanceMap_NilIsEmpty(t *testing.T) {
	var m *NetBalanceMap
	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.Debts())
	assert.Empty(t, m.Positions())
	assert.Equal(t, "", m.Currency())

	next := m.With(Debt{Debtor: "A", Creditor: "B", Amount: amt("2")})
	assert.Equal(t, 1, next.Len())
}

func TestComputeNetBalances_Currency(t *testing.T) {
	usd := twoParty("t1", "A", "B", "10")
	usd.Currency = "USD"
	eur := twoParty("t2", "B", "A", "4")
	eur.Currency = "EUR"

	m, rejected := ComputeNetBalances([]Transaction{usd, eur}, WithCurrency("USD"))
	require.Len(t, rejected, 1)
	assert.Equal(t, "t2", rejected[0].TransactionID)
	assert.Equal(t, CurrencyMismatch, rejected[0].Kind())
	assert.Equal(t, "USD", m.Currency())
	assert.Equal(t, map[string]string{"A->B": "10"}, edges(m.Debts()))

	_, rejected = m.Apply([]Transaction{eur})
	require.Len(t, rejected, 1, "Apply keeps the map's currency")

	groups := GroupByCurrency([]Transaction{usd, eur, usd})
	assert.Len(t, groups["USD"], 2)
	assert.Len(t, groups["EUR"], 1)
}

func TestComputeNetBalances_RosterRejectsUnknownMembers(t *testing.T) {
	m, rejected := ComputeNetBalances([]Transaction{
		equalSplit("t1", "Y", "30", "X", "Y", "Z"),
		twoParty("t2", "X", "Y", "5"),
	}, WithRoster(NewRoster("X", "Y")))

	require.Len(t, rejected, 1)
	assert.Equal(t, UnknownMember, rejected[0].Kind())
	assert.Equal(t, map[string]string{"X->Y": "5"}, edges(m.Debts()))
}
