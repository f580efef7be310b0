package ledger

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contributionsOf(in map[MemberID]string) map[MemberID]decimal.Decimal {
	out := make(map[MemberID]decimal.Decimal, len(in))
	for m, v := range in {
		out[m] = amt(v)
	}
	return out
}

// assertSettles applies the plan to the contributions and checks that every
// member ends at total/n and that no more than n-1 transfers were used.
func assertSettles(t *testing.T, total decimal.Decimal, contributions map[MemberID]decimal.Decimal, plan []Debt) {
	t.Helper()

	n := len(contributions)
	assert.LessOrEqual(t, len(plan), n-1, "plan %v uses too many transfers", plan)

	adjusted := make(map[MemberID]decimal.Decimal, n)
	for m, c := range contributions {
		adjusted[m] = c
	}
	for _, d := range plan {
		assert.True(t, d.Amount.IsPositive(), "transfer %v is not positive", d)
		assert.False(t, d.IsSelf())
		adjusted[d.Debtor] = adjusted[d.Debtor].Add(d.Amount)
		adjusted[d.Creditor] = adjusted[d.Creditor].Sub(d.Amount)
	}

	share := total.Div(decimal.NewFromInt(int64(n)))
	for m, a := range adjusted {
		assert.True(t, IsZero(a.Sub(share)), "%s ends at %s, fair share is %s", m, a, share)
	}
}

func TestComputeSettlement(t *testing.T) {
	tests := []struct {
		name          string
		total         string
		contributions map[MemberID]string
		want          map[string]string
	}{
		{
			name:          "one payer covers most",
			total:         "120",
			contributions: map[MemberID]string{"m1": "100", "m2": "15", "m3": "5"},
			want:          map[string]string{"m2->m1": "25", "m3->m1": "35"},
		},
		{
			name:          "one big payer, two debtors",
			total:         "300",
			contributions: map[MemberID]string{"m1": "20", "m2": "250", "m3": "30"},
			want:          map[string]string{"m1->m2": "80", "m3->m2": "70"},
		},
		{
			name:          "single transfer",
			total:         "3000",
			contributions: map[MemberID]string{"m1": "800", "m2": "1200", "m3": "1000"},
			want:          map[string]string{"m1->m2": "200"},
		},
		{
			name:          "two debtors pay the same creditor",
			total:         "6000",
			contributions: map[MemberID]string{"m1": "4000", "m2": "1000", "m3": "1000"},
			want:          map[string]string{"m2->m1": "1000", "m3->m1": "1000"},
		},
		{
			name:          "small amounts",
			total:         "30",
			contributions: map[MemberID]string{"m1": "5", "m2": "15", "m3": "10"},
			want:          map[string]string{"m1->m2": "5"},
		},
		{
			name:          "already even",
			total:         "90",
			contributions: map[MemberID]string{"a": "30", "b": "30", "c": "30"},
			want:          map[string]string{},
		},
		{
			name:          "members who paid nothing",
			total:         "50",
			contributions: map[MemberID]string{"a": "50", "b": "0"},
			want:          map[string]string{"b->a": "25"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := amt(tt.total)
			contributions := contributionsOf(tt.contributions)

			plan, err := ComputeSettlement(total, contributions)
			require.NoError(t, err)
			assert.Equal(t, tt.want, edges(plan))
			assertSettles(t, total, contributions, plan)
		})
	}
}

func TestComputeSettlement_Errors(t *testing.T) {
	tests := []struct {
		name          string
		total         string
		contributions map[MemberID]string
		wantErr       error
	}{
		{
			name:          "sum below total",
			total:         "120",
			contributions: map[MemberID]string{"m1": "100", "m2": "15"},
			wantErr:       ErrContributionMismatch,
		},
		{
			name:          "sum above total",
			total:         "10",
			contributions: map[MemberID]string{"m1": "10", "m2": "0.01"},
			wantErr:       ErrContributionMismatch,
		},
		{
			name:          "no contributors",
			total:         "10",
			contributions: map[MemberID]string{},
			wantErr:       ErrEmptyParticipantSet,
		},
		{
			name:          "negative contribution",
			total:         "10",
			contributions: map[MemberID]string{"m1": "15", "m2": "-5"},
			wantErr:       ErrInvalidAmount,
		},
		{
			name:          "zero total",
			total:         "0",
			contributions: map[MemberID]string{"m1": "0", "m2": "0"},
			wantErr:       ErrInvalidAmount,
		},
		{
			name:          "empty member id",
			total:         "10",
			contributions: map[MemberID]string{"": "10", "m2": "0"},
			wantErr:       ErrInvalidMember,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := ComputeSettlement(amt(tt.total), contributionsOf(tt.contributions))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, plan)
		})
	}
}

func TestComputeSettlement_SingleMember(t *testing.T) {
	plan, err := ComputeSettlement(amt("42"), contributionsOf(map[MemberID]string{"solo": "42"}))
	require.NoError(t, err)
	assert.Empty(t, plan)
}

func TestComputeSettlement_ToleratesRoundingInSum(t *testing.T) {
	total := amt("100")
	contributions := map[MemberID]decimal.Decimal{
		"a": amt("33.3333333333"),
		"b": amt("33.3333333333"),
		"c": amt("33.3333333334"),
	}
	plan, err := ComputeSettlement(total, contributions)
	require.NoError(t, err)
	assertSettles(t, total, contributions, plan)
}

func TestComputeSettlement_RepeatingShare(t *testing.T) {
	total := amt("100")
	contributions := contributionsOf(map[MemberID]string{"a": "100", "b": "0", "c": "0"})

	plan, err := ComputeSettlement(total, contributions)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assertSettles(t, total, contributions, plan)
}

func TestComputeSettlement_RandomGroups(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		n := 2 + rng.Intn(12)
		contributions := make(map[MemberID]decimal.Decimal, n)
		total := decimal.Zero
		for i := 0; i < n; i++ {
			c := decimal.New(int64(rng.Intn(100000)), -2)
			contributions[MemberID(rune('a'+i))] = c
			total = total.Add(c)
		}
		if !total.IsPositive() {
			continue
		}

		plan, err := ComputeSettlement(total, contributions)
		require.NoError(t, err)
		assertSettles(t, total, contributions, plan)
	}
}

func TestComputeSettlement_Deterministic(t *testing.T) {
	total := amt("40")
	contributions := contributionsOf(map[MemberID]string{"a": "20", "b": "20", "c": "0", "d": "0"})

	first, err := ComputeSettlement(total, contributions)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := ComputeSettlement(total, contributions)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, map[string]string{"c->a": "10", "d->b": "10"}, edges(first))
}

func TestMergeSettlement(t *testing.T) {
	first, err := ComputeSettlement(amt("120"), contributionsOf(map[MemberID]string{"m1": "100", "m2": "15", "m3": "5"}))
	require.NoError(t, err)
	prior := MergeSettlement(nil, first)
	assert.Equal(t, map[string]string{"m2->m1": "25", "m3->m1": "35"}, edges(prior.Debts()))

	second, err := ComputeSettlement(amt("90"), contributionsOf(map[MemberID]string{"m1": "0", "m2": "90", "m3": "0"}))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"m1->m2": "30", "m3->m2": "30"}, edges(second))

	merged := MergeSettlement(prior, second)
	assert.Equal(t, map[string]string{
		"m1->m2": "5",
		"m3->m1": "35",
		"m3->m2": "30",
	}, edges(merged.Debts()))

	// The prior ledger is untouched.
	assert.Equal(t, 2, prior.Len())
}

func TestMergeSettlement_ExactCancellation(t *testing.T) {
	prior := MergeSettlement(nil, []Debt{{Debtor: "a", Creditor: "b", Amount: amt("12")}})
	merged := MergeSettlement(prior, []Debt{{Debtor: "b", Creditor: "a", Amount: amt("12")}})
	assert.Equal(t, 0, merged.Len())
}

func TestSettlementFor(t *testing.T) {
	plan, err := SettlementFor(unequalSplit("u1", "120", map[MemberID]string{"m1": "100", "m2": "15", "m3": "5"}))
	require.NoError(t, err)
	assert.Len(t, plan, 2)

	_, err = SettlementFor(unequalSplit("u2", "100", map[MemberID]string{"m1": "1"}))
	var txErr *TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, "u2", txErr.TransactionID)
	assert.Equal(t, ContributionMismatch, txErr.Kind())

	_, err = SettlementFor(twoParty("t", "a", "b", "1"))
	assert.Error(t, err)
}
