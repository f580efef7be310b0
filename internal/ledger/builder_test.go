package ledger

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func twoParty(id string, debtor, creditor MemberID, amount string) Transaction {
	return Transaction{
		ID:       id,
		Kind:     KindTwoParty,
		Debtor:   debtor,
		Creditor: creditor,
		Amount:   amt(amount),
	}
}

func equalSplit(id string, payer MemberID, amount string, participants ...MemberID) Transaction {
	return Transaction{
		ID:           id,
		Kind:         KindGroup,
		SplitMode:    SplitEqual,
		Payer:        payer,
		Amount:       amt(amount),
		Participants: participants,
	}
}

func unequalSplit(id string, total string, contributions map[MemberID]string) Transaction {
	c := make(map[MemberID]decimal.Decimal, len(contributions))
	for m, v := range contributions {
		c[m] = amt(v)
	}
	return Transaction{
		ID:            id,
		Kind:          KindGroup,
		SplitMode:     SplitUnequal,
		Amount:        amt(total),
		Contributions: c,
	}
}

// edges renders debts as "debtor->creditor" => amount for order-free comparison.
func edges(debts []Debt) map[string]string {
	out := make(map[string]string, len(debts))
	for _, d := range debts {
		out[string(d.Debtor)+"->"+string(d.Creditor)] = d.Amount.String()
	}
	return out
}

func TestBuildDebts(t *testing.T) {
	tests := []struct {
		name    string
		tx      Transaction
		want    map[string]string
		wantErr error
	}{
		{
			name: "two-party emits one debt",
			tx:   twoParty("t1", "A", "B", "10"),
			want: map[string]string{"A->B": "10"},
		},
		{
			name: "two-party self debt is dropped silently",
			tx:   twoParty("t2", "A", "A", "10"),
			want: map[string]string{},
		},
		{
			name: "equal split with payer included",
			tx:   equalSplit("t3", "Y", "30", "X", "Y", "Z"),
			want: map[string]string{"X->Y": "10", "Z->Y": "10"},
		},
		{
			name: "equal split with payer excluded",
			tx:   equalSplit("t4", "P", "20", "A", "B"),
			want: map[string]string{"A->P": "10", "B->P": "10"},
		},
		{
			name: "duplicate participants count once",
			tx:   equalSplit("t5", "Y", "30", "X", "Y", "Z", "X"),
			want: map[string]string{"X->Y": "10", "Z->Y": "10"},
		},
		{
			name: "payer alone emits nothing",
			tx:   equalSplit("t6", "Y", "30", "Y"),
			want: map[string]string{},
		},
		{
			name: "unequal split forwards contributions",
			tx:   unequalSplit("t7", "120", map[MemberID]string{"m1": "100", "m2": "15", "m3": "5"}),
			want: map[string]string{},
		},
		{
			name:    "negative amount",
			tx:      twoParty("t8", "A", "B", "-5"),
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "zero amount",
			tx:      equalSplit("t9", "Y", "0", "X", "Y"),
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "no participants",
			tx:      equalSplit("t10", "Y", "30"),
			wantErr: ErrEmptyParticipantSet,
		},
		{
			name:    "empty debtor",
			tx:      twoParty("t11", "", "B", "10"),
			wantErr: ErrInvalidMember,
		},
		{
			name:    "missing payer",
			tx:      equalSplit("t12", "", "30", "X", "Y"),
			wantErr: ErrInvalidMember,
		},
		{
			name:    "unequal contributions do not add up",
			tx:      unequalSplit("t13", "120", map[MemberID]string{"m1": "100", "m2": "15"}),
			wantErr: ErrContributionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			debts, err := BuildDebts(tt.tx)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)

				var txErr *TransactionError
				require.True(t, errors.As(err, &txErr))
				assert.Equal(t, tt.tx.ID, txErr.TransactionID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, edges(debts))
		})
	}
}

func TestBuildDebts_UnevenShareKeepsPrecision(t *testing.T) {
	debts, err := BuildDebts(equalSplit("t1", "A", "10", "A", "B", "C"))
	require.NoError(t, err)
	require.Len(t, debts, 2)

	// 2 x 10/3 owed, plus the payer's own third, is 10 within tolerance.
	sum := debts[0].Amount.Add(debts[1].Amount).Add(debts[0].Amount)
	assert.True(t, IsZero(sum.Sub(amt("10"))), "shares sum to %s", sum)
}

func TestValidate_Roster(t *testing.T) {
	roster := NewRoster("X", "Y")

	err := Validate(equalSplit("t1", "Y", "30", "X", "Y", "Z"), WithRoster(roster))
	require.NotNil(t, err)
	assert.ErrorIs(t, err, ErrUnknownMember)
	assert.Equal(t, UnknownMember, err.Kind())
	assert.Contains(t, err.Error(), "Z")

	assert.Nil(t, Validate(equalSplit("t2", "Y", "30", "X", "Y"), WithRoster(roster)))
	assert.Nil(t, Validate(equalSplit("t3", "Y", "30", "X", "Y", "Z")), "no roster means no membership check")
}

func TestValidate_Currency(t *testing.T) {
	tx := twoParty("t1", "A", "B", "10")
	tx.Currency = "EUR"

	err := Validate(tx, WithCurrency("USD"))
	require.NotNil(t, err)
	assert.Equal(t, CurrencyMismatch, err.Kind())

	assert.Nil(t, Validate(tx, WithCurrency("EUR")))

	tx.Currency = ""
	assert.Nil(t, Validate(tx, WithCurrency("USD")), "untagged records inherit the computation currency")
}

func TestAmountFromFloat(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := AmountFromFloat(f)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.Equal(t, InvalidAmount, KindOf(err))
	}

	d, err := AmountFromFloat(12.5)
	require.NoError(t, err)
	assert.True(t, d.Equal(amt("12.5")))
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount("19.99")
	require.NoError(t, err)
	assert.Equal(t, "19.99", d.String())

	_, err = ParseAmount("twelve")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestTransactionMembers(t *testing.T) {
	assert.Equal(t, []MemberID{"A", "B"}, twoParty("t", "A", "B", "1").Members())
	assert.Equal(t, []MemberID{"Y", "X", "Z"}, equalSplit("t", "Y", "3", "X", "Y", "Z").Members())
	assert.Equal(t, []MemberID{"m1", "m2"},
		unequalSplit("t", "2", map[MemberID]string{"m2": "1", "m1": "1"}).Members())
}
