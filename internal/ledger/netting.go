package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// pairKey is an unordered member pair stored in canonical order (lo < hi).
type pairKey struct {
	lo, hi MemberID
}

// orient returns the canonical key for a debt between a and b, and the sign
// to apply to an amount owed by a to b: +1 when a is the low member.
func orient(a, b MemberID) (pairKey, int) {
	if a < b {
		return pairKey{lo: a, hi: b}, 1
	}
	return pairKey{lo: b, hi: a}, -1
}

// NetBalanceMap holds at most one signed running total per unordered member
// pair. A positive total means the low member owes the high one.
//
// A NetBalanceMap is never modified after construction: With, Merge, Apply
// and Revert return a new map. The zero value and nil are both empty maps.
type NetBalanceMap struct {
	currency string
	totals   map[pairKey]decimal.Decimal
}

// NewNetBalanceMap returns an empty map tagged with currency.
func NewNetBalanceMap(currency string) *NetBalanceMap {
	return &NetBalanceMap{currency: currency, totals: map[pairKey]decimal.Decimal{}}
}

// ComputeNetBalances folds every transaction into an empty Net Balance Map.
//
// Malformed transactions are skipped and reported, one error each; they do
// not affect the rest of the batch. Unequal-split records are settled with
// ComputeSettlement and their transfers merged in like any other debt.
// The result does not depend on the order of txs.
func ComputeNetBalances(txs []Transaction, opts ...Option) (*NetBalanceMap, []*TransactionError) {
	o := newOptions(opts)
	return NewNetBalanceMap(o.currency).fold(txs, o, 1)
}

// Currency returns the tag the map was computed in.
func (m *NetBalanceMap) Currency() string {
	if m == nil {
		return ""
	}
	return m.currency
}

// With returns a new map with debts accumulated on top of m.
// Self debts are dropped.
func (m *NetBalanceMap) With(debts ...Debt) *NetBalanceMap {
	next := m.clone()
	for _, d := range debts {
		next.add(d, 1)
	}
	return next
}

// Merge returns a new map holding the sum of m and o.
func (m *NetBalanceMap) Merge(o *NetBalanceMap) *NetBalanceMap {
	next := m.clone()
	if o == nil {
		return next
	}
	for k, t := range o.totals {
		next.addSigned(k, t)
	}
	return next
}

// Apply folds additional transactions into a copy of m. It is the
// incremental form of ComputeNetBalances: applying a delta to the map of a
// snapshot gives the same result as recomputing over snapshot plus delta.
func (m *NetBalanceMap) Apply(txs []Transaction, opts ...Option) (*NetBalanceMap, []*TransactionError) {
	return m.fold(txs, newOptions(m.withCurrency(opts)), 1)
}

// Revert removes the effect of previously applied transactions, for
// deletions upstream. Edits are a Revert of the old record followed by an
// Apply of the new one.
func (m *NetBalanceMap) Revert(txs []Transaction, opts ...Option) (*NetBalanceMap, []*TransactionError) {
	return m.fold(txs, newOptions(m.withCurrency(opts)), -1)
}

// Debts lists one debt per pair with a non-zero total, sorted by debtor then
// creditor.
func (m *NetBalanceMap) Debts() []Debt {
	if m == nil {
		return nil
	}
	debts := make([]Debt, 0, len(m.totals))
	for k, t := range m.totals {
		if d, ok := debtFor(k, t); ok {
			debts = append(debts, d)
		}
	}
	sort.Slice(debts, func(i, j int) bool {
		if debts[i].Debtor != debts[j].Debtor {
			return debts[i].Debtor < debts[j].Debtor
		}
		return debts[i].Creditor < debts[j].Creditor
	})
	return debts
}

// Between returns the net debt between a and b, in whichever direction it
// runs. ok is false when the two members are settled.
func (m *NetBalanceMap) Between(a, b MemberID) (Debt, bool) {
	if m == nil || a == b {
		return Debt{}, false
	}
	k, _ := orient(a, b)
	return debtFor(k, m.totals[k])
}

// Len returns the number of non-zero edges.
func (m *NetBalanceMap) Len() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, t := range m.totals {
		if !IsZero(t) {
			n++
		}
	}
	return n
}

// Positions returns each member's net position: positive when the member is
// owed money, negative when they owe. Positions always sum to zero.
func (m *NetBalanceMap) Positions() map[MemberID]decimal.Decimal {
	pos := make(map[MemberID]decimal.Decimal)
	for _, d := range m.Debts() {
		pos[d.Creditor] = pos[d.Creditor].Add(d.Amount)
		pos[d.Debtor] = pos[d.Debtor].Sub(d.Amount)
	}
	return pos
}

// Equal reports whether both maps emit the same debts within Tolerance.
func (m *NetBalanceMap) Equal(o *NetBalanceMap) bool {
	a, b := m.Debts(), o.Debts()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Debtor != b[i].Debtor || a[i].Creditor != b[i].Creditor {
			return false
		}
		if !IsZero(a[i].Amount.Sub(b[i].Amount)) {
			return false
		}
	}
	return true
}

func (m *NetBalanceMap) fold(txs []Transaction, o options, sign int) (*NetBalanceMap, []*TransactionError) {
	next := m.clone()
	if next.currency == "" {
		next.currency = o.currency
	}

	var rejected []*TransactionError
	for _, tx := range txs {
		debts, err := contribution(tx, o)
		if err != nil {
			rejected = append(rejected, err)
			continue
		}
		for _, d := range debts {
			next.add(d, sign)
		}
	}
	return next, rejected
}

// contribution validates tx and returns the debts it adds to the ledger.
func contribution(tx Transaction, o options) ([]Debt, *TransactionError) {
	if err := validate(tx, o); err != nil {
		return nil, err
	}
	if tx.Kind == KindGroup && tx.SplitMode == SplitUnequal {
		plan, err := ComputeSettlement(tx.Amount, tx.Contributions)
		if err != nil {
			return nil, &TransactionError{TransactionID: tx.ID, Err: err}
		}
		return plan, nil
	}
	return buildDebts(tx), nil
}

func (m *NetBalanceMap) withCurrency(opts []Option) []Option {
	if m.Currency() == "" {
		return opts
	}
	return append([]Option{WithCurrency(m.currency)}, opts...)
}

func (m *NetBalanceMap) clone() *NetBalanceMap {
	next := &NetBalanceMap{totals: make(map[pairKey]decimal.Decimal)}
	if m == nil {
		return next
	}
	next.currency = m.currency
	for k, t := range m.totals {
		next.totals[k] = t
	}
	return next
}

// add mutates m and must only be called on a map that has not been handed
// out yet.
func (m *NetBalanceMap) add(d Debt, sign int) {
	if d.IsSelf() || d.Amount.IsZero() {
		return
	}
	k, dir := orient(d.Debtor, d.Creditor)
	amt := d.Amount
	if dir*sign < 0 {
		amt = amt.Neg()
	}
	m.addSigned(k, amt)
}

func (m *NetBalanceMap) addSigned(k pairKey, amt decimal.Decimal) {
	t := m.totals[k].Add(amt)
	if t.IsZero() {
		delete(m.totals, k)
		return
	}
	m.totals[k] = t
}

func debtFor(k pairKey, t decimal.Decimal) (Debt, bool) {
	switch {
	case IsZero(t):
		return Debt{}, false
	case t.IsPositive():
		return Debt{Debtor: k.lo, Creditor: k.hi, Amount: t}, true
	default:
		return Debt{Debtor: k.hi, Creditor: k.lo, Amount: t.Neg()}, true
	}
}
