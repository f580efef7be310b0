// Package ledger turns expense records into who-owes-whom results.
//
// The package has three stages, each a pure function over its inputs:
//
//   - Ledger Builder (BuildDebts): one Transaction becomes zero or more
//     elementary Debts.
//   - Netting Resolver (ComputeNetBalances, NetBalanceMap): elementary Debts
//     collapse into at most one edge per member pair.
//   - Settlement Minimizer (ComputeSettlement, MergeSettlement): unequal
//     contributions toward one shared cost become a minimal transfer list.
//
// Nothing here performs I/O or keeps state between calls. Amounts use
// decimal arithmetic and every zero comparison goes through IsZero, which
// applies Tolerance.
package ledger

import (
	"github.com/shopspring/decimal"
)

// MemberID identifies a member. Display names are resolved elsewhere.
type MemberID string

// Kind tells whether a transaction is a two-party record or a group record.
type Kind int

const (
	// KindTwoParty is a "quick" expense: Debtor owes Creditor Amount.
	KindTwoParty Kind = iota
	// KindGroup is a shared expense paid by Payer and split across Participants.
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindTwoParty:
		return "two_party"
	case KindGroup:
		return "group"
	default:
		return "unknown"
	}
}

// SplitMode controls how a group record is divided.
type SplitMode int

const (
	// SplitEqual divides Amount evenly across Participants.
	SplitEqual SplitMode = iota
	// SplitUnequal carries explicit Contributions instead of a single payer.
	SplitUnequal
)

func (m SplitMode) String() string {
	switch m {
	case SplitEqual:
		return "equal"
	case SplitUnequal:
		return "unequal"
	default:
		return "unknown"
	}
}

// Transaction is one immutable expense event.
//
// Which fields are read depends on Kind and SplitMode:
//   - KindTwoParty: Debtor, Creditor, Amount.
//   - KindGroup + SplitEqual: Payer, Amount, Participants.
//   - KindGroup + SplitUnequal: Amount (the shared total) and Contributions.
type Transaction struct {
	ID string

	Kind      Kind
	SplitMode SplitMode

	Debtor   MemberID
	Creditor MemberID

	Payer        MemberID
	Participants []MemberID

	// Contributions maps each member to what they actually paid toward
	// Amount. Members who paid nothing are present with a zero value.
	Contributions map[MemberID]decimal.Decimal

	Amount decimal.Decimal

	// Currency is carried through untouched.
	Currency    string
	Description string
}

// Members returns every member id the transaction references, in first-seen
// order and without duplicates.
func (t Transaction) Members() []MemberID {
	seen := make(map[MemberID]bool)
	var out []MemberID
	add := func(id MemberID) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	switch {
	case t.Kind == KindTwoParty:
		add(t.Debtor)
		add(t.Creditor)
	case t.SplitMode == SplitUnequal:
		for _, id := range sortedMembers(t.Contributions) {
			add(id)
		}
	default:
		add(t.Payer)
		for _, id := range t.Participants {
			add(id)
		}
	}
	return out
}

// Debt is a directed, weighted edge: Debtor owes Creditor Amount.
type Debt struct {
	Debtor   MemberID
	Creditor MemberID
	Amount   decimal.Decimal
}

// Opposes reports whether o runs between the same two members in the
// reverse direction.
func (d Debt) Opposes(o Debt) bool {
	return d.Debtor == o.Creditor && d.Creditor == o.Debtor
}

// IsSelf reports whether the debt is degenerate (a member owing themself).
func (d Debt) IsSelf() bool {
	return d.Debtor == d.Creditor
}
