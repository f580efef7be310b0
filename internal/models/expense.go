package models

import "github.com/shopspring/decimal"

// Expense kinds.
const (
	KindTwoParty = "two_party"
	KindGroup    = "group"
)

// Split modes for group expenses.
const (
	SplitEqual   = "equal"
	SplitUnequal = "unequal"
)

// Expense is one expense event recorded in a group.
//
// Only the fields relevant to Kind and SplitMode are set:
//   - two_party: DebtorID owes CreditorID Amount
//   - group/equal: PayerID paid Amount, split evenly across Participants
//   - group/unequal: Amount is the shared total, Contributions says who paid what
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	Kind      string
	SplitMode string

	// Description is free text (e.g., "Groceries").
	Description string

	Amount   decimal.Decimal
	Currency string

	DebtorID   string
	CreditorID string

	PayerID      string
	Participants []string

	// Contributions maps member id to the amount that member paid.
	Contributions map[string]decimal.Decimal

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}
