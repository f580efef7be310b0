package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Roster is the set of members a caller knows about.
type Roster map[MemberID]struct{}

// NewRoster builds a Roster from member ids.
func NewRoster(members ...MemberID) Roster {
	r := make(Roster, len(members))
	for _, m := range members {
		r[m] = struct{}{}
	}
	return r
}

// Contains reports whether id is in the roster.
func (r Roster) Contains(id MemberID) bool {
	_, ok := r[id]
	return ok
}

// Option configures validation for ComputeNetBalances and Validate.
type Option func(*options)

type options struct {
	roster   Roster
	currency string
}

// WithRoster rejects transactions that reference members outside roster
// with ErrUnknownMember. A nil roster disables the check.
func WithRoster(roster Roster) Option {
	return func(o *options) {
		o.roster = roster
	}
}

// WithCurrency rejects transactions tagged with a different non-empty
// currency with ErrCurrencyMismatch.
func WithCurrency(currency string) Option {
	return func(o *options) {
		o.currency = currency
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Validate checks one transaction at the Ledger Builder boundary.
// It returns nil when the transaction is well formed.
func Validate(tx Transaction, opts ...Option) *TransactionError {
	return validate(tx, newOptions(opts))
}

func validate(tx Transaction, o options) *TransactionError {
	if o.currency != "" && tx.Currency != "" && tx.Currency != o.currency {
		return rejectf(tx.ID, ErrCurrencyMismatch, "got %s, computing in %s", tx.Currency, o.currency)
	}

	switch tx.Kind {
	case KindTwoParty:
		if tx.Debtor == "" || tx.Creditor == "" {
			return rejectf(tx.ID, ErrInvalidMember, "debtor and creditor are required")
		}
		if !tx.Amount.IsPositive() {
			return rejectf(tx.ID, ErrInvalidAmount, "amount %s must be positive", tx.Amount)
		}
	case KindGroup:
		if err := validateGroup(tx); err != nil {
			return err
		}
	default:
		return &TransactionError{
			TransactionID: tx.ID,
			Err:           fmt.Errorf("unsupported transaction kind %d", int(tx.Kind)),
		}
	}

	if o.roster != nil {
		for _, id := range tx.Members() {
			if !o.roster.Contains(id) {
				return rejectf(tx.ID, ErrUnknownMember, "%s", id)
			}
		}
	}
	return nil
}

func validateGroup(tx Transaction) *TransactionError {
	if !tx.Amount.IsPositive() {
		return rejectf(tx.ID, ErrInvalidAmount, "amount %s must be positive", tx.Amount)
	}

	switch tx.SplitMode {
	case SplitEqual:
		if tx.Payer == "" {
			return rejectf(tx.ID, ErrInvalidMember, "payer is required")
		}
		participants := uniqueMembers(tx.Participants)
		if len(participants) == 0 {
			return rejectf(tx.ID, ErrEmptyParticipantSet, "equal split needs at least one participant")
		}
		for _, p := range participants {
			if p == "" {
				return rejectf(tx.ID, ErrInvalidMember, "empty participant id")
			}
		}
	case SplitUnequal:
		if err := checkContributions(tx.Amount, tx.Contributions); err != nil {
			return &TransactionError{TransactionID: tx.ID, Err: err}
		}
	default:
		return &TransactionError{
			TransactionID: tx.ID,
			Err:           fmt.Errorf("unsupported split mode %d", int(tx.SplitMode)),
		}
	}
	return nil
}

// BuildDebts converts one transaction into elementary debts.
//
// Two-party records yield one debt, or none when debtor and creditor are the
// same member. Equal splits yield one debt per participant other than the
// payer, each for Amount/n. Unequal splits yield no debts; their
// contributions go through ComputeSettlement instead (see SettlementFor).
func BuildDebts(tx Transaction) ([]Debt, error) {
	if err := validate(tx, options{}); err != nil {
		return nil, err
	}
	return buildDebts(tx), nil
}

// buildDebts assumes tx has been validated.
func buildDebts(tx Transaction) []Debt {
	switch {
	case tx.Kind == KindTwoParty:
		d := Debt{Debtor: tx.Debtor, Creditor: tx.Creditor, Amount: tx.Amount}
		if d.IsSelf() {
			return nil
		}
		return []Debt{d}

	case tx.SplitMode == SplitEqual:
		participants := uniqueMembers(tx.Participants)
		share := tx.Amount.Div(decimal.NewFromInt(int64(len(participants))))
		debts := make([]Debt, 0, len(participants))
		for _, p := range participants {
			if p == tx.Payer {
				continue
			}
			debts = append(debts, Debt{Debtor: p, Creditor: tx.Payer, Amount: share})
		}
		return debts
	}
	return nil
}

// SettlementFor runs the Settlement Minimizer on an unequal-split record.
func SettlementFor(tx Transaction) ([]Debt, error) {
	if tx.Kind != KindGroup || tx.SplitMode != SplitUnequal {
		return nil, fmt.Errorf("transaction %q is not an unequal split", tx.ID)
	}
	plan, err := ComputeSettlement(tx.Amount, tx.Contributions)
	if err != nil {
		return nil, &TransactionError{TransactionID: tx.ID, Err: err}
	}
	return plan, nil
}

func uniqueMembers(ids []MemberID) []MemberID {
	seen := make(map[MemberID]bool, len(ids))
	out := make([]MemberID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
