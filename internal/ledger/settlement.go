package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ComputeSettlement returns the transfers that bring every member to an
// equal share of total, given what each member actually contributed.
//
// Algorithm (greedy): balance = contributed - total/n. While some balance is
// non-zero, the member with the largest credit is paid by the member with
// the largest debt, min(credit, -debt) at a time. Each step zeroes at least
// one of the two, so a plan never has more than n-1 transfers. Ties are
// broken by member id so the plan is deterministic.
//
// An error is returned when contributions do not add up to total
// (ErrContributionMismatch), when there are no contributions
// (ErrEmptyParticipantSet) or when an amount is out of range
// (ErrInvalidAmount).
func ComputeSettlement(total decimal.Decimal, contributions map[MemberID]decimal.Decimal) ([]Debt, error) {
	if err := checkContributions(total, contributions); err != nil {
		return nil, err
	}
	n := len(contributions)
	if n == 1 {
		return nil, nil
	}

	members := sortedMembers(contributions)
	share := total.Div(decimal.NewFromInt(int64(n)))
	balance := make(map[MemberID]decimal.Decimal, n)
	for _, id := range members {
		balance[id] = contributions[id].Sub(share)
	}

	var plan []Debt
	for len(plan) < n-1 {
		creditor, debtor := members[0], members[0]
		for _, id := range members[1:] {
			if balance[id].GreaterThan(balance[creditor]) {
				creditor = id
			}
			if balance[id].LessThan(balance[debtor]) {
				debtor = id
			}
		}

		credit, debit := balance[creditor], balance[debtor].Neg()
		if IsZero(credit) || IsZero(debit) {
			break
		}

		amount := decimal.Min(credit, debit)
		plan = append(plan, Debt{Debtor: debtor, Creditor: creditor, Amount: amount})
		balance[creditor] = credit.Sub(amount)
		balance[debtor] = balance[debtor].Add(amount)
	}
	return plan, nil
}

// MergeSettlement folds a settlement plan into the debts already recorded
// for a ledger. A transfer running opposite to an existing edge cancels
// against it; the result keeps one edge per pair, the same as the Netting
// Resolver produces.
func MergeSettlement(prior *NetBalanceMap, plan []Debt) *NetBalanceMap {
	return prior.With(plan...)
}

func checkContributions(total decimal.Decimal, contributions map[MemberID]decimal.Decimal) error {
	if len(contributions) == 0 {
		return fmt.Errorf("%w: no contributions", ErrEmptyParticipantSet)
	}
	if !total.IsPositive() {
		return fmt.Errorf("%w: total %s must be positive", ErrInvalidAmount, total)
	}

	sum := decimal.Zero
	for id, c := range contributions {
		if id == "" {
			return fmt.Errorf("%w: empty contributor id", ErrInvalidMember)
		}
		if c.IsNegative() {
			return fmt.Errorf("%w: %s contributed %s", ErrInvalidAmount, id, c)
		}
		sum = sum.Add(c)
	}
	if !IsZero(sum.Sub(total)) {
		return fmt.Errorf("%w: contributions sum to %s, total is %s", ErrContributionMismatch, sum, total)
	}
	return nil
}
