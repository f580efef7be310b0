package ledger

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// Tolerance is the absolute threshold below which an amount counts as zero.
var Tolerance = decimal.New(1, -9)

// IsZero reports whether |d| <= Tolerance.
func IsZero(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(Tolerance)
}

// AmountFromFloat converts a float amount coming from a collaborator
// (a form field, a JSON number) into a decimal. NaN and infinities are
// rejected with ErrInvalidAmount instead of panicking inside decimal.
func AmountFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w: %v is not finite", ErrInvalidAmount, f)
	}
	return decimal.NewFromFloat(f), nil
}

// ParseAmount parses a decimal string such as "12.50".
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
	}
	return d, nil
}

func sortedMembers[V any](m map[MemberID]V) []MemberID {
	ids := make([]MemberID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
