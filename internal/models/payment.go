package models

import "github.com/shopspring/decimal"

// Payment represents money handed from one group member to another to clear debts.
type Payment struct {
	// ID is the unique identifier for the payment (UUID format).
	ID string

	// GroupID is the group this payment belongs to.
	GroupID string

	// FromMember is the member who paid (debtor settling up).
	FromMember string

	// ToMember is the member who received the money (creditor being paid).
	ToMember string

	// Amount is the payment amount.
	Amount decimal.Decimal

	// CreatedAt is the Unix timestamp when the payment was recorded.
	CreatedAt int64

	// Note is an optional description for the payment.
	Note string
}
