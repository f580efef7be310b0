// Package api defines the wire messages of the debtledger RPC services.
//
// Messages are plain structs encoded as JSON (see apiconnect.Codec).
// Amounts are decimals and travel as JSON strings ("12.50"); numbers are
// accepted on input too.
package api

import "github.com/shopspring/decimal"

// Group is a roster of members sharing one currency.
type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Currency  string   `json:"currency"`
	Members   []string `json:"members"`
	CreatedAt int64    `json:"created_at"`
}

// Expense is one expense event. Kind is "two_party" or "group"; SplitMode is
// "equal" or "unequal" for group expenses.
type Expense struct {
	ID            string                     `json:"id,omitempty"`
	GroupID       string                     `json:"group_id,omitempty"`
	Kind          string                     `json:"kind"`
	SplitMode     string                     `json:"split_mode,omitempty"`
	Description   string                     `json:"description,omitempty"`
	Amount        decimal.Decimal            `json:"amount"`
	Currency      string                     `json:"currency,omitempty"`
	DebtorID      string                     `json:"debtor_id,omitempty"`
	CreditorID    string                     `json:"creditor_id,omitempty"`
	PayerID       string                     `json:"payer_id,omitempty"`
	Participants  []string                   `json:"participants,omitempty"`
	Contributions map[string]decimal.Decimal `json:"contributions,omitempty"`
	CreatedAt     int64                      `json:"created_at,omitempty"`
}

// Payment is money handed from one member to another.
type Payment struct {
	ID         string          `json:"id,omitempty"`
	GroupID    string          `json:"group_id"`
	FromMember string          `json:"from_member"`
	ToMember   string          `json:"to_member"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note,omitempty"`
	CreatedAt  int64           `json:"created_at,omitempty"`
}

// Debt says From owes To Amount.
type Debt struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// MemberPosition is a member's net position: positive when owed money.
type MemberPosition struct {
	Member string          `json:"member"`
	Amount decimal.Decimal `json:"amount"`
}

// RejectedTransaction reports an expense the engine refused.
type RejectedTransaction struct {
	TransactionID string `json:"transaction_id"`
	Kind          string `json:"kind"`
	Message       string `json:"message"`
}

type CreateGroupRequest struct {
	Name     string   `json:"name"`
	Currency string   `json:"currency,omitempty"`
	Members  []string `json:"members,omitempty"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type UpdateGroupRequest struct {
	GroupID  string   `json:"group_id"`
	Name     string   `json:"name"`
	Currency string   `json:"currency,omitempty"`
	Members  []string `json:"members"`
}

type UpdateGroupResponse struct {
	Group *Group `json:"group"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"group_id"`
}

type DeleteGroupResponse struct{}

type AddMembersRequest struct {
	GroupID string   `json:"group_id"`
	Members []string `json:"members"`
}

type AddMembersResponse struct {
	Group *Group `json:"group"`
}

type AddExpenseRequest struct {
	Expense *Expense `json:"expense"`
	// AutoAddMembers adds members the expense references to the roster
	// instead of rejecting the expense.
	AutoAddMembers bool `json:"auto_add_members,omitempty"`
}

type AddExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type UpdateExpenseRequest struct {
	Expense        *Expense `json:"expense"`
	AutoAddMembers bool     `json:"auto_add_members,omitempty"`
}

type UpdateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type DeleteExpenseResponse struct{}

type ListExpensesRequest struct {
	GroupID string `json:"group_id"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type RecordPaymentRequest struct {
	Payment *Payment `json:"payment"`
}

type RecordPaymentResponse struct {
	Payment *Payment `json:"payment"`
}

type ListPaymentsRequest struct {
	GroupID string `json:"group_id"`
}

type ListPaymentsResponse struct {
	Payments []*Payment `json:"payments"`
}

type DeletePaymentRequest struct {
	PaymentID string `json:"payment_id"`
}

type DeletePaymentResponse struct{}

type GetBalancesRequest struct {
	GroupID string `json:"group_id"`
}

type GetBalancesResponse struct {
	Currency  string                 `json:"currency"`
	Debts     []*Debt                `json:"debts"`
	Positions []*MemberPosition      `json:"positions"`
	Rejected  []*RejectedTransaction `json:"rejected,omitempty"`
}

type CalculateBalancesRequest struct {
	Currency string `json:"currency,omitempty"`
	// Members, when set, is the roster every expense must stay within.
	Members  []string   `json:"members,omitempty"`
	Expenses []*Expense `json:"expenses"`
}

type CalculateBalancesResponse struct {
	Debts     []*Debt                `json:"debts"`
	Positions []*MemberPosition      `json:"positions"`
	Rejected  []*RejectedTransaction `json:"rejected,omitempty"`
}

type CalculateSettlementRequest struct {
	Total         decimal.Decimal            `json:"total"`
	Contributions map[string]decimal.Decimal `json:"contributions"`
}

type CalculateSettlementResponse struct {
	FairShare decimal.Decimal `json:"fair_share"`
	Transfers []*Debt         `json:"transfers"`
}
