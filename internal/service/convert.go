package service

import (
	"errors"
	"fmt"
	"sort"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/debtledger/internal/ledger"
	"github.com/mmynk/debtledger/internal/models"
	"github.com/mmynk/debtledger/internal/storage"
	"github.com/mmynk/debtledger/pkg/api"
)

// toConnectError maps storage and ledger errors onto Connect codes.
func toConnectError(err error) error {
	var connectErr *connect.Error
	switch {
	case errors.As(err, &connectErr):
		return connectErr
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case ledger.KindOf(err) != "", errors.Is(err, errUnsupportedExpense):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

func invalidArgument(format string, args ...any) error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}

var errUnsupportedExpense = errors.New("unsupported expense")

func groupToAPI(group *models.Group) *api.Group {
	return &api.Group{
		ID:        group.ID,
		Name:      group.Name,
		Currency:  group.Currency,
		Members:   group.Members,
		CreatedAt: group.CreatedAt,
	}
}

func expenseFromAPI(e *api.Expense) *models.Expense {
	return &models.Expense{
		ID:            e.ID,
		GroupID:       e.GroupID,
		Kind:          e.Kind,
		SplitMode:     e.SplitMode,
		Description:   e.Description,
		Amount:        e.Amount,
		Currency:      e.Currency,
		DebtorID:      e.DebtorID,
		CreditorID:    e.CreditorID,
		PayerID:       e.PayerID,
		Participants:  e.Participants,
		Contributions: e.Contributions,
		CreatedAt:     e.CreatedAt,
	}
}

func expenseToAPI(e *models.Expense) *api.Expense {
	return &api.Expense{
		ID:            e.ID,
		GroupID:       e.GroupID,
		Kind:          e.Kind,
		SplitMode:     e.SplitMode,
		Description:   e.Description,
		Amount:        e.Amount,
		Currency:      e.Currency,
		DebtorID:      e.DebtorID,
		CreditorID:    e.CreditorID,
		PayerID:       e.PayerID,
		Participants:  e.Participants,
		Contributions: e.Contributions,
		CreatedAt:     e.CreatedAt,
	}
}

func paymentToAPI(p *models.Payment) *api.Payment {
	return &api.Payment{
		ID:         p.ID,
		GroupID:    p.GroupID,
		FromMember: p.FromMember,
		ToMember:   p.ToMember,
		Amount:     p.Amount,
		Note:       p.Note,
		CreatedAt:  p.CreatedAt,
	}
}

// expenseTransaction converts a stored expense into the engine's input.
// An empty split mode on a group expense means an equal split.
func expenseTransaction(e *models.Expense) (ledger.Transaction, error) {
	tx := ledger.Transaction{
		ID:          e.ID,
		Amount:      e.Amount,
		Currency:    e.Currency,
		Description: e.Description,
	}

	switch e.Kind {
	case models.KindTwoParty:
		tx.Kind = ledger.KindTwoParty
		tx.Debtor = ledger.MemberID(e.DebtorID)
		tx.Creditor = ledger.MemberID(e.CreditorID)
		return tx, nil
	case models.KindGroup:
		tx.Kind = ledger.KindGroup
	default:
		return tx, fmt.Errorf("%w: kind %q", errUnsupportedExpense, e.Kind)
	}

	switch e.SplitMode {
	case models.SplitEqual, "":
		tx.SplitMode = ledger.SplitEqual
		tx.Payer = ledger.MemberID(e.PayerID)
		tx.Participants = make([]ledger.MemberID, len(e.Participants))
		for i, p := range e.Participants {
			tx.Participants[i] = ledger.MemberID(p)
		}
	case models.SplitUnequal:
		tx.SplitMode = ledger.SplitUnequal
		tx.Contributions = make(map[ledger.MemberID]decimal.Decimal, len(e.Contributions))
		for member, amount := range e.Contributions {
			tx.Contributions[ledger.MemberID(member)] = amount
		}
	default:
		return tx, fmt.Errorf("%w: split mode %q", errUnsupportedExpense, e.SplitMode)
	}
	return tx, nil
}

// paymentTransaction turns a payment into a debt in the opposite direction:
// when From hands To money, To now owes From that amount, which cancels
// against From's existing debt to To.
func paymentTransaction(p *models.Payment, currency string) ledger.Transaction {
	return ledger.Transaction{
		ID:          p.ID,
		Kind:        ledger.KindTwoParty,
		Debtor:      ledger.MemberID(p.ToMember),
		Creditor:    ledger.MemberID(p.FromMember),
		Amount:      p.Amount,
		Currency:    currency,
		Description: p.Note,
	}
}

func debtsToAPI(debts []ledger.Debt) []*api.Debt {
	out := make([]*api.Debt, len(debts))
	for i, d := range debts {
		out[i] = &api.Debt{
			From:   string(d.Debtor),
			To:     string(d.Creditor),
			Amount: d.Amount,
		}
	}
	return out
}

// positionsToAPI lists non-zero positions sorted by member.
func positionsToAPI(positions map[ledger.MemberID]decimal.Decimal) []*api.MemberPosition {
	out := make([]*api.MemberPosition, 0, len(positions))
	for member, amount := range positions {
		if ledger.IsZero(amount) {
			continue
		}
		out = append(out, &api.MemberPosition{Member: string(member), Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Member < out[j].Member
	})
	return out
}

func rejectedToAPI(rejected []*ledger.TransactionError) []*api.RejectedTransaction {
	if len(rejected) == 0 {
		return nil
	}
	out := make([]*api.RejectedTransaction, len(rejected))
	for i, r := range rejected {
		out[i] = &api.RejectedTransaction{
			TransactionID: r.TransactionID,
			Kind:          string(r.Kind()),
			Message:       r.Error(),
		}
	}
	return out
}

// uniqueMembers drops empty and repeated ids, keeping first-seen order.
func uniqueMembers(members []string) []string {
	seen := make(map[string]bool, len(members))
	out := make([]string, 0, len(members))
	for _, m := range members {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
