package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/debtledger/internal/ledger"
	"github.com/mmynk/debtledger/internal/metrics"
	"github.com/mmynk/debtledger/internal/models"
	"github.com/mmynk/debtledger/internal/storage"
	"github.com/mmynk/debtledger/pkg/api"
	"github.com/mmynk/debtledger/pkg/api/apiconnect"
)

// GroupService implements the Connect GroupService
type GroupService struct {
	apiconnect.UnimplementedGroupServiceHandler
	store           storage.Store
	defaultCurrency string
	metrics         *metrics.Metrics
}

// NewGroupService creates a new GroupService with the given storage backend.
// Groups created without a currency get defaultCurrency. m may be nil.
func NewGroupService(store storage.Store, defaultCurrency string, m *metrics.Metrics) *GroupService {
	return &GroupService{store: store, defaultCurrency: defaultCurrency, metrics: m}
}

// CreateGroup creates a new group.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
	)

	if req.Msg.Name == "" {
		return nil, invalidArgument("name required")
	}

	group := &models.Group{
		Name:     req.Msg.Name,
		Currency: s.currencyOr(req.Msg.Currency),
		Members:  uniqueMembers(req.Msg.Members),
	}

	// Save to storage (generates ID and CreatedAt)
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group created", "group_id", group.ID)

	return connect.NewResponse(&api.CreateGroupResponse{Group: groupToAPI(group)}), nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetGroupResponse{Group: groupToAPI(group)}), nil
}

// ListGroups retrieves all groups.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	groups, err := s.store.ListGroups(ctx)
	if err != nil {
		slog.Error("ListGroups failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Group, len(groups))
	for i, group := range groups {
		out[i] = groupToAPI(group)
	}

	slog.Info("ListGroups successful", "count", len(groups))

	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// UpdateGroup replaces a group's name, currency and roster. An empty
// currency keeps the current one.
func (s *GroupService) UpdateGroup(ctx context.Context, req *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error) {
	slog.Info("UpdateGroup request received",
		"group_id", req.Msg.GroupID,
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
	)

	if req.Msg.Name == "" {
		return nil, invalidArgument("name required")
	}

	current, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	group := &models.Group{
		ID:       current.ID,
		Name:     req.Msg.Name,
		Currency: current.Currency,
		Members:  uniqueMembers(req.Msg.Members),
	}
	if req.Msg.Currency != "" {
		group.Currency = req.Msg.Currency
	}

	if err := s.store.UpdateGroup(ctx, group); err != nil {
		slog.Error("UpdateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	// Fetch updated group to get CreatedAt
	updated, err := s.store.GetGroup(ctx, group.ID)
	if err != nil {
		slog.Error("Failed to fetch updated group", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group updated", "group_id", group.ID)

	return connect.NewResponse(&api.UpdateGroupResponse{Group: groupToAPI(updated)}), nil
}

// DeleteGroup removes a group with its expenses and payments.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	slog.Info("DeleteGroup request received", "group_id", req.Msg.GroupID)

	if err := s.store.DeleteGroup(ctx, req.Msg.GroupID); err != nil {
		slog.Error("DeleteGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group deleted", "group_id", req.Msg.GroupID)

	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}

// AddMembers appends members to a group's roster.
func (s *GroupService) AddMembers(ctx context.Context, req *connect.Request[api.AddMembersRequest]) (*connect.Response[api.AddMembersResponse], error) {
	slog.Info("AddMembers request received",
		"group_id", req.Msg.GroupID,
		"members_count", len(req.Msg.Members),
	)

	members := uniqueMembers(req.Msg.Members)
	if len(members) == 0 {
		return nil, invalidArgument("at least one member required")
	}

	if err := s.store.AddGroupMembers(ctx, req.Msg.GroupID, members); err != nil {
		slog.Error("AddMembers failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.AddMembersResponse{Group: groupToAPI(group)}), nil
}

// AddExpense validates an expense against its group and stores it.
func (s *GroupService) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	if req.Msg.Expense == nil {
		return nil, invalidArgument("expense required")
	}
	slog.Info("AddExpense request received",
		"group_id", req.Msg.Expense.GroupID,
		"kind", req.Msg.Expense.Kind,
		"amount", req.Msg.Expense.Amount,
	)

	expense := expenseFromAPI(req.Msg.Expense)
	expense.ID = ""
	expense.CreatedAt = 0

	group, err := s.store.GetGroup(ctx, expense.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.admitExpense(ctx, group, expense, req.Msg.AutoAddMembers); err != nil {
		slog.Warn("AddExpense rejected", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("AddExpense failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Expense recorded", "expense_id", expense.ID, "group_id", group.ID)

	return connect.NewResponse(&api.AddExpenseResponse{Expense: expenseToAPI(expense)}), nil
}

// UpdateExpense replaces a stored expense. The expense stays in its group.
func (s *GroupService) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	if req.Msg.Expense == nil || req.Msg.Expense.ID == "" {
		return nil, invalidArgument("expense id required")
	}
	slog.Info("UpdateExpense request received", "expense_id", req.Msg.Expense.ID)

	current, err := s.store.GetExpense(ctx, req.Msg.Expense.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	group, err := s.store.GetGroup(ctx, current.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	expense := expenseFromAPI(req.Msg.Expense)
	expense.GroupID = current.GroupID
	if err := s.admitExpense(ctx, group, expense, req.Msg.AutoAddMembers); err != nil {
		slog.Warn("UpdateExpense rejected", "expense_id", expense.ID, "error", err)
		return nil, toConnectError(err)
	}

	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		slog.Error("UpdateExpense failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Expense updated", "expense_id", expense.ID)

	return connect.NewResponse(&api.UpdateExpenseResponse{Expense: expenseToAPI(expense)}), nil
}

// DeleteExpense removes an expense. Balances recompute without it.
func (s *GroupService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	slog.Info("DeleteExpense request received", "expense_id", req.Msg.ExpenseID)

	if err := s.store.DeleteExpense(ctx, req.Msg.ExpenseID); err != nil {
		slog.Error("DeleteExpense failed", "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// ListExpenses returns a group's expenses, oldest first.
func (s *GroupService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError(err)
	}

	expenses, err := s.store.ListExpenses(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("ListExpenses failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = expenseToAPI(e)
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// RecordPayment stores money handed from one member to another.
func (s *GroupService) RecordPayment(ctx context.Context, req *connect.Request[api.RecordPaymentRequest]) (*connect.Response[api.RecordPaymentResponse], error) {
	p := req.Msg.Payment
	if p == nil {
		return nil, invalidArgument("payment required")
	}
	slog.Info("RecordPayment request received",
		"group_id", p.GroupID,
		"from", p.FromMember,
		"to", p.ToMember,
		"amount", p.Amount,
	)

	group, err := s.store.GetGroup(ctx, p.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	payment := &models.Payment{
		GroupID:    group.ID,
		FromMember: p.FromMember,
		ToMember:   p.ToMember,
		Amount:     p.Amount,
		Note:       p.Note,
	}
	if payment.FromMember == payment.ToMember {
		return nil, invalidArgument("payment from %q to themself", payment.FromMember)
	}
	tx := paymentTransaction(payment, group.Currency)
	if err := ledger.Validate(tx, ledger.WithRoster(rosterOf(group))); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.CreatePayment(ctx, payment); err != nil {
		slog.Error("RecordPayment failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Payment recorded", "payment_id", payment.ID, "group_id", group.ID)

	return connect.NewResponse(&api.RecordPaymentResponse{Payment: paymentToAPI(payment)}), nil
}

// ListPayments returns a group's payments, oldest first.
func (s *GroupService) ListPayments(ctx context.Context, req *connect.Request[api.ListPaymentsRequest]) (*connect.Response[api.ListPaymentsResponse], error) {
	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError(err)
	}

	payments, err := s.store.ListPayments(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("ListPayments failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Payment, len(payments))
	for i, p := range payments {
		out[i] = paymentToAPI(p)
	}
	return connect.NewResponse(&api.ListPaymentsResponse{Payments: out}), nil
}

// DeletePayment removes a payment.
func (s *GroupService) DeletePayment(ctx context.Context, req *connect.Request[api.DeletePaymentRequest]) (*connect.Response[api.DeletePaymentResponse], error) {
	slog.Info("DeletePayment request received", "payment_id", req.Msg.PaymentID)

	if err := s.store.DeletePayment(ctx, req.Msg.PaymentID); err != nil {
		slog.Error("DeletePayment failed", "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.DeletePaymentResponse{}), nil
}

// GetBalances nets every expense and payment of a group into at most one
// debt per member pair. Stored records the engine rejects are skipped and
// listed in the response.
func (s *GroupService) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	groupID := req.Msg.GroupID
	slog.Info("GetBalances request received", "group_id", groupID)

	if groupID == "" {
		return nil, invalidArgument("group_id required")
	}

	snap, err := s.store.Snapshot(ctx, groupID)
	if err != nil {
		slog.Error("GetBalances failed", "group_id", groupID, "error", err)
		return nil, toConnectError(err)
	}

	var rejected []*ledger.TransactionError
	txs := make([]ledger.Transaction, 0, len(snap.Expenses)+len(snap.Payments))
	for _, e := range snap.Expenses {
		tx, err := expenseTransaction(e)
		if err != nil {
			rejected = append(rejected, &ledger.TransactionError{TransactionID: e.ID, Err: err})
			continue
		}
		txs = append(txs, tx)
	}
	for _, p := range snap.Payments {
		txs = append(txs, paymentTransaction(p, snap.Group.Currency))
	}

	balances, skipped := ledger.ComputeNetBalances(txs,
		ledger.WithRoster(rosterOf(snap.Group)),
		ledger.WithCurrency(snap.Group.Currency),
	)
	rejected = append(rejected, skipped...)
	for _, r := range rejected {
		slog.Warn("Transaction skipped", "group_id", groupID, "transaction_id", r.TransactionID, "error", r.Err)
	}
	s.metrics.ObserveRejected(rejected)
	s.metrics.ObserveBalances(balances.Len())

	slog.Info("GetBalances successful",
		"group_id", groupID,
		"expenses_count", len(snap.Expenses),
		"payments_count", len(snap.Payments),
		"debts_count", balances.Len(),
	)

	return connect.NewResponse(&api.GetBalancesResponse{
		Currency:  balances.Currency(),
		Debts:     debtsToAPI(balances.Debts()),
		Positions: positionsToAPI(balances.Positions()),
		Rejected:  rejectedToAPI(rejected),
	}), nil
}

// admitExpense fills defaults on expense and runs it through the ledger
// builder's checks against the group. With autoAdd, members missing from
// the roster are added instead of rejected.
func (s *GroupService) admitExpense(ctx context.Context, group *models.Group, expense *models.Expense, autoAdd bool) error {
	if expense.Currency == "" {
		expense.Currency = group.Currency
	}

	tx, err := expenseTransaction(expense)
	if err != nil {
		return err
	}

	opts := []ledger.Option{ledger.WithCurrency(group.Currency)}
	if !autoAdd {
		opts = append(opts, ledger.WithRoster(rosterOf(group)))
	}
	if err := ledger.Validate(tx, opts...); err != nil {
		return err
	}
	if !autoAdd {
		return nil
	}

	roster := rosterOf(group)
	var missing []string
	for _, id := range tx.Members() {
		if !roster.Contains(id) {
			missing = append(missing, string(id))
		}
	}
	if len(missing) == 0 {
		return nil
	}

	slog.Info("Adding members to group", "group_id", group.ID, "members", missing)
	if err := s.store.AddGroupMembers(ctx, group.ID, missing); err != nil {
		return err
	}
	group.Members = append(group.Members, missing...)
	return nil
}

func (s *GroupService) currencyOr(currency string) string {
	if currency != "" {
		return currency
	}
	return s.defaultCurrency
}

func rosterOf(group *models.Group) ledger.Roster {
	roster := make(ledger.Roster, len(group.Members))
	for _, m := range group.Members {
		roster[ledger.MemberID(m)] = struct{}{}
	}
	return roster
}
