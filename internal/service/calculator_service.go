package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/debtledger/internal/ledger"
	"github.com/mmynk/debtledger/internal/metrics"
	"github.com/mmynk/debtledger/pkg/api"
	"github.com/mmynk/debtledger/pkg/api/apiconnect"
)

// CalculatorService runs the ledger engine over records supplied in the
// request. Nothing is stored.
type CalculatorService struct {
	apiconnect.UnimplementedCalculatorServiceHandler
	metrics *metrics.Metrics
}

// NewCalculatorService creates a new CalculatorService. m may be nil.
func NewCalculatorService(m *metrics.Metrics) *CalculatorService {
	return &CalculatorService{metrics: m}
}

// CalculateBalances nets the given expenses into at most one debt per
// member pair. Malformed expenses are reported, not fatal.
func (s *CalculatorService) CalculateBalances(ctx context.Context, req *connect.Request[api.CalculateBalancesRequest]) (*connect.Response[api.CalculateBalancesResponse], error) {
	slog.Info("CalculateBalances request received",
		"expenses_count", len(req.Msg.Expenses),
		"currency", req.Msg.Currency,
	)

	var rejected []*ledger.TransactionError
	txs := make([]ledger.Transaction, 0, len(req.Msg.Expenses))
	for i, e := range req.Msg.Expenses {
		if e == nil {
			continue
		}
		expense := expenseFromAPI(e)
		if expense.ID == "" {
			expense.ID = fmt.Sprintf("#%d", i)
		}
		tx, err := expenseTransaction(expense)
		if err != nil {
			rejected = append(rejected, &ledger.TransactionError{TransactionID: expense.ID, Err: err})
			continue
		}
		txs = append(txs, tx)
	}

	var opts []ledger.Option
	if req.Msg.Currency != "" {
		opts = append(opts, ledger.WithCurrency(req.Msg.Currency))
	}
	if len(req.Msg.Members) > 0 {
		members := make([]ledger.MemberID, len(req.Msg.Members))
		for i, m := range req.Msg.Members {
			members[i] = ledger.MemberID(m)
		}
		opts = append(opts, ledger.WithRoster(ledger.NewRoster(members...)))
	}

	balances, skipped := ledger.ComputeNetBalances(txs, opts...)
	rejected = append(rejected, skipped...)
	s.metrics.ObserveRejected(rejected)
	s.metrics.ObserveBalances(balances.Len())

	slog.Info("CalculateBalances successful",
		"debts_count", balances.Len(),
		"rejected_count", len(rejected),
	)

	return connect.NewResponse(&api.CalculateBalancesResponse{
		Debts:     debtsToAPI(balances.Debts()),
		Positions: positionsToAPI(balances.Positions()),
		Rejected:  rejectedToAPI(rejected),
	}), nil
}

// CalculateSettlement turns unequal contributions toward a shared total into
// the shortest list of transfers that evens everyone out.
func (s *CalculatorService) CalculateSettlement(ctx context.Context, req *connect.Request[api.CalculateSettlementRequest]) (*connect.Response[api.CalculateSettlementResponse], error) {
	slog.Info("CalculateSettlement request received",
		"total", req.Msg.Total,
		"members_count", len(req.Msg.Contributions),
	)

	contributions := make(map[ledger.MemberID]decimal.Decimal, len(req.Msg.Contributions))
	for member, amount := range req.Msg.Contributions {
		contributions[ledger.MemberID(member)] = amount
	}

	plan, err := ledger.ComputeSettlement(req.Msg.Total, contributions)
	if err != nil {
		slog.Warn("CalculateSettlement rejected", "error", err)
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	s.metrics.ObserveSettlement(len(plan))

	slog.Info("CalculateSettlement successful", "transfers_count", len(plan))

	return connect.NewResponse(&api.CalculateSettlementResponse{
		FairShare: req.Msg.Total.Div(decimal.NewFromInt(int64(len(contributions)))),
		Transfers: debtsToAPI(plan),
	}), nil
}
