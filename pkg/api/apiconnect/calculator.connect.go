package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/debtledger/pkg/api"
)

// CalculatorServiceName is the fully-qualified name of the CalculatorService service.
const CalculatorServiceName = "debtledger.v1.CalculatorService"

// Procedure paths, one per RPC.
const (
	CalculatorServiceCalculateBalancesProcedure   = "/debtledger.v1.CalculatorService/CalculateBalances"
	CalculatorServiceCalculateSettlementProcedure = "/debtledger.v1.CalculatorService/CalculateSettlement"
)

// CalculatorServiceClient is a client for the debtledger.v1.CalculatorService service.
type CalculatorServiceClient interface {
	CalculateBalances(context.Context, *connect.Request[api.CalculateBalancesRequest]) (*connect.Response[api.CalculateBalancesResponse], error)
	CalculateSettlement(context.Context, *connect.Request[api.CalculateSettlementRequest]) (*connect.Response[api.CalculateSettlementResponse], error)
}

// NewCalculatorServiceClient constructs a client for the debtledger.v1.CalculatorService service.
// baseURL is the server root, e.g. http://localhost:8080.
func NewCalculatorServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) CalculatorServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &calculatorServiceClient{
		calculateBalances:   connect.NewClient[api.CalculateBalancesRequest, api.CalculateBalancesResponse](httpClient, baseURL+CalculatorServiceCalculateBalancesProcedure, opts...),
		calculateSettlement: connect.NewClient[api.CalculateSettlementRequest, api.CalculateSettlementResponse](httpClient, baseURL+CalculatorServiceCalculateSettlementProcedure, opts...),
	}
}

type calculatorServiceClient struct {
	calculateBalances   *connect.Client[api.CalculateBalancesRequest, api.CalculateBalancesResponse]
	calculateSettlement *connect.Client[api.CalculateSettlementRequest, api.CalculateSettlementResponse]
}

// CalculateBalances calls debtledger.v1.CalculatorService.CalculateBalances.
func (c *calculatorServiceClient) CalculateBalances(ctx context.Context, req *connect.Request[api.CalculateBalancesRequest]) (*connect.Response[api.CalculateBalancesResponse], error) {
	return c.calculateBalances.CallUnary(ctx, req)
}

// CalculateSettlement calls debtledger.v1.CalculatorService.CalculateSettlement.
func (c *calculatorServiceClient) CalculateSettlement(ctx context.Context, req *connect.Request[api.CalculateSettlementRequest]) (*connect.Response[api.CalculateSettlementResponse], error) {
	return c.calculateSettlement.CallUnary(ctx, req)
}

// CalculatorServiceHandler is implemented by the debtledger.v1.CalculatorService service.
type CalculatorServiceHandler interface {
	CalculateBalances(context.Context, *connect.Request[api.CalculateBalancesRequest]) (*connect.Response[api.CalculateBalancesResponse], error)
	CalculateSettlement(context.Context, *connect.Request[api.CalculateSettlementRequest]) (*connect.Response[api.CalculateSettlementResponse], error)
}

// NewCalculatorServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewCalculatorServiceHandler(svc CalculatorServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
	calculateBalancesHandler := connect.NewUnaryHandler(CalculatorServiceCalculateBalancesProcedure, svc.CalculateBalances, opts...)
	calculateSettlementHandler := connect.NewUnaryHandler(CalculatorServiceCalculateSettlementProcedure, svc.CalculateSettlement, opts...)
	return "/debtledger.v1.CalculatorService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case CalculatorServiceCalculateBalancesProcedure:
			calculateBalancesHandler.ServeHTTP(w, r)
		case CalculatorServiceCalculateSettlementProcedure:
			calculateSettlementHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedCalculatorServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedCalculatorServiceHandler struct{}

func (UnimplementedCalculatorServiceHandler) CalculateBalances(context.Context, *connect.Request[api.CalculateBalancesRequest]) (*connect.Response[api.CalculateBalancesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("debtledger.v1.CalculatorService.CalculateBalances is not implemented"))
}

func (UnimplementedCalculatorServiceHandler) CalculateSettlement(context.Context, *connect.Request[api.CalculateSettlementRequest]) (*connect.Response[api.CalculateSettlementResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("debtledger.v1.CalculatorService.CalculateSettlement is not implemented"))
}
