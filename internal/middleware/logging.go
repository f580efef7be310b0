package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/debtledger/internal/ledger"
)

// LoggingInterceptor returns a Connect interceptor that logs one line per RPC.
//
// Calls the ledger refused (a malformed expense, an unknown member, a
// settlement that does not add up) are logged at WARN with the ledger error
// kind and the offending transaction. Other client errors are WARN too;
// internal failures and non-Connect errors are ERROR.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			attrs := []any{
				"procedure", req.Spec().Procedure,
				"request_id", GetRequestID(ctx),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if err == nil {
				slog.Info("RPC ok", attrs...)
				return resp, nil
			}

			attrs = append(attrs, rejectionAttrs(err)...)
			code := connect.CodeOf(err)
			if code == connect.CodeInternal || code == connect.CodeUnknown {
				slog.Error("RPC failed", append(attrs, "code", code.String(), "error", err)...)
			} else {
				slog.Warn("RPC rejected", append(attrs, "code", code.String(), "error", errorMessage(err))...)
			}
			return resp, err
		}
	}
}

// rejectionAttrs describes a ledger rejection carried by err, if any.
func rejectionAttrs(err error) []any {
	var attrs []any
	if kind := ledger.KindOf(err); kind != "" {
		attrs = append(attrs, "ledger_error", string(kind))
	}
	var txErr *ledger.TransactionError
	if errors.As(err, &txErr) && txErr.TransactionID != "" {
		attrs = append(attrs, "transaction_id", txErr.TransactionID)
	}
	return attrs
}

func errorMessage(err error) string {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr.Message()
	}
	return err.Error()
}
