package dispatcher

import (
	"context"
	"log/slog"
)

type operatorKey struct{}

// WithOperator records who requested the operation so dispatch logs name them.
func WithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, operatorKey{}, operator)
}

// OperatorFrom returns the operator recorded by WithOperator.
func OperatorFrom(ctx context.Context) (string, bool) {
	operator, ok := ctx.Value(operatorKey{}).(string)
	return operator, ok && operator != ""
}

func logger(ctx context.Context) *slog.Logger {
	l := slog.Default().With("component", "Dispatcher")
	if operator, ok := OperatorFrom(ctx); ok {
		l = l.With("operator", operator)
	}
	return l
}
