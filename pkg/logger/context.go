package logger

import (
	"context"
	"log/slog"
)

type correlationIDKey struct{}

// WithCorrelationID stores a correlation ID in the context so that
// CorrelationIDExtractor can attach it to every log entry made while
// processing the associated job or request.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationID returns the correlation ID from the context, if any.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// CorrelationIDExtractor injects the context's correlation ID into log
// records as "correlation_id".
func CorrelationIDExtractor(ctx context.Context) (slog.Attr, bool) {
	if id := CorrelationID(ctx); id != "" {
		return slog.String("correlation_id", id), true
	}
	return slog.Attr{}, false
}
