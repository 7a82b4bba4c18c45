package core

import "context"

// Context keys for run options
type contextKey string

const (
	suppressHeaderKey contextKey = "suppressHeader"
	batchIDKey        contextKey = "batchID"
)

// WithSuppressHeader marks the context so that scope headers are not printed.
// Adapters that render their own output (MCP, HTTP) use this.
func WithSuppressHeader(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressHeaderKey, true)
}

// shouldSuppressHeader returns whether headers should be suppressed from context
func shouldSuppressHeader(ctx context.Context) bool {
	val := ctx.Value(suppressHeaderKey)
	if val == nil {
		return false // default: show headers
	}
	suppress, ok := val.(bool)
	return ok && suppress
}

// withBatchID stores the id of the bulk save in progress.
func withBatchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, batchIDKey, id)
}

// getBatchID returns the id of the bulk save in progress, if any.
func getBatchID(ctx context.Context) (string, bool) {
	val := ctx.Value(batchIDKey)
	if val == nil {
		return "", false
	}
	id, ok := val.(string)
	return id, ok && id != ""
}
