package infrastructure

import "context"

type contextKey string

// RunIDContextKey is the context key carrying the ingest run ID.
const RunIDContextKey contextKey = "run_id"

// WithRunID returns a context tagged with the ingest run ID. Every log
// record emitted under it carries the ID.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDContextKey, runID)
}

// GetRunID returns the run ID from the context, or "".
func GetRunID(ctx context.Context) string {
	if v, ok := ctx.Value(RunIDContextKey).(string); ok {
		return v
	}
	return ""
}
