package domain

import "context"

type contextKey string

const threadIDKey contextKey = "threadID"

// WithThreadID attaches the active thread id to ctx
func WithThreadID(ctx context.Context, threadID string) context.Context {
	return context.WithValue(ctx, threadIDKey, threadID)
}

// ThreadIDFromContext gets the active thread id from context
func ThreadIDFromContext(ctx context.Context) (string, bool) {
	threadID, ok := ctx.Value(threadIDKey).(string)
	return threadID, ok && threadID != ""
}
