package agent

import "context"

type contextKey int

const (
	invocationIDKey contextKey = iota
)

func ContextWithInvocationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, invocationIDKey, id)
}

func InvocationIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(invocationIDKey).(string); ok {
		return v
	}
	return ""
}
