package core

import "context"

type contextKey string

const (
	ctxKeyActor     contextKey = "edit_actor"
	ctxKeyIPAddress contextKey = "edit_ip"
)

// ContextWithActor records who triggered an edit pass, for logging.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ctxKeyActor, actor)
}

// ContextWithIPAddress adds the client IP address to ctx.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// ActorFromContext extracts the actor, or "" when none was set.
func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyActor).(string); ok {
		return v
	}
	return ""
}

// IPAddressFromContext extracts the client IP address.
func IPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}
