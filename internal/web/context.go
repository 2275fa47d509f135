package web

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/JonMunkholm/provtab/internal/core"
)

// ActorHeader names the operator behind a request, for logging.
const ActorHeader = "X-Actor"

// WithRequestMetadata adds the client IP and actor to ctx.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, clientIP(r))
	if actor := strings.TrimSpace(r.Header.Get(ActorHeader)); actor != "" {
		ctx = core.ContextWithActor(ctx, actor)
	}
	return ctx
}

// clientIP returns the host part of RemoteAddr, already rewritten by
// TrustedRealIP for requests from trusted proxies.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
