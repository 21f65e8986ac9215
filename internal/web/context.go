package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/rowstore/internal/core"
)

// WithRequestMetadata records the HTTP caller on ctx for audit entries.
// RemoteAddr has already been resolved by TrustedRealIP.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.WithCaller(ctx, core.Caller{
		Source:    "http",
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
		RequestID: middleware.GetReqID(r.Context()),
	})
}
