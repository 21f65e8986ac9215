package core

import "context"

type callerKey struct{}

// Caller describes who issued a request. It travels on the context so audit
// entries can name the client without the engine knowing about transports.
type Caller struct {
	Source    string // "http" or "cli"
	IPAddress string
	UserAgent string
	RequestID string
}

// WithCaller attaches c to ctx.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the Caller stored by WithCaller, or the zero value.
func CallerFrom(ctx context.Context) Caller {
	c, _ := ctx.Value(callerKey{}).(Caller)
	return c
}
