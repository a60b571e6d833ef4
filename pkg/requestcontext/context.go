// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them; services and stores read them
// without importing net/http.
//
//	caller, ok := requestcontext.Caller(ctx)
//	requestID := requestcontext.RequestID(ctx)
package requestcontext

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type (
	callerKey    struct{}
	requestIDKey struct{}
	timeKey      struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyCaller    = callerKey{}
	ContextKeyRequestID = requestIDKey{}
	ContextKeyTime      = timeKey{}
)

// WithCaller records the authenticated caller identity.
func WithCaller(ctx context.Context, caller common.Address) context.Context {
	return context.WithValue(ctx, ContextKeyCaller, caller)
}

// Caller returns the authenticated caller identity, if any.
func Caller(ctx context.Context) (common.Address, bool) {
	caller, ok := ctx.Value(ContextKeyCaller).(common.Address)
	return caller, ok
}

// WithRequestID records the correlation id for the current request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestID returns the correlation id, or "" when unset.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// WithTime pins the request-scoped "now" so every notification raised by
// one request carries the same timestamp.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyTime, t)
}

// Time returns the request-scoped time, if set.
func Time(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(ContextKeyTime).(time.Time)
	return t, ok
}

// Now returns the request-scoped time, or the wall clock when unset.
func Now(ctx context.Context) time.Time {
	if t, ok := Time(ctx); ok {
		return t
	}
	return time.Now()
}
