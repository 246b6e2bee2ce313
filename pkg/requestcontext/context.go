// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Context keys and getter/setter functions live here so that services can
// read values set by middleware without importing net/http. Tests inject
// values with the With* helpers instead of running the middleware chain.
package requestcontext

import (
	"context"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	actorIDKey     struct{}
	actorEmailKey  struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	deviceKey      struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// ActorID retrieves the authenticated operator's identity ID from the context.
func ActorID(ctx context.Context) string {
	if actorID, ok := ctx.Value(actorIDKey{}).(string); ok {
		return actorID
	}
	return ""
}

// WithActorID injects an actor ID into the context.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorIDKey{}, actorID)
}

// ActorEmail retrieves the authenticated operator's email from the context.
func ActorEmail(ctx context.Context) string {
	if email, ok := ctx.Value(actorEmailKey{}).(string); ok {
		return email
	}
	return ""
}

// WithActorEmail injects an actor email into the context.
func WithActorEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, actorEmailKey{}, email)
}

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the raw User-Agent header from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey{}).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
// Useful for service unit tests that don't run the full middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	ctx = context.WithValue(ctx, userAgentKey{}, userAgent)
	return ctx
}

// Device retrieves the parsed device summary ("Chrome 120 on Linux x86_64")
// from the context. Empty when the User-Agent header was absent.
func Device(ctx context.Context) string {
	if device, ok := ctx.Value(deviceKey{}).(string); ok {
		return device
	}
	return ""
}

// WithDevice injects a device summary into the context.
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, deviceKey{}, device)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return requestID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context. Falls back to
// time.Now() for non-HTTP contexts such as workers and tests.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
