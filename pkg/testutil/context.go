package testutil

import (
	"context"
	"net/http"
	"time"

	id "watsonmark/pkg/domain"
	"watsonmark/pkg/requestcontext"
)

// CallerContext builds a context carrying an authenticated identity, the way
// the identity middleware would for a real request.
func CallerContext(identity id.Identity) context.Context {
	return requestcontext.WithIdentity(context.Background(), identity)
}

// CallerContextAt builds a context carrying an identity and a fixed clock.
// Deadline behavior is tested by advancing this instant, never by sleeping.
func CallerContextAt(identity id.Identity, at time.Time) context.Context {
	return requestcontext.WithTime(CallerContext(identity), at)
}

// WithIdentity adds a caller identity header to the request, simulating the
// upstream authentication gateway.
func WithIdentity(req *http.Request, identity string) *http.Request {
	req.Header.Set("X-Identity", identity)
	return req
}

// WithClock pins the request-scoped clock on the request context.
func WithClock(req *http.Request, at time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), at))
}
