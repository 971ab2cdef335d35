package engine

import "context"

type connectedKey struct{}

func withConnected(ctx context.Context, fn func()) context.Context {
	return context.WithValue(ctx, connectedKey{}, fn)
}

// Connected tells the relay that Stream has connected and subscribed. A
// transport calls it before waiting for the first envelope, so a quiet but
// healthy upstream still closes a half-open breaker. Calls outside a relay
// are no-ops.
func Connected(ctx context.Context) {
	if fn, ok := ctx.Value(connectedKey{}).(func()); ok {
		fn()
	}
}
