package session

import "context"

type ctxKey struct{}

// WithData stores d on ctx.
func WithData(ctx context.Context, d Data) context.Context {
	return context.WithValue(ctx, ctxKey{}, d)
}

// FromContext returns the session stored by WithData, or Empty.
func FromContext(ctx context.Context) Data {
	if d, ok := ctx.Value(ctxKey{}).(Data); ok {
		return d
	}
	return Empty()
}
