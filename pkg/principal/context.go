package principal

import "context"

type ctxKey struct{}

// WithContext returns a copy of ctx carrying the principal.
func WithContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext extracts the principal from ctx.
// The second return value is false when no principal is present or the
// stored value is zero.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	if !ok || p.IsZero() {
		return Principal{}, false
	}
	return p, true
}
