package auth

import (
	"context"
	"slices"
)

// Identity is the authenticated principal for one call: login plus granted
// authorities. It is written once by the gate when the call starts and is
// read-only thereafter; it never outlives the call and is never stored in
// process-wide state.
type Identity struct {
	Login       string
	Authorities []string
}

// HasAuthority reports whether the identity holds the named authority.
func (id Identity) HasAuthority(name string) bool {
	return slices.Contains(id.Authorities, name)
}

// identityKey is the context key for the call-scoped identity.
type identityKey struct{}

// WithIdentity returns a child context carrying the authenticated identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext extracts the call-scoped identity, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
