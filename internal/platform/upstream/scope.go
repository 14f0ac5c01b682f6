package upstream

import (
	"context"
)

// Scope carries the caller's credentials and role through the request
// context. Admin callers see every record; employee callers are restricted
// to records they own.
type Scope struct {
	Token      string
	Role       string
	EmployeeID string
}

// IsAdmin reports whether the scope grants unrestricted access.
func (s Scope) IsAdmin() bool {
	return s.Role == "admin"
}

type scopeKey struct{}

// WithScope returns a context carrying the caller's scope.
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFrom extracts the caller's scope from the context.
func ScopeFrom(ctx context.Context) (Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(Scope)
	return s, ok
}
