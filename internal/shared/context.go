package shared

import (
	"context"
	"strings"
)

// Caller is the staff identity supplied by the authentication layer. It is trusted as-is.
type Caller struct {
	StaffID     int64
	Role        string
	Permissions []string
}

// Can reports whether the caller holds perm. The admin role holds every permission.
func (c Caller) Can(perm string) bool {
	if strings.EqualFold(c.Role, RoleAdmin) {
		return true
	}
	for _, p := range c.Permissions {
		if strings.EqualFold(p, perm) {
			return true
		}
	}
	return false
}

// System is the identity used by background jobs and the seed command.
var System = Caller{StaffID: 0, Role: RoleAdmin}

type callerContextKey struct{}

// ContextWithCaller stores the caller in context.
func ContextWithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerContextKey{}, caller)
}

// CallerFromContext extracts the caller from context.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(callerContextKey{}).(Caller)
	return caller, ok
}
