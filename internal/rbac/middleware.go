package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/hairline-erp/hairline/internal/platform/httpx"
	"github.com/hairline-erp/hairline/internal/shared"
)

// StaffHeader carries the staff id asserted by the upstream authentication layer.
const StaffHeader = "X-Staff-ID"

// Directory resolves a staff id into a caller identity.
type Directory interface {
	Caller(ctx context.Context, staffID int64) (shared.Caller, error)
}

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Directory Directory
	Logger    *slog.Logger
}

// Identify resolves the caller from StaffHeader and stores it in the request context.
// Requests without a resolvable staff id are rejected.
func (m Middleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(StaffHeader))
		id, err := strconv.ParseInt(raw, 10, 64)
		if raw == "" || err != nil || id <= 0 {
			httpx.RespondError(w, shared.ErrUnauthorized)
			return
		}
		caller, err := m.Directory.Caller(r.Context(), id)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("rbac identify", slog.Int64("staff_id", id), slog.Any("error", err))
			}
			httpx.RespondError(w, shared.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithCaller(r.Context(), caller)))
	})
}

// RequireAny ensures the current caller has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(normalized) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			caller, ok := shared.CallerFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, shared.ErrUnauthorized)
				return
			}
			for _, p := range normalized {
				if caller.Can(p) {
					next.ServeHTTP(w, r)
					return
				}
			}
			m.deny(w, caller, normalized)
		})
	}
}

// RequireAll ensures the current caller has all required permissions.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := shared.CallerFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, shared.ErrUnauthorized)
				return
			}
			for _, p := range normalized {
				if !caller.Can(p) {
					m.deny(w, caller, normalized)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter, caller shared.Caller, required []string) {
	if m.Logger != nil {
		m.Logger.Info("rbac denied", slog.Int64("staff_id", caller.StaffID), slog.Any("required", required))
	}
	httpx.RespondError(w, shared.ErrForbidden)
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	normalized := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		if _, dup := unique[p]; dup {
			continue
		}
		unique[p] = struct{}{}
		normalized = append(normalized, p)
	}
	return normalized
}
