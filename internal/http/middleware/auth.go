package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/captura3d/portal-api/internal/directory"
	"github.com/captura3d/portal-api/internal/gateway"
	"github.com/captura3d/portal-api/internal/role"
)

type contextKey string

const contextKeyUser contextKey = "user"

// Auth validates the bearer token through the gateway and injects the
// re-resolved user into the context. A 401 here means the session is gone;
// clients clear it and redirect to login.
func Auth(gw *gateway.Gateway) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, string(gateway.CodeInvalidToken), "missing bearer token")
				return
			}

			user, err := gw.CurrentUser(r.Context(), parts[1])
			if err != nil {
				if e, ok := gateway.AsError(err); ok {
					writeError(w, e.Status, string(e.Code), e.Message)
					return
				}
				writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser recovers the authenticated user from the context.
func GetUser(ctx context.Context) *directory.User {
	val, _ := ctx.Value(contextKeyUser).(*directory.User)
	return val
}

// RequirePermission gates a route on one action within the caller's own org.
// A failure here is a 403: the caller stays authenticated, the UI shows an
// access-denied state without destroying the session.
func RequirePermission(action role.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			if user == nil {
				writeError(w, http.StatusUnauthorized, string(gateway.CodeInvalidToken), "missing bearer token")
				return
			}

			res := role.Resource{OrgID: user.Role.OrgID}
			if !role.HasPermission(user.Role, action, res) {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "missing permission "+string(action))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
