package middleware

import (
	"net/http"

	"github.com/baharkarakas/checkin-backend/internal/api/httpx"
	"github.com/baharkarakas/checkin-backend/internal/models"
)

// RequireRoles allows only callers whose stored role is one of roles.
func RequireRoles(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := CallerFrom(r.Context())
			if c == nil {
				httpx.WriteError(w, http.StatusUnauthorized, "", "Unauthorized", nil)
				return
			}
			if !c.HasRole(roles...) {
				httpx.WriteError(w, http.StatusForbidden, "", "Forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
