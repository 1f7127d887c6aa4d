package middleware

import (
	"net/http"

	"github.com/baharkarakas/checkin-backend/internal/api/httpx"
	"github.com/baharkarakas/checkin-backend/internal/services"
)

// RequireEmergency allows only the configured emergency admin. With
// orAdmin set, callers whose stored role is admin pass too.
func RequireEmergency(e services.EmergencyAdmin, orAdmin bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := CallerFrom(r.Context())
			if c == nil {
				httpx.WriteError(w, http.StatusUnauthorized, "", "Unauthorized", nil)
				return
			}
			ok := e.Matches(c)
			if orAdmin {
				ok = e.AdminOrEmergency(c)
			}
			if !ok {
				httpx.WriteError(w, http.StatusForbidden, "", "Forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
