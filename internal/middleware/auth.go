// internal/middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/baharkarakas/checkin-backend/internal/api/httpx"
	"github.com/baharkarakas/checkin-backend/internal/services"
)

const SessionCookie = "session_token"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*services.Caller, error)
}

type AuthMiddleware struct {
	Sessions Authenticator
}

func NewAuthMiddleware(s Authenticator) *AuthMiddleware {
	return &AuthMiddleware{Sessions: s}
}

// Session attaches the caller when the request carries a valid session and
// passes anonymous requests through unchanged. Handlers and the guard decide
// what anonymous callers get.
func (m *AuthMiddleware) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		c, err := m.Sessions.Authenticate(r.Context(), token)
		if err != nil {
			if !errors.Is(err, services.ErrUnauthorized) {
				slog.ErrorContext(r.Context(), "session lookup failed", "err", err)
			}
			next.ServeHTTP(w, r)
			return
		}
		c.IP = ForwardedIP(r)
		c.UserAgent = r.UserAgent()
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), c)))
	})
}

// RequireCaller rejects anonymous requests with 401.
func RequireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CallerFrom(r.Context()) == nil {
			httpx.WriteError(w, http.StatusUnauthorized, "", "Unauthorized", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sessionToken(r *http.Request) string {
	if ck, err := r.Cookie(SessionCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	ah := r.Header.Get("Authorization")
	if len(ah) > 7 && strings.EqualFold(ah[:7], "bearer ") {
		return strings.TrimSpace(ah[7:])
	}
	return ""
}
