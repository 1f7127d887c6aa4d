// internal/api/handlers/auth.go
package handlers

import (
	"net/http"
	"time"

	"github.com/baharkarakas/checkin-backend/internal/api/httpx"
	"github.com/baharkarakas/checkin-backend/internal/api/validate"
	"github.com/baharkarakas/checkin-backend/internal/middleware"
	"github.com/baharkarakas/checkin-backend/internal/models"
	"github.com/baharkarakas/checkin-backend/internal/policy"
	"github.com/baharkarakas/checkin-backend/internal/services"
)

const DebugRoleCookie = "debug_role"

type AuthHandler struct {
	Sessions     *services.SessionService
	Emergency    services.EmergencyAdmin
	SecureCookie bool
}

func NewAuthHandler(s *services.SessionService, emergency services.EmergencyAdmin, secure bool) *AuthHandler {
	return &AuthHandler{Sessions: s, Emergency: emergency, SecureCookie: secure}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionUser struct {
	ID    *int64      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

type loginResp struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      sessionUser `json:"user"`
}

func userOf(c *services.Caller) sessionUser {
	return sessionUser{ID: c.AccountID, Name: c.Name, Email: c.Email, Role: c.Role}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "Invalid request body", nil)
		return
	}
	if err := validate.Collect(
		validate.Required("email", req.Email),
		validate.Email("email", req.Email, string(h.Emergency)),
		validate.Required("password", req.Password),
	); err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	s, err := h.Sessions.Login(r.Context(), services.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IP:        middleware.ForwardedIP(r),
		ClientIP:  middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.WriteJSON(w, http.StatusOK, loginResp{Token: s.Token, ExpiresAt: s.ExpiresAt, User: userOf(s.Caller)})
}

// Logout handles POST /api/auth/logout. It always succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, middleware.SessionCookie, true)
	h.clearCookie(w, DebugRoleCookie, false)
	w.WriteHeader(http.StatusNoContent)
}

type whoAmIResp struct {
	User             sessionUser `json:"user"`
	Role             models.Role `json:"role"`
	EffectiveRole    models.Role `json:"effective_role"`
	DebugActive      bool        `json:"debug_active"`
	IsEmergencyAdmin bool        `json:"is_emergency_admin"`
}

// WhoAmI handles GET /api/session. effective_role is for rendering only.
func (h *AuthHandler) WhoAmI(w http.ResponseWriter, r *http.Request) {
	c := middleware.CallerFrom(r.Context())
	if c == nil {
		httpx.WriteError(w, http.StatusUnauthorized, "", "Unauthorized", nil)
		return
	}
	var override string
	if ck, err := r.Cookie(DebugRoleCookie); err == nil {
		override = ck.Value
	}
	eff := policy.EffectiveRole(c, override, h.Emergency)
	httpx.WriteJSON(w, http.StatusOK, whoAmIResp{
		User:             userOf(c),
		Role:             c.Role,
		EffectiveRole:    eff,
		DebugActive:      eff != c.Role,
		IsEmergencyAdmin: h.Emergency.Matches(c),
	})
}

type debugRoleReq struct {
	Role string `json:"role"`
}

// SetDebugRole handles PUT /api/session/debug-role. The cookie has no expiry
// so it ends with the browser session.
func (h *AuthHandler) SetDebugRole(w http.ResponseWriter, r *http.Request) {
	var req debugRoleReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "Invalid request body", nil)
		return
	}
	role, ok := models.ParseRole(req.Role)
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "", "Invalid role", nil)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     DebugRoleCookie,
		Value:    string(role),
		Path:     "/",
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"effective_role": role, "debug_active": true})
}

// ClearDebugRole handles DELETE /api/session/debug-role.
func (h *AuthHandler) ClearDebugRole(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w, DebugRoleCookie, false)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name string, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: httpOnly,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
