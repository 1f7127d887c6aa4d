// Package policy decides, for every page request, whether it is served or
// redirected. Decisions are based on the caller's stored role only.
package policy

import (
	"net/http"
	"strings"

	"github.com/baharkarakas/checkin-backend/internal/models"
	"github.com/baharkarakas/checkin-backend/internal/services"
)

const (
	SignInPath = "/auth/signin"
	HomePath   = "/"
)

type Action int

const (
	Allow Action = iota
	RedirectHTTPS
	RedirectToSignIn
	RedirectHome
)

type Decision struct {
	Action Action
	// Location is set for every redirect.
	Location string
}

func (d Decision) Status() int {
	switch d.Action {
	case RedirectHTTPS:
		return http.StatusMovedPermanently
	case RedirectToSignIn, RedirectHome:
		return http.StatusFound
	}
	return http.StatusOK
}

type access int

const (
	accessSession access = iota
	accessRoles
	accessAdminOrEmergency
	accessEmergencyOnly
)

type rule struct {
	prefix string
	access access
	roles  []models.Role
}

var (
	public = []string{SignInPath, "/static", "/favicon.ico", "/wesmun.svg", "/api", "/health", "/metrics"}

	protected = []rule{
		{prefix: "/admin", access: accessAdminOrEmergency},
		{prefix: "/users", access: accessRoles, roles: []models.Role{models.RoleAdmin}},
		{prefix: "/audit", access: accessEmergencyOnly},
		{prefix: "/scan", access: accessRoles, roles: models.StaffRoles},
	}
)

type Evaluator struct {
	Production bool
	Emergency  services.EmergencyAdmin
}

// Evaluate applies the guard rules in order: transport, public paths,
// session presence, then role requirements.
func (e Evaluator) Evaluate(r *http.Request, caller *services.Caller) Decision {
	if e.Production && !isSecure(r) {
		return Decision{Action: RedirectHTTPS, Location: httpsURL(r)}
	}
	path := r.URL.Path
	for _, p := range public {
		if hasPrefix(path, p) {
			return Decision{Action: Allow}
		}
	}
	for _, rl := range protected {
		if !hasPrefix(path, rl.prefix) {
			continue
		}
		if caller == nil {
			return Decision{Action: RedirectToSignIn, Location: SignInPath}
		}
		if !e.permits(rl, caller) {
			return Decision{Action: RedirectHome, Location: HomePath}
		}
		return Decision{Action: Allow}
	}
	return Decision{Action: Allow}
}

func (e Evaluator) permits(rl rule, c *services.Caller) bool {
	switch rl.access {
	case accessRoles:
		return c.HasRole(rl.roles...)
	case accessAdminOrEmergency:
		return e.Emergency.AdminOrEmergency(c)
	case accessEmergencyOnly:
		return e.Emergency.Matches(c)
	}
	return true
}

// EffectiveRole is the role the UI should render. The override only applies
// to the emergency admin and is never consulted for authorization.
func EffectiveRole(c *services.Caller, override string, emergency services.EmergencyAdmin) models.Role {
	if c == nil {
		return ""
	}
	if emergency.Matches(c) {
		if r, ok := models.ParseRole(override); ok {
			return r
		}
	}
	return c.Role
}

func isSecure(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// httpsURL keeps the request's own Host. Forwarded host headers are client
// controlled and would turn a cached 301 into an open redirect.
func httpsURL(r *http.Request) string {
	return "https://" + r.Host + r.URL.RequestURI()
}

// hasPrefix is a plain string prefix match, so "/administration" is guarded
// like "/admin".
func hasPrefix(path, prefix string) bool { return strings.HasPrefix(path, prefix) }
