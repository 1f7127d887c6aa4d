package services

import (
	"crypto/subtle"

	"github.com/baharkarakas/checkin-backend/internal/models"
)

// Caller is the authenticated principal behind a request, as re-read from
// storage. Role is the stored role; debug overrides never reach this type.
type Caller struct {
	AccountID *int64
	Identity  string
	Name      string
	Email     string
	Role      models.Role
	IP        string
	UserAgent string
}

func (c *Caller) HasRole(roles ...models.Role) bool {
	if c == nil {
		return false
	}
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}

// EmergencyAdmin is the single process-configured break-glass identity.
// It is matched by identity string, never by role.
type EmergencyAdmin string

func (e EmergencyAdmin) Matches(c *Caller) bool {
	if e == "" || c == nil || c.Identity == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(e), []byte(c.Identity)) == 1
}

func (e EmergencyAdmin) AdminOrEmergency(c *Caller) bool {
	return c.HasRole(models.RoleAdmin) || e.Matches(c)
}
