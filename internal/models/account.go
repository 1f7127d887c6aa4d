package models

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser     Role = "user"
	RoleSecurity Role = "security"
	RoleOverseer Role = "overseer"
	RoleAdmin    Role = "admin"
)

var Roles = []Role{RoleUser, RoleSecurity, RoleOverseer, RoleAdmin}

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Roles {
		if r == known {
			return r, true
		}
	}
	return "", false
}

// StaffRoles may open the scan screens.
var StaffRoles = []Role{RoleAdmin, RoleOverseer, RoleSecurity}

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

type Account struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Image          *string        `json:"image"`
	Role           Role           `json:"role"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	PasswordHash   *string        `json:"-"`
	ApprovedBy     *int64         `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time     `json:"approved_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (a Account) Approved() bool { return a.ApprovalStatus == ApprovalApproved }

// Contact is the name/email pair copied into audit entries.
type Contact struct {
	Name  string
	Email string
}

type Diet string

const (
	DietVeg    Diet = "veg"
	DietNonVeg Diet = "nonveg"
)

type Profile struct {
	ID           string    `json:"id"`
	AccountID    int64     `json:"user_id"`
	BagsChecked  bool      `json:"bags_checked"`
	Attendance   bool      `json:"attendance"`
	ReceivedFood bool      `json:"received_food"`
	Diet         Diet      `json:"diet"`
	Allergens    *string   `json:"allergens"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
