package models

import (
	"encoding/json"
	"time"
)

type Action string

const (
	ActionBadgeScan              Action = "badge_scan"
	ActionBadgeLinkCreate        Action = "badge_link_create"
	ActionProfileUpdate          Action = "profile_update"
	ActionProfileUpdateAdmin     Action = "profile_update_admin"
	ActionProfileUpdateAdminBulk Action = "profile_update_admin_bulk"
	ActionRoleUpdate             Action = "role_update"
	ActionAccountDelete          Action = "account_delete"
	ActionCreateDataOnlyAccount  Action = "create_data_only_account"
	ActionAccountLogin           Action = "account_login"
	ActionEmergencyLogin         Action = "emergency_login"
	ActionAccountApproved        Action = "account_approved"
	ActionAccountRejected        Action = "account_rejected"

	// ActionUnknown stands in for stored action strings this build does not know.
	ActionUnknown Action = "unknown"
)

type ActionStyle struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

var actionCatalog = map[Action]ActionStyle{
	ActionBadgeScan:              {Label: "NFC Scan", Color: "bg-blue-500"},
	ActionBadgeLinkCreate:        {Label: "NFC Link Created", Color: "bg-teal-600"},
	ActionProfileUpdate:          {Label: "Profile Update", Color: "bg-green-600"},
	ActionProfileUpdateAdmin:     {Label: "Admin Profile Update", Color: "bg-orange-600"},
	ActionProfileUpdateAdminBulk: {Label: "Bulk Admin Profile Update", Color: "bg-orange-700"},
	ActionRoleUpdate:             {Label: "Role Change", Color: "bg-purple-600"},
	ActionAccountDelete:          {Label: "User Deleted", Color: "bg-red-600"},
	ActionCreateDataOnlyAccount:  {Label: "Data-only User Created", Color: "bg-cyan-600"},
	ActionAccountLogin:           {Label: "User Login", Color: "bg-green-500"},
	ActionEmergencyLogin:         {Label: "Emergency Admin Login", Color: "bg-amber-500"},
	ActionAccountApproved:        {Label: "User Approved", Color: "bg-green-700"},
	ActionAccountRejected:        {Label: "User Rejected", Color: "bg-red-700"},
}

var unknownStyle = ActionStyle{Label: "Unknown Action", Color: "bg-gray-500"}

// ParseAction maps a stored action string onto the catalog, falling back to ActionUnknown.
func ParseAction(s string) Action {
	a := Action(s)
	if _, ok := actionCatalog[a]; ok {
		return a
	}
	return ActionUnknown
}

func (a Action) Known() bool {
	_, ok := actionCatalog[a]
	return ok
}

func (a Action) Style() ActionStyle {
	if s, ok := actionCatalog[a]; ok {
		return s
	}
	return unknownStyle
}

// AuditLog is immutable once written. The actor/target name and email columns
// are snapshots taken at write time and are never refreshed from accounts.
type AuditLog struct {
	ID              int64           `json:"id"`
	ActorAccountID  *int64          `json:"actor_id"`
	TargetAccountID *int64          `json:"target_user_id"`
	Action          Action          `json:"action"`
	RawAction       string          `json:"raw_action,omitempty"`
	Details         json.RawMessage `json:"details"`
	IPAddress       *string         `json:"ip_address"`
	UserAgent       *string         `json:"user_agent"`
	ActorName       *string         `json:"actor_name"`
	ActorEmail      *string         `json:"actor_email"`
	TargetName      *string         `json:"target_user_name"`
	TargetEmail     *string         `json:"target_user_email"`
	CreatedAt       time.Time       `json:"created_at"`
}
