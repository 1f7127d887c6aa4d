package models

import "time"

// Badge is the 1:1 link between an account and the token printed on its badge.
type Badge struct {
	ID            string     `json:"id"`
	AccountID     int64      `json:"user_id"`
	Token         string     `json:"uuid"`
	CreatedAt     time.Time  `json:"created_at"`
	LastScannedAt *time.Time `json:"last_scanned_at"`
	ScanCount     int64      `json:"scan_count"`
}

// BadgeHolder is a badge joined with its owner, as read by the resolver.
type BadgeHolder struct {
	Badge   Badge
	Account Account
	Profile *Profile
}
