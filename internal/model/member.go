package model

import "time"

// Member is a synchronized directory entry for a platform guild member.
// Populated by the sync job; read-only for the rest of the system.
type Member struct {
	ID             int64      `json:"id"`
	UserID         string     `json:"user_id"`
	Nickname       string     `json:"nickname"`
	Rank           string     `json:"rank,omitempty"`
	JoinedServerAt *time.Time `json:"joined_server_at,omitempty"`
	LastOnDutyAt   *time.Time `json:"last_on_duty_at,omitempty"`
	Active         bool       `json:"active"`
	LastSyncAt     *time.Time `json:"last_sync_at,omitempty"`
}
