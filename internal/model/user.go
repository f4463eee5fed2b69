package model

import (
	"errors"
	"time"
)

// User represents an operator account for the admin API (separate from
// synchronized guild members).
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Operator roles.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:  2,
		RoleViewer: 1,
	}
	rl, ok := levels[role]
	ml, okMin := levels[minimum]
	if !ok || !okMin {
		return false
	}
	return rl >= ml
}

// ValidatePassword checks password requirements for operator accounts.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}
