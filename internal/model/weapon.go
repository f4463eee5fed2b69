package model

import "time"

// Weapon debt statuses. Settlement is binary: a debt is either OWED in
// full or RETURNED in full, there is no partial state.
const (
	WeaponOwed     = "OWED"
	WeaponReturned = "RETURNED"
)

// WeaponDebt records an unauthorized weapon withdrawal. Opened when a
// weapon-category item is removed by a user whose rank is not on the
// authorized list; closed atomically by a later addition of the same item
// by the same user.
type WeaponDebt struct {
	ID              int64      `json:"id"`
	Nickname        string     `json:"nickname"`
	ItemSlug        string     `json:"item_slug"`
	Quantity        int        `json:"quantity"`
	RankAtViolation string     `json:"rank_at_violation"`
	City            string     `json:"city,omitempty"`
	OpenedAt        time.Time  `json:"opened_at"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	Status          string     `json:"status"`
}
