package model

// Item categories.
const (
	CategoryNormal = "normal"
	CategoryWeapon = "weapon"
)

// ItemPolicy is the withdrawal policy for a tracked item. Immutable
// reference data owned by the catalog.
type ItemPolicy struct {
	Slug string `json:"slug"`

	// DailyLimit is the maximum quantity a single user may withdraw per
	// day. Nil means unlimited.
	DailyLimit *int `json:"daily_limit,omitempty"`

	// Blocked items may not be withdrawn at all; any removal opens a
	// BLOCKED excess record for the full quantity.
	Blocked bool `json:"blocked,omitempty"`

	Category string `json:"category"`
}
