package model

import "time"

// Excess record statuses. Transitions are one-directional:
// PENDING → PARTIALLY_RETURNED → FULLY_RETURNED. BLOCKED records are
// opened for removals of blanket-banned items and drain the same way.
const (
	ExcessPending           = "PENDING"
	ExcessPartiallyReturned = "PARTIALLY_RETURNED"
	ExcessFullyReturned     = "FULLY_RETURNED"
	ExcessBlocked           = "BLOCKED"
)

// Excess is an open or settled over-limit withdrawal debt. Records are
// append-only: they are mutated only by the drain algorithm and never
// deleted.
type Excess struct {
	ID               int64      `json:"id"`
	Nickname         string     `json:"nickname"`
	ItemSlug         string     `json:"item_slug"`
	ExcessQuantity   int        `json:"excess_quantity"`
	ReturnedQuantity int        `json:"returned_quantity"`
	Status           string     `json:"status"`
	City             string     `json:"city,omitempty"`
	OpenedAt         time.Time  `json:"opened_at"`
	ClosedAt         *time.Time `json:"closed_at,omitempty"`
}

// Remaining returns the quantity still owed on the record.
func (e *Excess) Remaining() int {
	return e.ExcessQuantity - e.ReturnedQuantity
}
