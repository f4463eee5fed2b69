package model

import "time"

// Movement actions.
const (
	ActionRemoved = "removed"
	ActionAdded   = "added"
)

// Movement represents a single chest item movement parsed from a log
// message. Every parsed movement is persisted before any policy check runs.
type Movement struct {
	ID         int64     `json:"id"`
	Nickname   string    `json:"nickname"`
	Fixo       string    `json:"fixo,omitempty"`
	ItemSlug   string    `json:"item_slug"`
	RawItem    string    `json:"raw_item"`
	Quantity   int       `json:"quantity"`
	Action     string    `json:"action"`
	City       string    `json:"city"`
	OccurredAt time.Time `json:"occurred_at"`

	// TimeFallback marks that the log message's timestamp could not be
	// parsed and OccurredAt is the processing time instead.
	TimeFallback bool `json:"time_fallback,omitempty"`
}
