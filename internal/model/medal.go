package model

import "time"

// Medal types, in ascending service-time order.
const (
	MedalTempoServicoI   = "TEMPO_SERVICO_I"
	MedalTempoServicoII  = "TEMPO_SERVICO_II"
	MedalTempoServicoIII = "TEMPO_SERVICO_III"
)

// Medal is an awarded service medal. Duplicate awards are allowed.
type Medal struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"`
	BonusAmount int       `json:"bonus_amount"`
	AwardedBy   string    `json:"awarded_by"`
	AwardedAt   time.Time `json:"awarded_at"`
}

// OnDutyLog records a service-shift start observed for a member.
type OnDutyLog struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	ActionType string    `json:"action_type"`
	Timestamp  time.Time `json:"timestamp"`
}
