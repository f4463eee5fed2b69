// Package medals computes service-time medal eligibility for directory
// members and awards medals with their bonuses.
package medals

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bauwatch/internal/model"
	"bauwatch/internal/store"
)

// serviceMonth is the accounting month used for service time.
const serviceMonth = 30 * 24 * time.Hour

// Tier is one service-time medal tier.
type Tier struct {
	Type   string
	Months int
	Bonus  int
}

// Tiers lists the service-time tiers in ascending order.
var Tiers = []Tier{
	{Type: model.MedalTempoServicoI, Months: 1, Bonus: 500},
	{Type: model.MedalTempoServicoII, Months: 2, Bonus: 1000},
	{Type: model.MedalTempoServicoIII, Months: 3, Bonus: 1500},
}

// TierByType returns the tier for a medal type.
func TierByType(medalType string) (Tier, bool) {
	for _, t := range Tiers {
		if t.Type == medalType {
			return t, true
		}
	}
	return Tier{}, false
}

// ServiceMonths returns a member's completed service months at now, using
// 30-day months. Members without a known join date have zero service time.
func ServiceMonths(m *model.Member, now time.Time) int {
	if m.JoinedServerAt == nil {
		return 0
	}
	elapsed := now.Sub(*m.JoinedServerAt)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / serviceMonth)
}

// ReportEntry is one member's standing in the eligibility report.
type ReportEntry struct {
	UserID        string   `json:"user_id"`
	Nickname      string   `json:"nickname"`
	Rank          string   `json:"rank,omitempty"`
	ServiceMonths int      `json:"service_months"`
	Held          []string `json:"held"`
	Eligible      []string `json:"eligible"`
}

// Service computes eligibility and awards medals.
type Service struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a medal service.
func New(db *sql.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Report lists every active member with a known join date, the medals they
// hold and the tiers their service time qualifies them for but they do not
// hold yet. Members with nothing pending still appear, so the report doubles
// as a roster.
func (s *Service) Report(ctx context.Context) ([]ReportEntry, error) {
	members, err := store.ListActiveMembers(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("listing members for report: %w", err)
	}

	now := s.now()
	entries := make([]ReportEntry, 0, len(members))
	for _, m := range members {
		held, err := store.ListMedalsByUser(ctx, s.db, m.UserID)
		if err != nil {
			return nil, fmt.Errorf("listing medals for %s: %w", m.UserID, err)
		}

		heldTypes := make(map[string]bool, len(held))
		entry := ReportEntry{
			UserID:        m.UserID,
			Nickname:      m.Nickname,
			Rank:          m.Rank,
			ServiceMonths: ServiceMonths(&m, now),
		}
		for _, medal := range held {
			if !heldTypes[medal.Type] {
				heldTypes[medal.Type] = true
				entry.Held = append(entry.Held, medal.Type)
			}
		}
		for _, t := range Tiers {
			if entry.ServiceMonths >= t.Months && !heldTypes[t.Type] {
				entry.Eligible = append(entry.Eligible, t.Type)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Award grants a medal to a member. The bonus amount comes from the tier
// table; callers cannot override it. Awarding does not require eligibility,
// so command staff can decorate at their discretion.
func (s *Service) Award(ctx context.Context, userID, medalType, awardedBy string) (*model.Medal, error) {
	tier, ok := TierByType(medalType)
	if !ok {
		return nil, fmt.Errorf("unknown medal type %q", medalType)
	}

	member, err := store.GetMemberByUserID(ctx, s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("resolving medal recipient: %w", err)
	}
	if member == nil {
		return nil, fmt.Errorf("member %s not found", userID)
	}

	medal, err := store.CreateMedal(ctx, s.db, userID, medalType, tier.Bonus, awardedBy)
	if err != nil {
		return nil, fmt.Errorf("awarding medal: %w", err)
	}
	return medal, nil
}

// Stats returns totals over all awarded medals.
func (s *Service) Stats(ctx context.Context) (*store.MedalStats, error) {
	return store.GetMedalStats(ctx, s.db)
}
