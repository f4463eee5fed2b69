package medals

import (
	"context"
	"testing"
	"time"

	"bauwatch/internal/db"
	"bauwatch/internal/model"
	"bauwatch/internal/store"
)

func TestServiceMonths(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	joined := func(daysAgo int) *time.Time {
		t := now.Add(-time.Duration(daysAgo) * 24 * time.Hour)
		return &t
	}

	tests := []struct {
		name   string
		member model.Member
		want   int
	}{
		{"no join date", model.Member{}, 0},
		{"29 days", model.Member{JoinedServerAt: joined(29)}, 0},
		{"30 days", model.Member{JoinedServerAt: joined(30)}, 1},
		{"89 days", model.Member{JoinedServerAt: joined(89)}, 2},
		{"90 days", model.Member{JoinedServerAt: joined(90)}, 3},
		{"one year", model.Member{JoinedServerAt: joined(365)}, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ServiceMonths(&tt.member, now); got != tt.want {
				t.Errorf("ServiceMonths = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTierByType(t *testing.T) {
	tier, ok := TierByType(model.MedalTempoServicoII)
	if !ok || tier.Months != 2 || tier.Bonus != 1000 {
		t.Errorf("unexpected tier: %+v ok=%v", tier, ok)
	}
	if _, ok := TierByType("MEDALHA_FALSA"); ok {
		t.Error("unknown type must not resolve")
	}
}

func TestReportEligibility(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	s := New(database)
	s.now = func() time.Time { return now }

	veteran := now.Add(-100 * 24 * time.Hour)
	rookie := now.Add(-10 * 24 * time.Hour)
	store.UpsertMember(ctx, database, &model.Member{UserID: "100", Nickname: "John Marston", Rank: "Sheriff", JoinedServerAt: &veteran})
	store.UpsertMember(ctx, database, &model.Member{UserID: "101", Nickname: "Arthur Morgan", JoinedServerAt: &rookie})

	// The veteran already holds tier I.
	if _, err := store.CreateMedal(ctx, database, "100", model.MedalTempoServicoI, 500, "admin"); err != nil {
		t.Fatal(err)
	}

	entries, err := s.Report(ctx)
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	byUser := map[string]ReportEntry{}
	for _, e := range entries {
		byUser[e.UserID] = e
	}

	vet := byUser["100"]
	if vet.ServiceMonths != 3 {
		t.Errorf("veteran months = %d, want 3", vet.ServiceMonths)
	}
	if len(vet.Held) != 1 || vet.Held[0] != model.MedalTempoServicoI {
		t.Errorf("veteran held = %v", vet.Held)
	}
	if len(vet.Eligible) != 2 {
		t.Errorf("veteran should be eligible for tiers II and III, got %v", vet.Eligible)
	}

	rk := byUser["101"]
	if rk.ServiceMonths != 0 || len(rk.Eligible) != 0 {
		t.Errorf("rookie should have nothing pending, got %+v", rk)
	}
}

func TestAward(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	s := New(database)

	store.UpsertMember(ctx, database, &model.Member{UserID: "100", Nickname: "John Marston"})

	medal, err := s.Award(ctx, "100", model.MedalTempoServicoIII, "admin")
	if err != nil {
		t.Fatalf("Award: %v", err)
	}
	if medal.BonusAmount != 1500 {
		t.Errorf("expected tier III bonus 1500, got %d", medal.BonusAmount)
	}

	if _, err := s.Award(ctx, "100", "MEDALHA_FALSA", "admin"); err == nil {
		t.Error("expected error for unknown medal type")
	}
	if _, err := s.Award(ctx, "999", model.MedalTempoServicoI, "admin"); err == nil {
		t.Error("expected error for unknown member")
	}
}
