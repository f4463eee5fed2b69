package store

import (
	"context"
	"testing"

	"bauwatch/internal/db"
	"bauwatch/internal/model"
)

func TestCreateAndListMedals(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	UpsertMember(ctx, database, &model.Member{UserID: "100", Nickname: "John Marston"})

	medal, err := CreateMedal(ctx, database, "100", model.MedalTempoServicoI, 500, "admin")
	if err != nil {
		t.Fatalf("CreateMedal: %v", err)
	}
	if medal.BonusAmount != 500 || medal.AwardedBy != "admin" {
		t.Errorf("unexpected medal: %+v", medal)
	}

	// Duplicates are allowed.
	if _, err := CreateMedal(ctx, database, "100", model.MedalTempoServicoI, 500, "admin"); err != nil {
		t.Fatalf("duplicate CreateMedal: %v", err)
	}

	medals, err := ListMedalsByUser(ctx, database, "100")
	if err != nil {
		t.Fatalf("ListMedalsByUser: %v", err)
	}
	if len(medals) != 2 {
		t.Errorf("expected 2 medals, got %d", len(medals))
	}

	none, _ := ListMedalsByUser(ctx, database, "999")
	if len(none) != 0 {
		t.Errorf("expected no medals, got %d", len(none))
	}
}

func TestGetMedalStats(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	UpsertMember(ctx, database, &model.Member{UserID: "100", Nickname: "John Marston"})
	UpsertMember(ctx, database, &model.Member{UserID: "101", Nickname: "Arthur Morgan"})

	CreateMedal(ctx, database, "100", model.MedalTempoServicoI, 500, "admin")
	CreateMedal(ctx, database, "101", model.MedalTempoServicoI, 500, "admin")
	CreateMedal(ctx, database, "100", model.MedalTempoServicoII, 1000, "admin")

	stats, err := GetMedalStats(ctx, database)
	if err != nil {
		t.Fatalf("GetMedalStats: %v", err)
	}
	if stats.TotalMedals != 3 {
		t.Errorf("expected 3 medals, got %d", stats.TotalMedals)
	}
	if stats.TotalBonusPaid != 2000 {
		t.Errorf("expected 2000 bonus, got %d", stats.TotalBonusPaid)
	}
	if stats.MedalsByType[model.MedalTempoServicoI] != 2 {
		t.Errorf("expected 2 tier I medals, got %d", stats.MedalsByType[model.MedalTempoServicoI])
	}
}
