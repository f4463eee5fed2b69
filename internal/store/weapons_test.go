package store

import (
	"context"
	"testing"
	"time"

	"bauwatch/internal/db"
	"bauwatch/internal/model"
)

func TestOpenWeaponDebt(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	debt, err := OpenWeaponDebt(ctx, database, "Micah Bell", "weaponrevolver", 1, "Recruta", "Valentine", time.Now())
	if err != nil {
		t.Fatalf("OpenWeaponDebt: %v", err)
	}
	if debt.Status != model.WeaponOwed {
		t.Errorf("expected status OWED, got %q", debt.Status)
	}
	if debt.RankAtViolation != "Recruta" {
		t.Errorf("expected rank snapshot, got %q", debt.RankAtViolation)
	}

	if _, err := OpenWeaponDebt(ctx, database, "a", "weaponrevolver", 0, "", "", time.Now()); err == nil {
		t.Error("expected error for zero quantity")
	}
}

func TestDrainWeaponDebtsAtomic(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()

	debt, _ := OpenWeaponDebt(ctx, database, "Micah Bell", "weaponrevolver", 2, "Recruta", "", now)

	// Returning less than the full quantity settles nothing.
	settlements, err := DrainWeaponDebts(ctx, database, "Micah Bell", "weaponrevolver", 1, now)
	if err != nil {
		t.Fatalf("DrainWeaponDebts: %v", err)
	}
	if settlements != nil {
		t.Errorf("expected no settlement for partial return, got %+v", settlements)
	}
	got, _ := GetWeaponDebt(ctx, database, debt.ID)
	if got.Status != model.WeaponOwed {
		t.Errorf("debt should stay OWED: %+v", got)
	}

	// The full quantity closes it.
	settlements, err = DrainWeaponDebts(ctx, database, "Micah Bell", "weaponrevolver", 2, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("DrainWeaponDebts: %v", err)
	}
	if len(settlements) != 1 || settlements[0].Applied != 2 || settlements[0].Remaining != 0 {
		t.Fatalf("unexpected settlements: %+v", settlements)
	}
	got, _ = GetWeaponDebt(ctx, database, debt.ID)
	if got.Status != model.WeaponReturned || got.ClosedAt == nil {
		t.Errorf("debt should be closed: %+v", got)
	}
}

func TestDrainWeaponDebtsOldestFirst(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	base := time.Now()

	first, _ := OpenWeaponDebt(ctx, database, "Micah Bell", "weaponrifle", 1, "Recruta", "", base)
	second, _ := OpenWeaponDebt(ctx, database, "Micah Bell", "weaponrifle", 2, "Recruta", "", base.Add(time.Minute))

	// One returned covers the first debt only; the second needs 2 and the
	// leftover is 0.
	settlements, err := DrainWeaponDebts(ctx, database, "Micah Bell", "weaponrifle", 1, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("DrainWeaponDebts: %v", err)
	}
	if len(settlements) != 1 || settlements[0].ID != first.ID {
		t.Fatalf("expected only the oldest debt settled, got %+v", settlements)
	}

	got, _ := GetWeaponDebt(ctx, database, second.ID)
	if got.Status != model.WeaponOwed {
		t.Errorf("second debt should stay OWED: %+v", got)
	}
}

func TestListWeaponDebtsFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()

	OpenWeaponDebt(ctx, database, "Micah Bell", "weaponrevolver", 1, "Recruta", "", now)
	OpenWeaponDebt(ctx, database, "Bill Williamson", "weaponshotgun", 1, "Soldado", "", now)

	all, err := ListWeaponDebts(ctx, database, "", "", "")
	if err != nil {
		t.Fatalf("ListWeaponDebts: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 debts, got %d", len(all))
	}

	owed, _ := ListOwedWeaponDebts(ctx, database, "Micah Bell", "weaponrevolver")
	if len(owed) != 1 || owed[0].Nickname != "Micah Bell" {
		t.Errorf("owed filter: %+v", owed)
	}

	byStatus, _ := ListWeaponDebts(ctx, database, "", "", model.WeaponReturned)
	if len(byStatus) != 0 {
		t.Errorf("status filter: %+v", byStatus)
	}
}
