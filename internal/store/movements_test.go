package store

import (
	"context"
	"testing"
	"time"

	"bauwatch/internal/db"
	"bauwatch/internal/model"
)

func TestRecordMovement(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	m := &model.Movement{
		Nickname:   "John Marston",
		Fixo:       "1234",
		ItemSlug:   "suco",
		RawItem:    "Suco de Lemon",
		Quantity:   3,
		Action:     model.ActionRemoved,
		City:       "Valentine",
		OccurredAt: time.Now(),
	}

	saved, err := RecordMovement(ctx, database, m)
	if err != nil {
		t.Fatalf("RecordMovement: %v", err)
	}
	if saved.ID == 0 {
		t.Error("expected assigned id")
	}
	if m.ID != 0 {
		t.Error("input movement must not be mutated")
	}
}

func TestWithdrawnBetween(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	record := func(nickname, slug string, qty int, action string, at time.Time) {
		t.Helper()
		_, err := RecordMovement(ctx, database, &model.Movement{
			Nickname: nickname, ItemSlug: slug, RawItem: slug,
			Quantity: qty, Action: action, OccurredAt: at,
		})
		if err != nil {
			t.Fatalf("RecordMovement: %v", err)
		}
	}

	record("John Marston", "suco", 3, model.ActionRemoved, day.Add(9*time.Hour))
	record("John Marston", "suco", 4, model.ActionRemoved, day.Add(15*time.Hour))
	// Additions and other users/items do not count.
	record("John Marston", "suco", 5, model.ActionAdded, day.Add(16*time.Hour))
	record("John Marston", "torta", 2, model.ActionRemoved, day.Add(10*time.Hour))
	record("Arthur Morgan", "suco", 9, model.ActionRemoved, day.Add(10*time.Hour))
	// Yesterday does not count.
	record("John Marston", "suco", 6, model.ActionRemoved, day.Add(-2*time.Hour))

	total, err := WithdrawnBetween(ctx, database, "John Marston", "suco", day, day.Add(15*time.Hour))
	if err != nil {
		t.Fatalf("WithdrawnBetween: %v", err)
	}
	if total != 7 {
		t.Errorf("expected 7 withdrawn, got %d", total)
	}

	// The window is inclusive on both ends.
	total, _ = WithdrawnBetween(ctx, database, "John Marston", "suco", day.Add(9*time.Hour), day.Add(9*time.Hour))
	if total != 3 {
		t.Errorf("expected 3 at the exact boundary, got %d", total)
	}
}

func TestListMovements(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 3; i++ {
		RecordMovement(ctx, database, &model.Movement{
			Nickname: "John Marston", ItemSlug: "suco", RawItem: "suco",
			Quantity: 1, Action: model.ActionRemoved,
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	RecordMovement(ctx, database, &model.Movement{
		Nickname: "Arthur Morgan", ItemSlug: "torta", RawItem: "torta",
		Quantity: 1, Action: model.ActionAdded, OccurredAt: base,
	})

	movements, err := ListMovements(ctx, database, "John Marston", "suco", 2)
	if err != nil {
		t.Fatalf("ListMovements: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(movements))
	}
	if movements[0].OccurredAt.Before(movements[1].OccurredAt) {
		t.Error("expected newest first")
	}

	all, _ := ListMovements(ctx, database, "", "", 0)
	if len(all) != 4 {
		t.Errorf("expected 4 unfiltered movements, got %d", len(all))
	}
}
