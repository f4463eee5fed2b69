package store

import (
	"context"
	"testing"
	"time"

	"bauwatch/internal/db"
	"bauwatch/internal/model"
)

func TestUpsertMember(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	joined := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	m := &model.Member{UserID: "100", Nickname: "John Marston", Rank: "Sheriff", JoinedServerAt: &joined}
	if err := UpsertMember(ctx, database, m); err != nil {
		t.Fatalf("UpsertMember: %v", err)
	}

	// Re-sync with a new rank and no join date: rank updates, join date is
	// preserved.
	m2 := &model.Member{UserID: "100", Nickname: "John Marston", Rank: "Capitão"}
	if err := UpsertMember(ctx, database, m2); err != nil {
		t.Fatalf("UpsertMember: %v", err)
	}

	got, err := GetMemberByUserID(ctx, database, "100")
	if err != nil {
		t.Fatalf("GetMemberByUserID: %v", err)
	}
	if got.Rank != "Capitão" {
		t.Errorf("expected updated rank, got %q", got.Rank)
	}
	if got.JoinedServerAt == nil || !got.JoinedServerAt.Equal(joined) {
		t.Errorf("expected preserved join date, got %v", got.JoinedServerAt)
	}
}

func TestFindMemberByNickname(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	UpsertMember(ctx, database, &model.Member{UserID: "100", Nickname: "John Marston"})
	UpsertMember(ctx, database, &model.Member{UserID: "101", Nickname: "Arthur Morgan"})

	tests := []struct {
		query  string
		wantID string
	}{
		{"John Marston", "100"},
		{"john marston", "100"},
		// The stored nickname contains the query.
		{"Marston", "100"},
		// The query contains the stored nickname (log appends a suffix).
		{"Arthur Morgan [AFK]", "101"},
	}

	for _, tt := range tests {
		got, err := FindMemberByNickname(ctx, database, tt.query)
		if err != nil {
			t.Fatalf("FindMemberByNickname(%q): %v", tt.query, err)
		}
		if got == nil || got.UserID != tt.wantID {
			t.Errorf("FindMemberByNickname(%q) = %+v, want user %s", tt.query, got, tt.wantID)
		}
	}

	missing, err := FindMemberByNickname(ctx, database, "Dutch van der Linde")
	if err != nil {
		t.Fatalf("FindMemberByNickname: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown nickname, got %+v", missing)
	}

	empty, _ := FindMemberByNickname(ctx, database, "")
	if empty != nil {
		t.Error("empty nickname must not match anyone")
	}
}

func TestFindMemberByNicknameAmbiguous(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// Two members match "John"; the lower id wins deterministically.
	UpsertMember(ctx, database, &model.Member{UserID: "100", Nickname: "John Marston"})
	UpsertMember(ctx, database, &model.Member{UserID: "101", Nickname: "John Smith"})

	got, err := FindMemberByNickname(ctx, database, "John")
	if err != nil {
		t.Fatalf("FindMemberByNickname: %v", err)
	}
	if got == nil || got.UserID != "100" {
		t.Errorf("expected lowest-id match, got %+v", got)
	}
}

func TestSetLastOnDuty(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	UpsertMember(ctx, database, &model.Member{UserID: "100", Nickname: "John Marston"})

	at := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	if err := SetLastOnDuty(ctx, database, "100", at); err != nil {
		t.Fatalf("SetLastOnDuty: %v", err)
	}

	got, _ := GetMemberByUserID(ctx, database, "100")
	if got.LastOnDutyAt == nil || !got.LastOnDutyAt.Equal(at) {
		t.Errorf("expected last on-duty %v, got %v", at, got.LastOnDutyAt)
	}

	if err := SetLastOnDuty(ctx, database, "999", at); err == nil {
		t.Error("expected error for unknown member")
	}
}

func TestListActiveMembers(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	UpsertMember(ctx, database, &model.Member{UserID: "101", Nickname: "Arthur Morgan", JoinedServerAt: &newer})
	UpsertMember(ctx, database, &model.Member{UserID: "100", Nickname: "John Marston", JoinedServerAt: &older})
	// No join date: excluded.
	UpsertMember(ctx, database, &model.Member{UserID: "102", Nickname: "Uncle"})

	members, err := ListActiveMembers(ctx, database)
	if err != nil {
		t.Fatalf("ListActiveMembers: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	if members[0].UserID != "100" {
		t.Errorf("expected oldest joiner first, got %+v", members[0])
	}
}
