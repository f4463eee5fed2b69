package directory

import (
	"context"
	"testing"
	"time"

	"bauwatch/internal/db"
	"bauwatch/internal/model"
	"bauwatch/internal/store"
)

func TestExtractRank(t *testing.T) {
	tests := []struct {
		roles []string
		want  string
	}{
		{[]string{"Sheriff"}, "Sheriff"},
		{[]string{"some-role", "⭐ Capitão ⭐"}, "Capitão"},
		// The highest matching rank wins, regardless of role order.
		{[]string{"Recruta", "Major"}, "Major"},
		{[]string{"marshall"}, "Marshall"},
		{[]string{"civilian"}, ""},
		{nil, ""},
	}

	for _, tt := range tests {
		if got := ExtractRank(tt.roles); got != tt.want {
			t.Errorf("ExtractRank(%v) = %q, want %q", tt.roles, got, tt.want)
		}
	}
}

func TestIsAuthorizedForWeapons(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	d := New(database, nil)

	add := func(userID, nickname, rank string) {
		t.Helper()
		if err := store.UpsertMember(ctx, database, &model.Member{UserID: userID, Nickname: nickname, Rank: rank}); err != nil {
			t.Fatal(err)
		}
	}

	add("100", "John Marston", "Sheriff")
	add("101", "Micah Bell", "Recruta")
	add("102", "Uncle", "")

	if !d.IsAuthorizedForWeapons(ctx, "John Marston") {
		t.Error("Sheriff is in the authorized set")
	}
	if d.IsAuthorizedForWeapons(ctx, "Micah Bell") {
		t.Error("Recruta is below the authorized set")
	}
	// Fail-closed: no rank, unknown member.
	if d.IsAuthorizedForWeapons(ctx, "Uncle") {
		t.Error("rankless member must be denied")
	}
	if d.IsAuthorizedForWeapons(ctx, "Dutch van der Linde") {
		t.Error("unknown member must be denied")
	}
}

func TestIsAuthorizedForWeaponsCustomSet(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	store.UpsertMember(ctx, database, &model.Member{UserID: "100", Nickname: "John Marston", Rank: "Sheriff"})

	d := New(database, []string{"Marshall"})
	if d.IsAuthorizedForWeapons(ctx, "John Marston") {
		t.Error("Sheriff is outside the injected authorized set")
	}
}

type fakeLister struct {
	members []GuildMember
}

func (f *fakeLister) ListMembers(ctx context.Context) ([]GuildMember, error) {
	return f.members, nil
}

func TestSync(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	joined := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	lister := &fakeLister{members: []GuildMember{
		{UserID: "100", Nickname: "`John Marston`", RoleNames: []string{"Sheriff"}, JoinedAt: &joined},
		{UserID: "200", Nickname: "LogBot", Bot: true},
		{UserID: "", Nickname: "ghost"},
	}}

	synced, err := Sync(ctx, database, lister)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if synced != 1 {
		t.Errorf("expected 1 synced member, got %d", synced)
	}

	m, err := store.GetMemberByUserID(ctx, database, "100")
	if err != nil || m == nil {
		t.Fatalf("member not stored: %v", err)
	}
	if m.Nickname != "John Marston" {
		t.Errorf("nickname not cleaned: %q", m.Nickname)
	}
	if m.Rank != "Sheriff" {
		t.Errorf("rank not extracted: %q", m.Rank)
	}
	if m.JoinedServerAt == nil || !m.JoinedServerAt.Equal(joined) {
		t.Errorf("join date lost: %v", m.JoinedServerAt)
	}

	if bot, _ := store.GetMemberByUserID(ctx, database, "200"); bot != nil {
		t.Error("bots must not be synced")
	}
}
