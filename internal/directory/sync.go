package directory

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bauwatch/internal/model"
	"bauwatch/internal/store"
)

// GuildMember is what the platform gateway reports for one guild member.
type GuildMember struct {
	UserID    string
	Nickname  string
	RoleNames []string
	JoinedAt  *time.Time
	Bot       bool
}

// MemberLister is the gateway capability the sync job needs.
type MemberLister interface {
	ListMembers(ctx context.Context) ([]GuildMember, error)
}

// Sync upserts the full guild member list into the directory. Bots are
// skipped; per-member failures are logged and counted, not fatal. Returns
// the number of members synchronized.
func Sync(ctx context.Context, db *sql.DB, lister MemberLister) (int, error) {
	members, err := lister.ListMembers(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing guild members: %w", err)
	}

	var synced, failed int
	for _, gm := range members {
		if gm.Bot {
			continue
		}

		nickname := cleanNickname(gm.Nickname)
		if gm.UserID == "" || nickname == "" {
			slog.Warn("skipping member with missing data", "user_id", gm.UserID)
			failed++
			continue
		}

		m := &model.Member{
			UserID:         gm.UserID,
			Nickname:       nickname,
			Rank:           ExtractRank(gm.RoleNames),
			JoinedServerAt: gm.JoinedAt,
		}
		if err := store.UpsertMember(ctx, db, m); err != nil {
			slog.Error("failed to sync member", "nickname", nickname, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.Info("member sync finished", "synced", synced, "failed", failed)
	return synced, nil
}

// cleanNickname strips markdown artifacts and control characters from a
// display name.
func cleanNickname(raw string) string {
	s := strings.NewReplacer(
		"```", "",
		"`", "",
		"\n", "",
		"\u200b", "",
	).Replace(raw)
	return strings.TrimSpace(s)
}
