// Package directory maintains the synchronized guild member directory and
// answers rank-authorization questions over it.
package directory

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"bauwatch/internal/model"
	"bauwatch/internal/store"
)

// Directory answers identity and permission questions against the member
// table. The authorized rank set is injected at construction.
type Directory struct {
	db         *sql.DB
	authorized map[string]bool
}

// New creates a directory. An empty authorizedRanks uses the default set
// (top seven ranks).
func New(db *sql.DB, authorizedRanks []string) *Directory {
	if len(authorizedRanks) == 0 {
		authorizedRanks = DefaultAuthorizedRanks
	}
	authorized := make(map[string]bool, len(authorizedRanks))
	for _, r := range authorizedRanks {
		authorized[strings.ToLower(r)] = true
	}
	return &Directory{db: db, authorized: authorized}
}

// FindByNickname resolves a chest-log nickname to a directory member using
// fuzzy matching (case-insensitive containment in either direction). When
// several members match, the first by id wins; the ambiguity is inherent to
// the log format and is logged, not resolved.
func (d *Directory) FindByNickname(ctx context.Context, nickname string) (*model.Member, error) {
	return store.FindMemberByNickname(ctx, d.db, nickname)
}

// IsAuthorizedForWeapons reports whether the user behind a nickname holds a
// weapon-authorized rank. Unknown user, missing rank or a lookup failure
// all evaluate to not authorized: the check fails closed.
func (d *Directory) IsAuthorizedForWeapons(ctx context.Context, nickname string) bool {
	member, err := d.FindByNickname(ctx, nickname)
	if err != nil {
		slog.Error("directory lookup failed, denying weapon authorization",
			"nickname", nickname, "error", err)
		return false
	}
	if member == nil || member.Rank == "" {
		return false
	}
	return d.authorized[strings.ToLower(member.Rank)]
}

// RankOf returns the member's current rank, or "" when the user or rank is
// unknown.
func (d *Directory) RankOf(ctx context.Context, nickname string) string {
	member, err := d.FindByNickname(ctx, nickname)
	if err != nil || member == nil {
		return ""
	}
	return member.Rank
}
