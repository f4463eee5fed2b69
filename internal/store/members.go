package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bauwatch/internal/model"
)

// UpsertMember inserts or updates a synchronized guild member keyed by
// platform user ID.
func UpsertMember(ctx context.Context, db *sql.DB, m *model.Member) error {
	now := time.Now()
	_, err := db.ExecContext(ctx,
		`INSERT INTO members (user_id, nickname, rank, joined_server_at, active, last_sync_at)
		 VALUES (?, ?, ?, ?, 1, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   nickname = excluded.nickname,
		   rank = excluded.rank,
		   joined_server_at = COALESCE(excluded.joined_server_at, members.joined_server_at),
		   active = 1,
		   last_sync_at = excluded.last_sync_at`,
		m.UserID, m.Nickname, nullString(m.Rank), m.JoinedServerAt, now,
	)
	if err != nil {
		return fmt.Errorf("upserting member: %w", err)
	}
	return nil
}

// GetMemberByUserID returns a member by platform user ID.
func GetMemberByUserID(ctx context.Context, db *sql.DB, userID string) (*model.Member, error) {
	row := db.QueryRowContext(ctx,
		`SELECT id, user_id, nickname, rank, joined_server_at, last_on_duty_at, active, last_sync_at
		 FROM members WHERE user_id = ?`, userID,
	)
	return scanMember(row)
}

// FindMemberByNickname looks up an active member by fuzzy nickname:
// case-insensitive containment in either direction. When several members
// match, the one with the lowest id wins; there is no disambiguation.
func FindMemberByNickname(ctx context.Context, db *sql.DB, nickname string) (*model.Member, error) {
	if nickname == "" {
		return nil, nil
	}
	row := db.QueryRowContext(ctx,
		`SELECT id, user_id, nickname, rank, joined_server_at, last_on_duty_at, active, last_sync_at
		 FROM members
		 WHERE active = 1
		   AND (instr(lower(nickname), lower(?)) > 0 OR instr(lower(?), lower(nickname)) > 0)
		 ORDER BY id ASC LIMIT 1`,
		nickname, nickname,
	)
	return scanMember(row)
}

// SetLastOnDuty updates a member's last on-duty timestamp and appends an
// on-duty log entry.
func SetLastOnDuty(ctx context.Context, db *sql.DB, userID string, at time.Time) error {
	result, err := db.ExecContext(ctx,
		`UPDATE members SET last_on_duty_at = ? WHERE user_id = ?`, at, userID,
	)
	if err != nil {
		return fmt.Errorf("updating last on-duty: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("member %s not found", userID)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO onduty_logs (user_id, action_type, timestamp) VALUES (?, ?, ?)`,
		userID, "ENTROU_EM_SERVICO", at,
	)
	if err != nil {
		return fmt.Errorf("appending on-duty log: %w", err)
	}
	return nil
}

// ListActiveMembers returns active members with a known server join date,
// oldest joiners first.
func ListActiveMembers(ctx context.Context, db *sql.DB) ([]model.Member, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, nickname, rank, joined_server_at, last_on_duty_at, active, last_sync_at
		 FROM members
		 WHERE active = 1 AND joined_server_at IS NOT NULL
		 ORDER BY joined_server_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing active members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMemberRow(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row *sql.Row) (*model.Member, error) {
	m, err := scanMemberRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func scanMemberRow(row rowScanner) (*model.Member, error) {
	m := &model.Member{}
	var rank sql.NullString
	err := row.Scan(&m.ID, &m.UserID, &m.Nickname, &rank,
		&m.JoinedServerAt, &m.LastOnDutyAt, &m.Active, &m.LastSyncAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning member: %w", err)
	}
	m.Rank = rank.String
	return m, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
