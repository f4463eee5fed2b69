package store

import (
	"context"
	"database/sql"
	"fmt"

	"bauwatch/internal/model"
)

// CreateMedal awards a medal to a member. Duplicate awards are allowed.
func CreateMedal(ctx context.Context, db *sql.DB, userID, medalType string, bonusAmount int, awardedBy string) (*model.Medal, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO medals (user_id, type, bonus_amount, awarded_by) VALUES (?, ?, ?, ?)`,
		userID, medalType, bonusAmount, awardedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("creating medal: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting medal id: %w", err)
	}

	return GetMedal(ctx, db, id)
}

// GetMedal returns a medal by ID.
func GetMedal(ctx context.Context, db *sql.DB, id int64) (*model.Medal, error) {
	m := &model.Medal{}
	err := db.QueryRowContext(ctx,
		`SELECT id, user_id, type, bonus_amount, awarded_by, awarded_at
		 FROM medals WHERE id = ?`, id,
	).Scan(&m.ID, &m.UserID, &m.Type, &m.BonusAmount, &m.AwardedBy, &m.AwardedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting medal: %w", err)
	}
	return m, nil
}

// ListMedalsByUser returns a member's medals, newest first.
func ListMedalsByUser(ctx context.Context, db *sql.DB, userID string) ([]model.Medal, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, type, bonus_amount, awarded_by, awarded_at
		 FROM medals WHERE user_id = ? ORDER BY awarded_at DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing medals: %w", err)
	}
	defer rows.Close()

	return scanMedals(rows)
}

// ListRecentMedals returns the most recently awarded medals.
func ListRecentMedals(ctx context.Context, db *sql.DB, limit int) ([]model.Medal, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, type, bonus_amount, awarded_by, awarded_at
		 FROM medals ORDER BY awarded_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing recent medals: %w", err)
	}
	defer rows.Close()

	return scanMedals(rows)
}

// MedalStats aggregates awarded medals.
type MedalStats struct {
	TotalMedals    int            `json:"total_medals"`
	MedalsByType   map[string]int `json:"medals_by_type"`
	TotalBonusPaid int            `json:"total_bonus_paid"`
}

// GetMedalStats returns totals over all awarded medals.
func GetMedalStats(ctx context.Context, db *sql.DB) (*MedalStats, error) {
	stats := &MedalStats{MedalsByType: make(map[string]int)}

	rows, err := db.QueryContext(ctx,
		`SELECT type, COUNT(*), COALESCE(SUM(bonus_amount), 0) FROM medals GROUP BY type`,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregating medals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var medalType string
		var count, bonus int
		if err := rows.Scan(&medalType, &count, &bonus); err != nil {
			return nil, fmt.Errorf("scanning medal stats: %w", err)
		}
		stats.MedalsByType[medalType] = count
		stats.TotalMedals += count
		stats.TotalBonusPaid += bonus
	}
	return stats, rows.Err()
}

func scanMedals(rows *sql.Rows) ([]model.Medal, error) {
	var medals []model.Medal
	for rows.Next() {
		var m model.Medal
		if err := rows.Scan(&m.ID, &m.UserID, &m.Type, &m.BonusAmount, &m.AwardedBy, &m.AwardedAt); err != nil {
			return nil, fmt.Errorf("scanning medal: %w", err)
		}
		medals = append(medals, m)
	}
	return medals, rows.Err()
}
