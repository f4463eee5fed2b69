package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"bauwatch/internal/model"
)

// RecordMovement persists a parsed chest movement. Every movement is saved
// before any policy check runs; if this fails the event is dropped.
func RecordMovement(ctx context.Context, db *sql.DB, m *model.Movement) (*model.Movement, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO movements (nickname, fixo, item_slug, raw_item, quantity, action, city, occurred_at, time_fallback)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Nickname, m.Fixo, m.ItemSlug, m.RawItem, m.Quantity, m.Action, m.City, m.OccurredAt, m.TimeFallback,
	)
	if err != nil {
		return nil, fmt.Errorf("recording movement: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting movement id: %w", err)
	}

	saved := *m
	saved.ID = id
	return &saved, nil
}

// WithdrawnBetween returns the total quantity removed by a user for an item
// in the [since, until] window, inclusive on both ends.
func WithdrawnBetween(ctx context.Context, db *sql.DB, nickname, itemSlug string, since, until time.Time) (int, error) {
	var total int
	err := db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(quantity), 0) FROM movements
		 WHERE nickname = ? AND item_slug = ? AND action = ?
		   AND occurred_at >= ? AND occurred_at <= ?`,
		nickname, itemSlug, model.ActionRemoved, since, until,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("summing withdrawals: %w", err)
	}
	return total, nil
}

// ListMovements returns movements, optionally filtered by nickname and item
// slug, newest first.
func ListMovements(ctx context.Context, db *sql.DB, nickname, itemSlug string, limit int) ([]model.Movement, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, nickname, fixo, item_slug, raw_item, quantity, action, city, occurred_at, time_fallback
	          FROM movements WHERE 1=1`
	var args []any

	if nickname != "" {
		query += ` AND nickname = ?`
		args = append(args, nickname)
	}
	if itemSlug != "" {
		query += ` AND item_slug = ?`
		args = append(args, strings.ToLower(itemSlug))
	}

	query += ` ORDER BY occurred_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing movements: %w", err)
	}
	defer rows.Close()

	var movements []model.Movement
	for rows.Next() {
		var m model.Movement
		var fixo sql.NullString
		if err := rows.Scan(&m.ID, &m.Nickname, &fixo, &m.ItemSlug, &m.RawItem,
			&m.Quantity, &m.Action, &m.City, &m.OccurredAt, &m.TimeFallback); err != nil {
			return nil, fmt.Errorf("scanning movement: %w", err)
		}
		m.Fixo = fixo.String
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
