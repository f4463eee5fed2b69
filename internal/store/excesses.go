package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"bauwatch/internal/model"
)

// OpenExcess opens a new excess debt record. Status must be PENDING for
// over-limit withdrawals or BLOCKED for removals of banned items.
func OpenExcess(ctx context.Context, db *sql.DB, nickname, itemSlug string, quantity int, status, city string, openedAt time.Time) (*model.Excess, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("excess quantity must be positive")
	}
	if status != model.ExcessPending && status != model.ExcessBlocked {
		return nil, fmt.Errorf("invalid opening status %q", status)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO excesses (nickname, item_slug, excess_quantity, returned_quantity, status, city, opened_at)
		 VALUES (?, ?, ?, 0, ?, ?, ?)`,
		nickname, itemSlug, quantity, status, city, openedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("opening excess: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting excess id: %w", err)
	}

	return GetExcess(ctx, db, id)
}

// GetExcess returns an excess record by ID.
func GetExcess(ctx context.Context, db *sql.DB, id int64) (*model.Excess, error) {
	e := &model.Excess{}
	var city sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, nickname, item_slug, excess_quantity, returned_quantity, status, city, opened_at, closed_at
		 FROM excesses WHERE id = ?`, id,
	).Scan(&e.ID, &e.Nickname, &e.ItemSlug, &e.ExcessQuantity, &e.ReturnedQuantity,
		&e.Status, &city, &e.OpenedAt, &e.ClosedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting excess: %w", err)
	}
	e.City = city.String
	return e, nil
}

// ListOpenExcesses returns a user's undrained excess records for an item,
// oldest first (ties broken by lower id).
func ListOpenExcesses(ctx context.Context, db *sql.DB, nickname, itemSlug string) ([]model.Excess, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, nickname, item_slug, excess_quantity, returned_quantity, status, city, opened_at, closed_at
		 FROM excesses
		 WHERE nickname = ? AND item_slug = ? AND status IN (?, ?, ?)
		 ORDER BY opened_at ASC, id ASC`,
		nickname, itemSlug, model.ExcessPending, model.ExcessPartiallyReturned, model.ExcessBlocked,
	)
	if err != nil {
		return nil, fmt.Errorf("listing open excesses: %w", err)
	}
	defer rows.Close()

	return scanExcesses(rows)
}

// ListExcesses returns excess records, optionally filtered by nickname,
// item slug and status, newest first.
func ListExcesses(ctx context.Context, db *sql.DB, nickname, itemSlug, status string) ([]model.Excess, error) {
	query := `SELECT id, nickname, item_slug, excess_quantity, returned_quantity, status, city, opened_at, closed_at
	          FROM excesses WHERE 1=1`
	var args []any

	if nickname != "" {
		query += ` AND nickname = ?`
		args = append(args, nickname)
	}
	if itemSlug != "" {
		query += ` AND item_slug = ?`
		args = append(args, strings.ToLower(itemSlug))
	}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}

	query += ` ORDER BY opened_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing excesses: %w", err)
	}
	defer rows.Close()

	return scanExcesses(rows)
}

// DrainExcesses applies a returned quantity against a user's open excess
// records for an item, oldest first, allowing partial settlement. All reads
// and writes happen in a single transaction so that two concurrent
// additions cannot double-settle the same record. Returns one settlement
// per touched record; an empty result means no debt existed (pure restock).
func DrainExcesses(ctx context.Context, db *sql.DB, nickname, itemSlug string, quantity int, at time.Time) ([]Settlement, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("returned quantity must be positive")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// The no-op write promotes the transaction to a writer immediately,
	// serializing concurrent drains.
	if _, err := tx.ExecContext(ctx, "UPDATE settings SET value = value WHERE key = ''"); err != nil {
		return nil, fmt.Errorf("acquiring write lock: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, excess_quantity, returned_quantity, status FROM excesses
		 WHERE nickname = ? AND item_slug = ? AND status IN (?, ?, ?)
		 ORDER BY opened_at ASC, id ASC`,
		nickname, itemSlug, model.ExcessPending, model.ExcessPartiallyReturned, model.ExcessBlocked,
	)
	if err != nil {
		return nil, fmt.Errorf("reading open excesses: %w", err)
	}

	var open []debtView
	for rows.Next() {
		var d debtView
		if err := rows.Scan(&d.id, &d.owed, &d.returned, &d.status); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning open excess: %w", err)
		}
		open = append(open, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading open excesses: %w", err)
	}

	plan := planDrain(open, quantity, false, model.ExcessFullyReturned, model.ExcessPartiallyReturned)
	if len(plan) == 0 {
		return nil, nil
	}

	settlements := make([]Settlement, 0, len(plan))
	for _, app := range plan {
		var closedAt any
		if app.closed {
			closedAt = at
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE excesses SET returned_quantity = ?, status = ?, closed_at = ? WHERE id = ?`,
			app.newReturned, app.newStatus, closedAt, app.id,
		)
		if err != nil {
			return nil, fmt.Errorf("updating excess %d: %w", app.id, err)
		}

		settlements = append(settlements, Settlement{
			ID:             app.id,
			Applied:        app.applied,
			PreviousStatus: app.prevStatus,
			NewStatus:      app.newStatus,
			Remaining:      findOwed(open, app.id) - app.applied,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing drain: %w", err)
	}
	return settlements, nil
}

// findOwed returns the pre-drain remaining quantity for a record id.
func findOwed(open []debtView, id int64) int {
	for _, d := range open {
		if d.id == id {
			return d.owed - d.returned
		}
	}
	return 0
}

func scanExcesses(rows *sql.Rows) ([]model.Excess, error) {
	var excesses []model.Excess
	for rows.Next() {
		var e model.Excess
		var city sql.NullString
		if err := rows.Scan(&e.ID, &e.Nickname, &e.ItemSlug, &e.ExcessQuantity, &e.ReturnedQuantity,
			&e.Status, &city, &e.OpenedAt, &e.ClosedAt); err != nil {
			return nil, fmt.Errorf("scanning excess: %w", err)
		}
		e.City = city.String
		excesses = append(excesses, e)
	}
	return excesses, rows.Err()
}
