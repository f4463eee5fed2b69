package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"bauwatch/internal/model"
)

// OpenWeaponDebt records an unauthorized weapon withdrawal for the full
// removed quantity.
func OpenWeaponDebt(ctx context.Context, db *sql.DB, nickname, itemSlug string, quantity int, rank, city string, openedAt time.Time) (*model.WeaponDebt, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("weapon debt quantity must be positive")
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO weapon_debts (nickname, item_slug, quantity, rank_at_violation, city, opened_at, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nickname, itemSlug, quantity, rank, city, openedAt, model.WeaponOwed,
	)
	if err != nil {
		return nil, fmt.Errorf("opening weapon debt: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting weapon debt id: %w", err)
	}

	return GetWeaponDebt(ctx, db, id)
}

// GetWeaponDebt returns a weapon debt record by ID.
func GetWeaponDebt(ctx context.Context, db *sql.DB, id int64) (*model.WeaponDebt, error) {
	w := &model.WeaponDebt{}
	var city sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, nickname, item_slug, quantity, rank_at_violation, city, opened_at, closed_at, status
		 FROM weapon_debts WHERE id = ?`, id,
	).Scan(&w.ID, &w.Nickname, &w.ItemSlug, &w.Quantity, &w.RankAtViolation,
		&city, &w.OpenedAt, &w.ClosedAt, &w.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting weapon debt: %w", err)
	}
	w.City = city.String
	return w, nil
}

// ListOwedWeaponDebts returns a user's OWED weapon debts for an item,
// oldest first.
func ListOwedWeaponDebts(ctx context.Context, db *sql.DB, nickname, itemSlug string) ([]model.WeaponDebt, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, nickname, item_slug, quantity, rank_at_violation, city, opened_at, closed_at, status
		 FROM weapon_debts
		 WHERE nickname = ? AND item_slug = ? AND status = ?
		 ORDER BY opened_at ASC, id ASC`,
		nickname, itemSlug, model.WeaponOwed,
	)
	if err != nil {
		return nil, fmt.Errorf("listing owed weapon debts: %w", err)
	}
	defer rows.Close()

	return scanWeaponDebts(rows)
}

// ListWeaponDebts returns weapon debts, optionally filtered, newest first.
func ListWeaponDebts(ctx context.Context, db *sql.DB, nickname, itemSlug, status string) ([]model.WeaponDebt, error) {
	query := `SELECT id, nickname, item_slug, quantity, rank_at_violation, city, opened_at, closed_at, status
	          FROM weapon_debts WHERE 1=1`
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
		return nil, fmt.Errorf("listing weapon debts: %w", err)
	}
	defer rows.Close()

	return scanWeaponDebts(rows)
}

// DrainWeaponDebts applies a returned quantity against a user's OWED weapon
// debts for an item, oldest first. Settlement is binary: a debt is closed
// only if the remaining addition covers its full quantity. Runs in a single
// transaction, same as DrainExcesses.
func DrainWeaponDebts(ctx context.Context, db *sql.DB, nickname, itemSlug string, quantity int, at time.Time) ([]Settlement, error) {
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
		`SELECT id, quantity, status FROM weapon_debts
		 WHERE nickname = ? AND item_slug = ? AND status = ?
		 ORDER BY opened_at ASC, id ASC`,
		nickname, itemSlug, model.WeaponOwed,
	)
	if err != nil {
		return nil, fmt.Errorf("reading owed weapon debts: %w", err)
	}

	var open []debtView
	for rows.Next() {
		var d debtView
		if err := rows.Scan(&d.id, &d.owed, &d.status); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning owed weapon debt: %w", err)
		}
		open = append(open, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading owed weapon debts: %w", err)
	}

	plan := planDrain(open, quantity, true, model.WeaponReturned, "")
	if len(plan) == 0 {
		return nil, nil
	}

	settlements := make([]Settlement, 0, len(plan))
	for _, app := range plan {
		_, err := tx.ExecContext(ctx,
			`UPDATE weapon_debts SET status = ?, closed_at = ? WHERE id = ?`,
			app.newStatus, at, app.id,
		)
		if err != nil {
			return nil, fmt.Errorf("closing weapon debt %d: %w", app.id, err)
		}

		settlements = append(settlements, Settlement{
			ID:             app.id,
			Applied:        app.applied,
			PreviousStatus: app.prevStatus,
			NewStatus:      app.newStatus,
			Remaining:      0,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing drain: %w", err)
	}
	return settlements, nil
}

func scanWeaponDebts(rows *sql.Rows) ([]model.WeaponDebt, error) {
	var debts []model.WeaponDebt
	for rows.Next() {
		var w model.WeaponDebt
		var city sql.NullString
		if err := rows.Scan(&w.ID, &w.Nickname, &w.ItemSlug, &w.Quantity, &w.RankAtViolation,
			&city, &w.OpenedAt, &w.ClosedAt, &w.Status); err != nil {
			return nil, fmt.Errorf("scanning weapon debt: %w", err)
		}
		w.City = city.String
		debts = append(debts, w)
	}
	return debts, rows.Err()
}
