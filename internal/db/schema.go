package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'viewer' CHECK (role IN ('admin', 'viewer')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS members (
    id               INTEGER PRIMARY KEY,
    user_id          TEXT NOT NULL UNIQUE,
    nickname         TEXT NOT NULL,
    rank             TEXT,
    joined_server_at DATETIME,
    last_on_duty_at  DATETIME,
    active           INTEGER NOT NULL DEFAULT 1,
    last_sync_at     DATETIME
);

CREATE INDEX IF NOT EXISTS idx_members_nickname ON members(nickname COLLATE NOCASE);

CREATE TABLE IF NOT EXISTS movements (
    id            INTEGER PRIMARY KEY,
    nickname      TEXT NOT NULL,
    fixo          TEXT,
    item_slug     TEXT NOT NULL,
    raw_item      TEXT NOT NULL,
    quantity      INTEGER NOT NULL CHECK (quantity > 0),
    action        TEXT NOT NULL CHECK (action IN ('removed', 'added')),
    city          TEXT NOT NULL,
    occurred_at   DATETIME NOT NULL,
    time_fallback INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_movements_daily
    ON movements(nickname, item_slug, action, occurred_at);

CREATE TABLE IF NOT EXISTS excesses (
    id                INTEGER PRIMARY KEY,
    nickname          TEXT NOT NULL,
    item_slug         TEXT NOT NULL,
    excess_quantity   INTEGER NOT NULL CHECK (excess_quantity > 0),
    returned_quantity INTEGER NOT NULL DEFAULT 0 CHECK (returned_quantity >= 0 AND returned_quantity <= excess_quantity),
    status            TEXT NOT NULL CHECK (status IN ('PENDING', 'PARTIALLY_RETURNED', 'FULLY_RETURNED', 'BLOCKED')),
    city              TEXT,
    opened_at         DATETIME NOT NULL,
    closed_at         DATETIME
);

CREATE INDEX IF NOT EXISTS idx_excesses_open
    ON excesses(nickname, item_slug, status, opened_at);

CREATE TABLE IF NOT EXISTS weapon_debts (
    id                INTEGER PRIMARY KEY,
    nickname          TEXT NOT NULL,
    item_slug         TEXT NOT NULL,
    quantity          INTEGER NOT NULL CHECK (quantity > 0),
    rank_at_violation TEXT NOT NULL,
    city              TEXT,
    opened_at         DATETIME NOT NULL,
    closed_at         DATETIME,
    status            TEXT NOT NULL CHECK (status IN ('OWED', 'RETURNED'))
);

CREATE INDEX IF NOT EXISTS idx_weapon_debts_open
    ON weapon_debts(nickname, item_slug, status, opened_at);

CREATE TABLE IF NOT EXISTS medals (
    id           INTEGER PRIMARY KEY,
    user_id      TEXT NOT NULL REFERENCES members(user_id),
    type         TEXT NOT NULL,
    bonus_amount INTEGER NOT NULL,
    awarded_by   TEXT NOT NULL,
    awarded_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS onduty_logs (
    id          INTEGER PRIMARY KEY,
    user_id     TEXT NOT NULL REFERENCES members(user_id),
    action_type TEXT NOT NULL,
    timestamp   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
