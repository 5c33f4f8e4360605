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
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS profiles (
    user_id      INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    display_name TEXT NOT NULL DEFAULT '',
    phone        TEXT NOT NULL DEFAULT '',
    address      TEXT NOT NULL DEFAULT '',
    about        TEXT NOT NULL DEFAULT '',
    avatar       BLOB,
    avatar_mime  TEXT,
    verified     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS items (
    id          INTEGER PRIMARY KEY,
    owner_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    title       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category    TEXT NOT NULL DEFAULT '',
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_items_owner ON items(owner_id);

CREATE TABLE IF NOT EXISTS images (
    id         INTEGER PRIMARY KEY,
    item_id    INTEGER NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    data       BLOB NOT NULL,
    mime       TEXT NOT NULL,
    is_cover   INTEGER NOT NULL DEFAULT 0 CHECK (is_cover IN (0, 1)),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_images_item ON images(item_id);

-- At most one cover image per item.
CREATE UNIQUE INDEX IF NOT EXISTS idx_images_cover
    ON images(item_id) WHERE is_cover = 1;

CREATE TABLE IF NOT EXISTS loans (
    id                   INTEGER PRIMARY KEY,
    item_id              INTEGER NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    borrower_id          INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    state                TEXT NOT NULL DEFAULT 'REQUESTED'
                         CHECK (state IN ('REQUESTED', 'ACCEPTED', 'HANDED_OVER', 'RETURNED', 'DECLINED', 'CANCELLED')),
    requested_at         DATETIME NOT NULL,
    accepted_at          DATETIME,
    handed_over_at       DATETIME,
    returned_at          DATETIME,
    cancelled_at         DATETIME,
    expected_return_date DATETIME
);

CREATE INDEX IF NOT EXISTS idx_loans_borrower ON loans(borrower_id);

-- At most one active loan per item.
CREATE UNIQUE INDEX IF NOT EXISTS idx_loans_active_item
    ON loans(item_id) WHERE state IN ('REQUESTED', 'ACCEPTED', 'HANDED_OVER');

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
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
