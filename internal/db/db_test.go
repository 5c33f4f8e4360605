package db

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenAppliesPragmas(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "p.sqlite3"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	// Hold several connections at once so each one is checked.
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		conn, err := database.Conn(ctx)
		if err != nil {
			t.Fatalf("Conn: %v", err)
		}
		defer conn.Close()

		var fk, timeout int
		conn.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk)
		conn.QueryRowContext(ctx, `PRAGMA busy_timeout`).Scan(&timeout)
		if fk != 1 || timeout != 5000 {
			t.Errorf("connection %d: foreign_keys=%d busy_timeout=%d", i, fk, timeout)
		}
	}

	var mode string
	database.QueryRow(`PRAGMA journal_mode`).Scan(&mode)
	if mode != "wal" {
		t.Errorf("expected WAL journal mode, got %q", mode)
	}
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	database := NewTestDB(t)
	if err := EnsureSchema(database); err != nil {
		t.Errorf("second EnsureSchema: %v", err)
	}
}

func TestSchemaIndexes(t *testing.T) {
	database := NewTestDB(t)

	mustExec := func(q string, args ...any) {
		t.Helper()
		if _, err := database.Exec(q, args...); err != nil {
			t.Fatalf("%s: %v", q, err)
		}
	}
	mustExec(`INSERT INTO users (id, username, password_hash) VALUES (1, 'a', 'x'), (2, 'b', 'x')`)
	mustExec(`INSERT INTO items (id, owner_id, title) VALUES (1, 1, 'Drill')`)

	mustExec(`INSERT INTO images (item_id, data, mime, is_cover) VALUES (1, x'00', 'image/jpeg', 1)`)
	if _, err := database.Exec(`INSERT INTO images (item_id, data, mime, is_cover) VALUES (1, x'00', 'image/jpeg', 1)`); err == nil {
		t.Error("expected second cover image to be rejected")
	}
	mustExec(`INSERT INTO images (item_id, data, mime, is_cover) VALUES (1, x'00', 'image/jpeg', 0)`)

	mustExec(`INSERT INTO loans (item_id, borrower_id, state, requested_at) VALUES (1, 2, 'REQUESTED', CURRENT_TIMESTAMP)`)
	if _, err := database.Exec(`INSERT INTO loans (item_id, borrower_id, state, requested_at) VALUES (1, 2, 'ACCEPTED', CURRENT_TIMESTAMP)`); err == nil {
		t.Error("expected second active loan to be rejected")
	}
	mustExec(`INSERT INTO loans (item_id, borrower_id, state, requested_at) VALUES (1, 2, 'RETURNED', CURRENT_TIMESTAMP)`)

	if _, err := database.Exec(`INSERT INTO loans (item_id, borrower_id, state, requested_at) VALUES (1, 2, 'LOST', CURRENT_TIMESTAMP)`); err == nil {
		t.Error("expected unknown loan state to be rejected")
	}
	if _, err := database.Exec(`INSERT INTO items (owner_id, title) VALUES (99, 'Orphan')`); err == nil {
		t.Error("expected foreign key violation for unknown owner")
	}

	mustExec(`DELETE FROM items WHERE id = 1`)
	var n int
	database.QueryRow(`SELECT (SELECT COUNT(*) FROM images) + (SELECT COUNT(*) FROM loans)`).Scan(&n)
	if n != 0 {
		t.Errorf("expected images and loans to cascade, %d rows left", n)
	}
}
