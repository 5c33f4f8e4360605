// Package store implements persistence and the lending rules that must hold
// across concurrent requests. Functions take the acting user explicitly and
// never log; failures are returned as wrapped model errors.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/erazemk/kolcson/internal/model"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "UNIQUE")
	}
	return false
}

// itemOwner returns the owner of an item. Items of deleted users are
// reported as missing.
func itemOwner(ctx context.Context, q querier, itemID int64) (int64, error) {
	var ownerID int64
	err := q.QueryRowContext(ctx,
		`SELECT i.owner_id FROM items i
		   JOIN users u ON u.id = i.owner_id
		  WHERE i.id = ? AND u.deleted_at IS NULL`, itemID,
	).Scan(&ownerID)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("item %d: %w", itemID, model.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("getting item owner: %w", err)
	}
	return ownerID, nil
}

// requireOwner fails with ErrUnauthorized unless actorID owns the item.
func requireOwner(ctx context.Context, q querier, itemID, actorID int64) error {
	ownerID, err := itemOwner(ctx, q, itemID)
	if err != nil {
		return err
	}
	if ownerID != actorID {
		return fmt.Errorf("user %d does not own item %d: %w", actorID, itemID, model.ErrUnauthorized)
	}
	return nil
}
