package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/kolcson/internal/model"
)

// ItemFilter narrows ListItems. Zero values match everything.
type ItemFilter struct {
	Query    string // substring of title or description
	Category string // exact, case-insensitive
	OwnerID  int64
}

const itemSelect = `SELECT i.id, i.owner_id, i.title, i.description, i.category, i.created_at, i.updated_at,
       COALESCE(NULLIF(p.display_name, ''), u.username)
  FROM items i
  JOIN users u ON u.id = i.owner_id
  LEFT JOIN profiles p ON p.user_id = i.owner_id
 WHERE u.deleted_at IS NULL`

// CreateItem creates a new item owned by ownerID.
func CreateItem(ctx context.Context, db *sql.DB, ownerID int64, title, description, category string) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (owner_id, title, description, category) VALUES (?, ?, ?, ?)`,
		ownerID, title, description, category,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, or nil if it is missing or its owner has
// been deleted.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	item := &model.Item{}
	err := db.QueryRowContext(ctx, itemSelect+` AND i.id = ?`, id).Scan(
		&item.ID, &item.OwnerID, &item.Title, &item.Description, &item.Category,
		&item.CreatedAt, &item.UpdatedAt, &item.OwnerName,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns items of active owners matching the filter, newest first.
func ListItems(ctx context.Context, db *sql.DB, f ItemFilter) ([]model.Item, error) {
	query := itemSelect
	var args []any

	if q := strings.TrimSpace(f.Query); q != "" {
		query += ` AND (instr(lower(i.title), lower(?)) > 0 OR instr(lower(i.description), lower(?)) > 0)`
		args = append(args, q, q)
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		query += ` AND lower(i.category) = lower(?)`
		args = append(args, c)
	}
	if f.OwnerID > 0 {
		query += ` AND i.owner_id = ?`
		args = append(args, f.OwnerID)
	}

	query += ` ORDER BY i.created_at DESC, i.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Title, &item.Description, &item.Category,
			&item.CreatedAt, &item.UpdatedAt, &item.OwnerName); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateItem updates an item's details. Only the owner may do so.
func UpdateItem(ctx context.Context, db *sql.DB, id, actorID int64, title, description, category string) (*model.Item, error) {
	if err := requireOwner(ctx, db, id, actorID); err != nil {
		return nil, err
	}

	_, err := db.ExecContext(ctx,
		`UPDATE items SET title = ?, description = ?, category = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND owner_id = ?`,
		title, description, category, id, actorID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}
	return GetItem(ctx, db, id)
}

// DeleteItem deletes an item together with its images and loans.
// Only the owner may do so.
func DeleteItem(ctx context.Context, db *sql.DB, id, actorID int64) error {
	if err := requireOwner(ctx, db, id, actorID); err != nil {
		return err
	}

	_, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ? AND owner_id = ?`, id, actorID)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}
