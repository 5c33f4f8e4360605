package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/kolcson/internal/model"
)

const imageColumns = `id, item_id, mime, is_cover, created_at`

// AddImage adds an image to an item's gallery. When cover is set the new
// image replaces the current cover in the same transaction.
func AddImage(ctx context.Context, db *sql.DB, itemID, actorID int64, data []byte, mime string, cover bool) (*model.Image, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := requireOwner(ctx, tx, itemID, actorID); err != nil {
		return nil, err
	}

	if cover {
		if _, err := tx.ExecContext(ctx,
			`UPDATE images SET is_cover = 0 WHERE item_id = ? AND is_cover = 1`, itemID,
		); err != nil {
			return nil, fmt.Errorf("clearing cover: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO images (item_id, data, mime, is_cover) VALUES (?, ?, ?, ?)`,
		itemID, data, mime, cover,
	)
	if err != nil {
		return nil, fmt.Errorf("adding image: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting image id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing image: %w", err)
	}

	return GetImage(ctx, db, itemID, id)
}

// GetImage returns image metadata, or nil if the image does not exist or
// belongs to another item.
func GetImage(ctx context.Context, db *sql.DB, itemID, imageID int64) (*model.Image, error) {
	img := &model.Image{}
	err := db.QueryRowContext(ctx,
		`SELECT `+imageColumns+` FROM images WHERE id = ? AND item_id = ?`, imageID, itemID,
	).Scan(&img.ID, &img.ItemID, &img.MIME, &img.IsCover, &img.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting image: %w", err)
	}
	return img, nil
}

// ListImages returns an item's gallery, cover first, then in upload order.
func ListImages(ctx context.Context, db *sql.DB, itemID int64) ([]model.Image, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+imageColumns+` FROM images WHERE item_id = ? ORDER BY is_cover DESC, id`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}
	defer rows.Close()

	var images []model.Image
	for rows.Next() {
		var img model.Image
		if err := rows.Scan(&img.ID, &img.ItemID, &img.MIME, &img.IsCover, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// GetMainImage returns the item's cover image, else its oldest image,
// else nil.
func GetMainImage(ctx context.Context, db *sql.DB, itemID int64) (*model.Image, error) {
	images, err := ListImages(ctx, db, itemID)
	if err != nil {
		return nil, err
	}
	return model.MainImage(images), nil
}

// GetImageData returns the stored bytes and MIME type of an image, or nil
// if it does not exist under the item.
func GetImageData(ctx context.Context, db *sql.DB, itemID, imageID int64) ([]byte, string, error) {
	var data []byte
	var mime string
	err := db.QueryRowContext(ctx,
		`SELECT data, mime FROM images WHERE id = ? AND item_id = ?`, imageID, itemID,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting image data: %w", err)
	}
	return data, mime, nil
}

// SetCover makes imageID the only cover image of itemID. Clearing the
// siblings and flagging the target happen in one transaction, so concurrent
// calls on the same item cannot leave two covers.
func SetCover(ctx context.Context, db *sql.DB, itemID, imageID, actorID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := requireOwner(ctx, tx, itemID, actorID); err != nil {
		return err
	}

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM images WHERE id = ? AND item_id = ?)`, imageID, itemID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking image: %w", err)
	}
	if !exists {
		return fmt.Errorf("image %d of item %d: %w", imageID, itemID, model.ErrNotFound)
	}

	// Clear first: the partial unique index rejects a second cover even
	// transiently within one statement.
	if _, err := tx.ExecContext(ctx,
		`UPDATE images SET is_cover = 0 WHERE item_id = ? AND id <> ? AND is_cover = 1`, itemID, imageID,
	); err != nil {
		return fmt.Errorf("clearing cover: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE images SET is_cover = 1 WHERE id = ? AND item_id = ?`, imageID, itemID,
	); err != nil {
		return fmt.Errorf("setting cover: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cover: %w", err)
	}
	return nil
}

// DeleteImage removes an image from an item's gallery.
func DeleteImage(ctx context.Context, db *sql.DB, itemID, imageID, actorID int64) error {
	if err := requireOwner(ctx, db, itemID, actorID); err != nil {
		return err
	}

	result, err := db.ExecContext(ctx,
		`DELETE FROM images WHERE id = ? AND item_id = ?`, imageID, itemID,
	)
	if err != nil {
		return fmt.Errorf("deleting image: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("image %d of item %d: %w", imageID, itemID, model.ErrNotFound)
	}
	return nil
}
