package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/kolcson/internal/model"
)

// ProfileUpdate carries the user-editable profile fields.
type ProfileUpdate struct {
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	About       string `json:"about"`
}

// EnsureProfile creates an empty profile for userID if none exists.
// It is safe to call any number of times.
func EnsureProfile(ctx context.Context, db *sql.DB, userID int64) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO profiles (user_id) VALUES (?)`, userID,
	)
	if err != nil {
		return fmt.Errorf("ensuring profile: %w", err)
	}
	return nil
}

const profileSelect = `SELECT p.user_id, u.username, p.display_name, p.phone, p.address, p.about,
       p.avatar IS NOT NULL, p.verified
  FROM profiles p
  JOIN users u ON u.id = p.user_id`

func scanProfile(row *sql.Row) (*model.Profile, error) {
	p := &model.Profile{}
	err := row.Scan(&p.UserID, &p.Username, &p.DisplayName, &p.Phone, &p.Address, &p.About, &p.HasAvatar, &p.Verified)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return p, nil
}

// GetProfile returns the profile of a user, or nil if it does not exist.
func GetProfile(ctx context.Context, db *sql.DB, userID int64) (*model.Profile, error) {
	return scanProfile(db.QueryRowContext(ctx, profileSelect+` WHERE p.user_id = ?`, userID))
}

// GetProfileByUsername returns the profile of an active user.
func GetProfileByUsername(ctx context.Context, db *sql.DB, username string) (*model.Profile, error) {
	return scanProfile(db.QueryRowContext(ctx,
		profileSelect+` WHERE u.username = ? AND u.deleted_at IS NULL`, username))
}

// UpdateProfile replaces the editable profile fields.
func UpdateProfile(ctx context.Context, db *sql.DB, userID int64, upd ProfileUpdate) error {
	result, err := db.ExecContext(ctx,
		`UPDATE profiles SET display_name = ?, phone = ?, address = ?, about = ? WHERE user_id = ?`,
		upd.DisplayName, upd.Phone, upd.Address, upd.About, userID,
	)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("profile of user %d: %w", userID, model.ErrNotFound)
	}
	return nil
}

// SetVerified marks a user's profile as verified or not.
func SetVerified(ctx context.Context, db *sql.DB, userID int64, verified bool) error {
	result, err := db.ExecContext(ctx,
		`UPDATE profiles SET verified = ? WHERE user_id = ?`, verified, userID,
	)
	if err != nil {
		return fmt.Errorf("setting verified: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("profile of user %d: %w", userID, model.ErrNotFound)
	}
	return nil
}

// SetAvatar stores a user's avatar image.
func SetAvatar(ctx context.Context, db *sql.DB, userID int64, data []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE profiles SET avatar = ?, avatar_mime = ? WHERE user_id = ?`,
		data, mime, userID,
	)
	if err != nil {
		return fmt.Errorf("setting avatar: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("profile of user %d: %w", userID, model.ErrNotFound)
	}
	return nil
}

// GetAvatar returns a user's avatar data and MIME type, or nil if unset.
func GetAvatar(ctx context.Context, db *sql.DB, userID int64) ([]byte, string, error) {
	var data []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT avatar, avatar_mime FROM profiles WHERE user_id = ?`, userID,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting avatar: %w", err)
	}
	return data, mime.String, nil
}
