package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erazemk/kolcson/internal/model"
)

// mustUser creates a user with a profile.
func mustUser(t *testing.T, database *sql.DB, username string) *model.User {
	t.Helper()
	ctx := context.Background()
	u, err := CreateUser(ctx, database, username, "hash", model.RoleUser)
	require.NoError(t, err)
	require.NoError(t, EnsureProfile(ctx, database, u.ID))
	return u
}

// mustItem creates an item owned by owner.
func mustItem(t *testing.T, database *sql.DB, owner *model.User, title string) *model.Item {
	t.Helper()
	item, err := CreateItem(context.Background(), database, owner.ID, title, "", "")
	require.NoError(t, err)
	return item
}
