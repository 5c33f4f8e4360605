package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/kolcson/internal/db"
	"github.com/erazemk/kolcson/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "testuser", "hash123", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Username != "testuser" {
		t.Errorf("expected username 'testuser', got %q", user.Username)
	}
	if user.Role != model.RoleUser {
		t.Errorf("expected role 'user', got %q", user.Role)
	}

	got, err := GetUser(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Username != "testuser" {
		t.Errorf("expected username 'testuser', got %q", got.Username)
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "anna", "hash", model.RoleUser)
	_, err := CreateUser(ctx, database, "anna", "hash", model.RoleUser)
	if !errors.Is(err, model.ErrNotAllowed) {
		t.Errorf("expected ErrNotAllowed for taken username, got %v", err)
	}
}

func TestGetUserByUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "alice", "hash", model.RoleAdmin)

	user, err := GetUserByUsername(ctx, database, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}

	missing, err := GetUserByUsername(ctx, database, "bob")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestDeleteUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "deleteme", "hash", model.RoleUser)
	if err := DeleteUser(ctx, database, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	users, _ := ListUsers(ctx, database)
	if len(users) != 0 {
		t.Errorf("expected 0 users after delete, got %d", len(users))
	}

	// The username is free again.
	if _, err := CreateUser(ctx, database, "deleteme", "hash", model.RoleUser); err != nil {
		t.Errorf("expected username reuse after delete, got %v", err)
	}

	if err := DeleteUser(ctx, database, user.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestUpdateUserPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "pwuser", "oldhash", model.RoleUser)
	UpdateUserPassword(ctx, database, user.ID, "newhash")

	got, _ := GetUser(ctx, database, user.ID)
	if got.PasswordHash != "newhash" {
		t.Errorf("expected password hash 'newhash', got %q", got.PasswordHash)
	}
}

func TestRegisterUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := RegisterUser(ctx, database, "ana", "hash", model.RoleUser, "Ana K.")
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}

	p, err := GetProfile(ctx, database, user.ID)
	if err != nil || p == nil {
		t.Fatalf("expected profile with the new user, got %v %v", p, err)
	}
	if p.Name() != "Ana K." || p.Verified {
		t.Errorf("unexpected profile: %+v", p)
	}

	_, err = RegisterUser(ctx, database, "ana", "hash", model.RoleUser, "")
	if !errors.Is(err, model.ErrNotAllowed) {
		t.Errorf("expected ErrNotAllowed for taken username, got %v", err)
	}

	// The failed registration left no user or profile behind.
	var users, profiles int
	database.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&users)
	database.QueryRow(`SELECT COUNT(*) FROM profiles`).Scan(&profiles)
	if users != 1 || profiles != 1 {
		t.Errorf("expected 1 user and 1 profile, got %d and %d", users, profiles)
	}
}
