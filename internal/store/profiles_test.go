package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/kolcson/internal/db"
	"github.com/erazemk/kolcson/internal/model"
)

func TestEnsureProfileIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "anna", "hash", model.RoleUser)

	if p, _ := GetProfile(ctx, database, user.ID); p != nil {
		t.Fatal("expected no profile before EnsureProfile")
	}

	for i := 0; i < 3; i++ {
		if err := EnsureProfile(ctx, database, user.ID); err != nil {
			t.Fatalf("EnsureProfile #%d: %v", i+1, err)
		}
	}

	p, err := GetProfile(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p == nil || p.Username != "anna" || p.Verified || p.HasAvatar {
		t.Errorf("unexpected fresh profile: %+v", p)
	}
	if p.Name() != "anna" {
		t.Errorf("expected name to fall back to username, got %q", p.Name())
	}
}

func TestUpdateProfileAndVerify(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "bela", "hash", model.RoleUser)
	EnsureProfile(ctx, database, user.ID)

	err := UpdateProfile(ctx, database, user.ID, ProfileUpdate{DisplayName: "Béla", Phone: "+36 1 234"})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if err := SetVerified(ctx, database, user.ID, true); err != nil {
		t.Fatalf("SetVerified: %v", err)
	}

	p, _ := GetProfileByUsername(ctx, database, "bela")
	if p.Name() != "Béla" || p.Phone != "+36 1 234" || !p.Verified {
		t.Errorf("unexpected profile after update: %+v", p)
	}
}

func TestProfileMissing(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if err := UpdateProfile(ctx, database, 42, ProfileUpdate{}); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := SetVerified(ctx, database, 42, true); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAvatar(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "cili", "hash", model.RoleUser)
	EnsureProfile(ctx, database, user.ID)

	if err := SetAvatar(ctx, database, user.ID, []byte("jpeg"), "image/jpeg"); err != nil {
		t.Fatalf("SetAvatar: %v", err)
	}

	data, mime, err := GetAvatar(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetAvatar: %v", err)
	}
	if string(data) != "jpeg" || mime != "image/jpeg" {
		t.Errorf("unexpected avatar %q %q", data, mime)
	}

	p, _ := GetProfile(ctx, database, user.ID)
	if !p.HasAvatar {
		t.Error("expected HasAvatar after SetAvatar")
	}
}
