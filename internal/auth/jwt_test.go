package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erazemk/kolcson/internal/model"
)

func testUser() *model.User {
	return &model.User{ID: 1, Username: "ana", Role: model.RoleAdmin}
}

func TestIssueAndVerify(t *testing.T) {
	iss := NewIssuer("test-secret-key", 0)

	token, err := iss.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := iss.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != 1 {
		t.Errorf("expected user_id 1, got %d", claims.UserID)
	}
	if claims.Username != "ana" {
		t.Errorf("expected username 'ana', got %q", claims.Username)
	}
	if claims.Role != model.RoleAdmin {
		t.Errorf("expected role 'admin', got %q", claims.Role)
	}
	if claims.ID == "" {
		t.Error("expected token ID to be set")
	}
}

func TestIssueUniqueIDs(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	a, _ := iss.Issue(testUser())
	b, _ := iss.Issue(testUser())

	ca, _ := iss.Verify(a)
	cb, _ := iss.Verify(b)
	if ca.ID == cb.ID {
		t.Errorf("expected distinct token IDs, both %q", ca.ID)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	token, _ := NewIssuer("secret1", 0).Issue(testUser())

	_, err := NewIssuer("secret2", 0).Verify(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	_, err := NewIssuer("secret", 0).Verify("not-a-token")
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	iss := NewIssuer("secret", 0)
	claims := Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "old",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := iss.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewIssuer("secret", 0).Verify(token); err == nil {
		t.Error("expected unsigned token to be rejected")
	}
}

func TestTokenTTL(t *testing.T) {
	iss := NewIssuer("test", 2*time.Hour)
	token, _ := iss.Issue(testUser())
	claims, _ := iss.Verify(token)

	diff := time.Now().Add(2 * time.Hour).Sub(claims.ExpiresAt.Time)
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Error("expected matching password to pass")
	}
	if CheckPassword(hash, "wrong horse") {
		t.Error("expected wrong password to fail")
	}
}
