package auth

import (
	"testing"
	"time"

	"github.com/mohitgulati1999/rfid-joinery/internal/model"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")

	token, err := IssueToken(secret, 42, model.RoleAdmin, time.Now())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	ac, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if ac.UserID != 42 {
		t.Errorf("user_id = %d, want 42", ac.UserID)
	}
	if ac.Role != model.RoleAdmin {
		t.Errorf("role = %q, want admin", ac.Role)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := IssueToken([]byte("secret-a"), 1, model.RoleMember, time.Now())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	if _, err := ParseToken([]byte("secret-b"), token); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestTokenExpired(t *testing.T) {
	secret := []byte("test-secret")

	// Issued long enough ago that the 24h TTL has passed
	token, err := IssueToken(secret, 1, model.RoleMember, time.Now().Add(-25*time.Hour))
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	if _, err := ParseToken(secret, token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestTokenGarbage(t *testing.T) {
	if _, err := ParseToken([]byte("test-secret"), "not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
