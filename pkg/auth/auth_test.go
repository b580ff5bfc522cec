package auth

import (
	"errors"
	"testing"
	"time"
)

func TestHashAndComparePassword(t *testing.T) {
	pm := NewPasswordManager()

	hash, err := pm.HashPassword("correct-horse-battery")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash == "correct-horse-battery" {
		t.Fatal("hash must not equal the plaintext password")
	}

	if err := pm.ComparePassword(hash, "correct-horse-battery"); err != nil {
		t.Errorf("expected matching password to verify, got %v", err)
	}
	if err := pm.ComparePassword(hash, "wrong-password"); err == nil {
		t.Error("expected mismatching password to fail verification")
	}
}

func TestHashPasswordRejectsWeak(t *testing.T) {
	pm := NewPasswordManager()

	if _, err := pm.HashPassword("short"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("expected ErrWeakPassword, got %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)

	token, err := tm.GenerateToken("662f0c8f9d1e4a0001aabbcc", "maria", "HOST_PRIVATE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := tm.ValidateToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != "662f0c8f9d1e4a0001aabbcc" {
		t.Errorf("expected user id to round-trip, got %q", claims.UserID)
	}
	if claims.Username != "maria" || claims.Role != "HOST_PRIVATE" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret-a", time.Hour)
	other := NewTokenManager("secret-b", time.Hour)

	token, err := tm.GenerateToken("662f0c8f9d1e4a0001aabbcc", "maria", "CLEANER")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := other.ValidateToken(token); err == nil {
		t.Error("expected validation with a different secret to fail")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", -time.Minute)

	token, err := tm.GenerateToken("662f0c8f9d1e4a0001aabbcc", "maria", "CLEANER")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := tm.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}
