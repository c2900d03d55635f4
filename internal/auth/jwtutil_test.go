package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	secret := []byte("secret")
	token, err := SignHS256(map[string]any{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := ParseAndVerifyHS256(token, secret)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims["sub"] != "user-1" {
		t.Fatalf("expected sub user-1, got %v", claims["sub"])
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	secret := []byte("secret")
	token, err := SignHS256(map[string]any{"sub": "user-1"}, secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	parts := strings.Split(token, ".")
	forged, err := SignHS256(map[string]any{"sub": "user-2"}, []byte("other"))
	if err != nil {
		t.Fatalf("sign forged: %v", err)
	}
	tampered := strings.Split(forged, ".")[0] + "." + strings.Split(forged, ".")[1] + "." + parts[2]

	if _, err := ParseAndVerifyHS256(tampered, secret); err == nil {
		t.Fatal("expected tampered token to be rejected")
	}
	if _, err := ParseAndVerifyHS256(forged, secret); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	secret := []byte("secret")
	token, err := SignHS256(map[string]any{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	}, secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = ParseAndVerifyHS256(token, secret)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}
