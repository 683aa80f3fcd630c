package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("secret1", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "secret1" {
		t.Fatalf("expected password to be hashed")
	}

	ok, err := ComparePassword(hash, "secret1")
	if err != nil {
		t.Fatalf("ComparePassword returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected correct password to verify")
	}

	ok, err = ComparePassword(hash, "secret1x")
	if err != nil {
		t.Fatalf("mismatch must not be an error, got: %v", err)
	}
	if ok {
		t.Fatalf("expected wrong password to fail verification")
	}
}

func TestHashPasswordSaltsPerCall(t *testing.T) {
	first, err := HashPassword("secret1", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	second, err := HashPassword("secret1", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct hashes for the same password")
	}
}

func TestHashPasswordRejectsBadInput(t *testing.T) {
	if _, err := HashPassword("", bcrypt.MinCost); err == nil {
		t.Fatalf("expected error for empty password")
	}
	if _, err := HashPassword(strings.Repeat("a", 73), bcrypt.MinCost); err == nil {
		t.Fatalf("expected error for oversized password")
	}
}

func TestComparePasswordMalformedHash(t *testing.T) {
	if _, err := ComparePassword("not-a-bcrypt-hash", "whatever"); err == nil {
		t.Fatalf("expected error for malformed stored hash")
	}
}
