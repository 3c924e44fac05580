package security

import (
	"strings"
	"testing"

	"github.com/replate-app/replate-backend/pkg/config"
)

func TestHashAndVerifyRoundTrip(t *testing.T) {
	cfg := config.PasswordConfig{BcryptCost: 4}

	hash, err := HashPassword("correct horse battery", cfg)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Fatalf("expected bcrypt hash, got %q", hash)
	}

	ok, err := VerifyPassword("correct horse battery", hash)
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}

	ok, err = VerifyPassword("wrong password!", hash)
	if err != nil {
		t.Fatalf("mismatch must not error: %v", err)
	}
	if ok {
		t.Fatalf("expected mismatch")
	}
}

func TestHashRejectsShortPasswords(t *testing.T) {
	if _, err := HashPassword("short", config.PasswordConfig{}); err == nil {
		t.Fatalf("expected error for short password")
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	if _, err := VerifyPassword("whatever-pass", "not-a-hash"); err == nil {
		t.Fatalf("expected error for malformed hash")
	}
}
