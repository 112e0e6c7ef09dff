// AngelaMos | 2026
// security_test.go

package core

import (
	"strings"
	"testing"
)

func TestGenerateInviteToken(t *testing.T) {
	seen := make(map[string]bool)

	for range 100 {
		token, err := GenerateInviteToken()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if token == "" {
			t.Fatal("expected a non-empty token")
		}
		if seen[token] {
			t.Fatal("duplicate token generated")
		}
		seen[token] = true
	}
}

func TestGenerateInviteTokenURLSafe(t *testing.T) {
	token, err := GenerateInviteToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// Tokens are embedded in acceptance links; they must survive a URL
	// path segment without escaping.
	if strings.ContainsAny(token, "/+?#& ") {
		t.Fatalf("token %q contains URL-unsafe characters", token)
	}
}

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	ok, _, err := VerifyPasswordTimingSafe("correct horse battery", &hash)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("expected password to verify")
	}

	ok, _, err = VerifyPasswordTimingSafe("wrong password", &hash)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("wrong password must not verify")
	}
}
