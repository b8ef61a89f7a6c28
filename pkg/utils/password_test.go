package utils

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hashed, err := HashPassword("s3cret-passw0rd")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	ok, err := VerifyPassword("s3cret-passw0rd", hashed)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if !ok {
		t.Fatal("correct password did not verify")
	}

	ok, err = VerifyPassword("wrong-password", hashed)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if ok {
		t.Fatal("wrong password verified")
	}
}

func TestHashPasswordSaltsAreUnique(t *testing.T) {
	a, err := HashPassword("same input")
	if err != nil {
		t.Fatal(err)
	}
	b, err := HashPassword("same input")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("two hashes of the same password are identical, salt is not random")
	}
}

func TestHashPasswordTokenFormat(t *testing.T) {
	hashed, err := HashPassword("anything")
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(hashed, "$")
	if len(parts) != 2 {
		t.Fatalf("token has %d parts, want 2 (salt$hash)", len(parts))
	}
	if parts[0] == "" || parts[1] == "" {
		t.Fatalf("token has empty part: %q", hashed)
	}
}

func TestVerifyPasswordMalformedToken(t *testing.T) {
	for _, stored := range []string{"", "nodollar", "a$b$c", "!!!$???"} {
		if ok, err := VerifyPassword("pw", stored); err == nil && ok {
			t.Errorf("malformed token %q verified", stored)
		}
	}
}

func TestGenerateRandomSalt(t *testing.T) {
	salt, err := GenerateRandomSalt(32)
	if err != nil {
		t.Fatalf("GenerateRandomSalt: %v", err)
	}
	if len(salt) != 32 {
		t.Fatalf("salt length = %d, want 32", len(salt))
	}
	for _, r := range salt {
		if !strings.ContainsRune(saltAlphabet, r) {
			t.Fatalf("salt contains %q, outside the alphabet", r)
		}
	}
}
