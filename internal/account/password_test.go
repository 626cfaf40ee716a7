package account

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	stored, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	parts := strings.SplitN(stored, ":", 2)
	if len(parts) != 2 {
		t.Fatalf("stored value %q not in salt:hash form", stored)
	}
	if len(parts[0]) != saltBytes*2 {
		t.Errorf("salt hex length = %d, want %d", len(parts[0]), saltBytes*2)
	}
	if len(parts[1]) != hashKeyLen*2 {
		t.Errorf("hash hex length = %d, want %d", len(parts[1]), hashKeyLen*2)
	}

	if !VerifyPassword("correct horse battery staple", stored) {
		t.Error("correct password did not verify")
	}
	if VerifyPassword("wrong password", stored) {
		t.Error("wrong password verified")
	}
	if VerifyPassword("", stored) {
		t.Error("empty password verified")
	}
}

func TestHashPasswordSaltsAreUnique(t *testing.T) {
	a, err := HashPassword("same")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	b, err := HashPassword("same")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if a == b {
		t.Error("two hashes of the same password are identical; salt is not random")
	}
	if !VerifyPassword("same", a) || !VerifyPassword("same", b) {
		t.Error("independently salted hashes should both verify")
	}
}

func TestVerifyPasswordMalformedStored(t *testing.T) {
	tests := []struct {
		name   string
		stored string
	}{
		{"empty", ""},
		{"no separator", "deadbeef"},
		{"bad salt hex", "zz:deadbeef"},
		{"bad hash hex", "deadbeef:zz"},
		{"empty halves", ":"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if VerifyPassword("anything", tt.stored) {
				t.Errorf("VerifyPassword accepted malformed stored value %q", tt.stored)
			}
		})
	}
}
