package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasherRoundTrip(t *testing.T) {
	h, err := NewBcryptHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcryptHasher() error = %v", err)
	}

	hash, err := h.Hash("admin123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "admin123" {
		t.Fatal("hash equals plaintext")
	}
	if !Verify(hash, "admin123") {
		t.Error("Verify() = false for the hashed password")
	}
	if Verify(hash, "admin124") {
		t.Error("Verify() = true for a different password")
	}

	again, err := h.Hash("admin123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if again == hash {
		t.Error("expected a fresh salt per hash")
	}
}

func TestNewBcryptHasherCost(t *testing.T) {
	tests := []struct {
		cost    int
		want    int
		wantErr bool
	}{
		{cost: 0, want: bcrypt.DefaultCost},
		{cost: bcrypt.MinCost, want: bcrypt.MinCost},
		{cost: 2, wantErr: true},
		{cost: bcrypt.MaxCost + 1, wantErr: true},
	}

	for _, tt := range tests {
		h, err := NewBcryptHasher(tt.cost)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NewBcryptHasher(%d) expected error", tt.cost)
			}
			continue
		}
		if err != nil {
			t.Errorf("NewBcryptHasher(%d) error = %v", tt.cost, err)
			continue
		}
		if h.Cost() != tt.want {
			t.Errorf("NewBcryptHasher(%d).Cost() = %d, want %d", tt.cost, h.Cost(), tt.want)
		}
	}
}

func TestHashRejectsBadInput(t *testing.T) {
	h, _ := NewBcryptHasher(bcrypt.MinCost)

	if _, err := h.Hash(""); err != ErrEmptyPassword {
		t.Errorf("Hash(\"\") error = %v, want ErrEmptyPassword", err)
	}
	if _, err := h.Hash(strings.Repeat("x", 73)); err == nil {
		t.Error("Hash() accepted a password longer than 72 bytes")
	}
}

func TestGeneratePassword(t *testing.T) {
	pw, err := GeneratePassword(DefaultPasswordLength)
	if err != nil {
		t.Fatalf("GeneratePassword() error = %v", err)
	}
	if len(pw) != DefaultPasswordLength {
		t.Errorf("len = %d, want %d", len(pw), DefaultPasswordLength)
	}
	for _, r := range pw {
		if !strings.ContainsRune(passwordCharset, r) {
			t.Errorf("unexpected character %q", r)
		}
	}

	other, _ := GeneratePassword(DefaultPasswordLength)
	if other == pw {
		t.Error("two generated passwords are identical")
	}

	if _, err := GeneratePassword(0); err == nil {
		t.Error("GeneratePassword(0) expected error")
	}
}
