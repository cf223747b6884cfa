package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"valid", "Passw0rd!", nil},
		{"valid with other special", "Abcdef1{", nil},
		{"too short", "Ab1!", ErrWeakPassword},
		{"no uppercase", "passw0rd!", ErrWeakPassword},
		{"no lowercase", "PASSW0RD!", ErrWeakPassword},
		{"no digit", "Password!", ErrWeakPassword},
		{"no special char", "Passw0rdX", ErrWeakPassword},
		{"empty", "", ErrWeakPassword},
		{"too long", "A1!" + strings.Repeat("a", 70), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePasswordStrength(tt.password)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidatePasswordStrength(%q) = %v, want nil", tt.password, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidatePasswordStrength(%q) = %v, want %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestPasswordHashAndVerify(t *testing.T) {
	hasher := &PasswordHasher{cost: bcrypt.MinCost}

	hash, err := hasher.Hash("Passw0rd!")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "Passw0rd!" {
		t.Fatal("hash equals plaintext")
	}
	if !hasher.Verify("Passw0rd!", hash) {
		t.Error("Verify() = false for correct password")
	}
	if hasher.Verify("wrong", hash) {
		t.Error("Verify() = true for wrong password")
	}
}

func TestPasswordHashRejectsOverlongInput(t *testing.T) {
	hasher := &PasswordHasher{cost: bcrypt.MinCost}
	if _, err := hasher.Hash(strings.Repeat("a", 80)); err == nil {
		t.Error("Hash() accepted input beyond the bcrypt limit")
	}
}
