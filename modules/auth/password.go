package auth

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultBcryptCost is the default cost for bcrypt hashing.
	// A cost of 12 provides good security while keeping hashing time reasonable.
	DefaultBcryptCost = 12

	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 8
	// MaxPasswordLength is bcrypt's input limit.
	MaxPasswordLength = 72

	specialChars = "!@#$%^&*(),.?\":{}|<>"
)

var (
	// ErrWeakPassword is the sentinel wrapped by all strength failures.
	ErrWeakPassword = errors.New("password does not meet strength requirements")
	// ErrPasswordTooLong is returned when password exceeds bcrypt's 72-byte limit.
	ErrPasswordTooLong = errors.New("password must be at most 72 characters")
)

// PasswordHasher provides password hashing and verification functionality.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a new PasswordHasher with default cost.
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{
		cost: DefaultBcryptCost,
	}
}

// Hash generates a bcrypt hash of the given password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify checks if the provided password matches the hash.
func (h *PasswordHasher) Verify(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ValidatePasswordStrength checks the password against the strength policy:
// at least 8 characters with one uppercase letter, one lowercase letter,
// one digit and one special character. The returned error wraps
// ErrWeakPassword and carries a user-facing reason.
func ValidatePasswordStrength(password string) error {
	if len(password) < MinPasswordLength {
		return weakErr("password must be at least 8 characters long")
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(specialChars, r):
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return weakErr("password must contain at least one uppercase letter")
	case !hasLower:
		return weakErr("password must contain at least one lowercase letter")
	case !hasDigit:
		return weakErr("password must contain at least one digit")
	case !hasSpecial:
		return weakErr("password must contain at least one special character")
	}
	return nil
}

func weakErr(reason string) error {
	return &weakPasswordError{reason: reason}
}

type weakPasswordError struct {
	reason string
}

func (e *weakPasswordError) Error() string { return e.reason }

func (e *weakPasswordError) Unwrap() error { return ErrWeakPassword }
