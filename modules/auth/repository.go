package auth

import (
	"errors"
	"time"

	domain "github.com/Rahim-U/horizon-labs-assessment/domain/user"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when a user already exists.
	ErrUserExists = errors.New("user with this email already exists")
)

// UserRepository handles user persistence using GORM.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *UserRepository) Create(user *domain.User) error {
	result := r.db.Create(user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrUserExists
		}
		return result.Error
	}
	return nil
}

// FindByID finds a user by ID.
func (r *UserRepository) FindByID(id uint) (*domain.User, error) {
	var user domain.User
	result := r.db.First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// FindByEmail finds a user by email.
func (r *UserRepository) FindByEmail(email string) (*domain.User, error) {
	var user domain.User
	result := r.db.First(&user, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// EmailExists checks if a user with the given email exists.
func (r *UserRepository) EmailExists(email string) (bool, error) {
	var count int64
	result := r.db.Model(&domain.User{}).Where("email = ?", email).Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// RecordFailedLogin increments the failed-attempt counter and, once the
// limit is reached, locks the account until lockedUntil.
func (r *UserRepository) RecordFailedLogin(user *domain.User, now time.Time, lockedUntil *time.Time) error {
	user.FailedLoginAttempts++
	user.LastFailedLogin = &now
	user.AccountLockedUntil = lockedUntil

	return r.db.Model(user).Updates(map[string]any{
		"failed_login_attempts": user.FailedLoginAttempts,
		"last_failed_login":     user.LastFailedLogin,
		"account_locked_until":  user.AccountLockedUntil,
	}).Error
}

// ClearLockout resets the failed-attempt counter and lockout timestamps.
func (r *UserRepository) ClearLockout(user *domain.User) error {
	user.FailedLoginAttempts = 0
	user.LastFailedLogin = nil
	user.AccountLockedUntil = nil

	return r.db.Model(user).Updates(map[string]any{
		"failed_login_attempts": 0,
		"last_failed_login":     nil,
		"account_locked_until":  nil,
	}).Error
}

// MarkVerified flags the user's email address as verified.
func (r *UserRepository) MarkVerified(user *domain.User) error {
	user.IsVerified = true
	return r.db.Model(user).Update("is_verified", true).Error
}

// UpdatePassword replaces the stored password hash and clears lockout state.
func (r *UserRepository) UpdatePassword(user *domain.User, passwordHash string) error {
	user.PasswordHash = passwordHash
	user.FailedLoginAttempts = 0
	user.LastFailedLogin = nil
	user.AccountLockedUntil = nil

	return r.db.Model(user).Updates(map[string]any{
		"password_hash":         passwordHash,
		"failed_login_attempts": 0,
		"last_failed_login":     nil,
		"account_locked_until":  nil,
	}).Error
}
