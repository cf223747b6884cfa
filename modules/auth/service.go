package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	domain "github.com/Rahim-U/horizon-labs-assessment/domain/user"
)

// Account lockout policy.
const (
	MaxFailedAttempts = 5
	LockoutDuration   = 15 * time.Minute
)

var (
	// ErrInvalidCredentials is returned when login credentials are invalid,
	// the account is locked, or the account is inactive. The cases are
	// deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid email or password, or account is locked")
	// ErrInvalidEmail is returned when email format is invalid.
	ErrInvalidEmail = errors.New("invalid email format")
)

// Mailer delivers account lifecycle emails. Failures are logged, not
// surfaced: a broken mail relay must not block registration.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, username, token string) error
	SendPasswordResetEmail(ctx context.Context, to, username, token string) error
}

// AuthService handles authentication business logic.
type AuthService struct {
	repo   *UserRepository
	hasher *PasswordHasher
	jwt    *JWTManager
	mailer Mailer
	now    func() time.Time
}

// NewAuthService creates a new AuthService. mailer may be nil, in which
// case no emails are sent.
func NewAuthService(repo *UserRepository, hasher *PasswordHasher, jwt *JWTManager, mailer Mailer) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		jwt:    jwt,
		mailer: mailer,
		now:    time.Now,
	}
}

// Register creates a new user account and sends a verification email.
func (s *AuthService) Register(ctx context.Context, email, username, password string) (*domain.User, *domain.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	if _, err := mail.ParseAddress(email); err != nil {
		return nil, nil, ErrInvalidEmail
	}
	if username == "" {
		return nil, nil, fmt.Errorf("%w: username cannot be empty", ErrInvalidEmail)
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return nil, nil, err
	}

	exists, err := s.repo.EmailExists(email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, nil, ErrUserExists
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		IsActive:     true,
	}

	if err := s.repo.Create(user); err != nil {
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.sendVerification(ctx, user)

	tokens, err := s.generateTokenPair(user.ID, user.Email)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// Login authenticates a user and returns tokens.
// The account is locked for LockoutDuration after MaxFailedAttempts
// consecutive failures; a successful login resets the counter.
func (s *AuthService) Login(_ context.Context, email, password string) (*domain.User, *domain.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to find user: %w", err)
	}

	now := s.now()
	if user.AccountLockedUntil != nil {
		if user.Locked(now) {
			return nil, nil, ErrInvalidCredentials
		}
		// Lockout expired, reset the counter before re-checking credentials.
		if err := s.repo.ClearLockout(user); err != nil {
			return nil, nil, fmt.Errorf("failed to clear lockout: %w", err)
		}
	}

	if !user.IsActive {
		return nil, nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		var lockedUntil *time.Time
		if user.FailedLoginAttempts+1 >= MaxFailedAttempts {
			until := now.Add(LockoutDuration)
			lockedUntil = &until
			log.Printf("[auth] Account locked until %s: %s", until.Format(time.RFC3339), user.Email)
		}
		if err := s.repo.RecordFailedLogin(user, now, lockedUntil); err != nil {
			return nil, nil, fmt.Errorf("failed to record login attempt: %w", err)
		}
		return nil, nil, ErrInvalidCredentials
	}

	if user.FailedLoginAttempts > 0 {
		if err := s.repo.ClearLockout(user); err != nil {
			return nil, nil, fmt.Errorf("failed to clear lockout: %w", err)
		}
	}

	tokens, err := s.generateTokenPair(user.ID, user.Email)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// RefreshTokens generates new access and refresh tokens.
func (s *AuthService) RefreshTokens(_ context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	user, err := s.repo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokenPair(user.ID, user.Email)
}

// ValidateToken validates an access token and returns claims.
func (s *AuthService) ValidateToken(_ context.Context, token string) (*domain.Claims, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	return &domain.Claims{
		UserID: claims.UserID,
		Email:  claims.Email,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(_ context.Context, userID uint) (*domain.User, error) {
	return s.repo.FindByID(userID)
}

// VerifyEmail marks the account behind a verification token as verified.
// Verifying an already-verified account succeeds.
func (s *AuthService) VerifyEmail(_ context.Context, token string) error {
	claims, err := s.jwt.ValidateTokenOfType(token, TokenTypeEmailVerification)
	if err != nil {
		return err
	}

	user, err := s.repo.FindByEmail(claims.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	if user.IsVerified {
		return nil
	}
	return s.repo.MarkVerified(user)
}

// RequestPasswordReset emails a reset link to the given address. Unknown
// addresses succeed silently to prevent email enumeration.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	token, err := s.jwt.GeneratePasswordResetToken(user.Email)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, user.Username, token); err != nil {
			log.Printf("[auth] Failed to send password reset email to %s: %v", user.Email, err)
		}
	}
	return nil
}

// ResetPassword sets a new password for the account behind a reset token
// and clears any lockout state.
func (s *AuthService) ResetPassword(_ context.Context, token, newPassword string) error {
	if err := ValidatePasswordStrength(newPassword); err != nil {
		return err
	}

	claims, err := s.jwt.ValidateTokenOfType(token, TokenTypePasswordReset)
	if err != nil {
		return err
	}

	user, err := s.repo.FindByEmail(claims.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.repo.UpdatePassword(user, passwordHash)
}

// ResendVerification re-sends the verification email for an unverified
// account. Unknown or already-verified addresses succeed silently.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user.IsVerified {
		return nil
	}

	s.sendVerification(ctx, user)
	return nil
}

// sendVerification emails a verification link, logging delivery failures.
func (s *AuthService) sendVerification(ctx context.Context, user *domain.User) {
	if s.mailer == nil {
		return
	}
	token, err := s.jwt.GenerateEmailVerificationToken(user.Email)
	if err != nil {
		log.Printf("[auth] Failed to generate verification token for %s: %v", user.Email, err)
		return
	}
	if err := s.mailer.SendVerificationEmail(ctx, user.Email, user.Username, token); err != nil {
		log.Printf("[auth] Failed to send verification email to %s: %v", user.Email, err)
	}
}

// generateTokenPair generates both access and refresh tokens.
func (s *AuthService) generateTokenPair(userID uint, email string) (*domain.TokenPair, error) {
	accessToken, err := s.jwt.GenerateAccessToken(userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwt.GenerateRefreshToken(userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.jwt.AccessTokenDuration(),
		TokenType:    "bearer",
	}, nil
}
