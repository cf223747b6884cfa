package api

import (
	"time"

	domain "github.com/Rahim-U/horizon-labs-assessment/domain/user"
)

// ErrorResponse is the error body shape used by every endpoint.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// VerifyEmailRequest carries an email verification token.
type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// PasswordResetRequest asks for a reset email.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirm carries a reset token and the new password.
type PasswordResetConfirm struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ResendVerificationRequest asks for the verification email again.
type ResendVerificationRequest struct {
	Email string `json:"email"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID         uint      `json:"id"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

// TokenResponse represents issued tokens.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	TokenType    string `json:"token_type"`
}

// AuthResponse pairs the user with their tokens, as returned by
// register and login.
type AuthResponse struct {
	User  UserResponse  `json:"user"`
	Token TokenResponse `json:"token"`
}

// MessageResponse is a generic acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// newUserResponse maps a domain user onto the wire shape.
func newUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}

// newAuthResponse maps a user and token pair onto the wire shape.
func newAuthResponse(u *domain.User, t *domain.TokenPair) AuthResponse {
	return AuthResponse{
		User: newUserResponse(u),
		Token: TokenResponse{
			AccessToken:  t.AccessToken,
			RefreshToken: t.RefreshToken,
			ExpiresIn:    t.ExpiresIn,
			TokenType:    t.TokenType,
		},
	}
}
