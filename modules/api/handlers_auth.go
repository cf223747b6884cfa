package api

import (
	"errors"
	"log"

	"github.com/Rahim-U/horizon-labs-assessment/modules/auth"
	"github.com/gofiber/fiber/v2"
)

// Register handles user registration.
func (m *Module) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.Email == "" || req.Username == "" || req.Password == "" {
		return badRequest(c, "Email, username, and password are required")
	}

	user, tokens, err := m.authService.Register(c.UserContext(), req.Email, req.Username, req.Password)
	if err != nil {
		return m.handleAuthError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(newAuthResponse(user, tokens))
}

// Login handles user login. The credentials arrive form-encoded with the
// email in the username field, OAuth2 password-grant style.
func (m *Module) Login(c *fiber.Ctx) error {
	email := c.FormValue("username")
	password := c.FormValue("password")

	if email == "" || password == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{
			Detail: "Username (email) and password are required",
		})
	}

	user, tokens, err := m.authService.Login(c.UserContext(), email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			log.Printf("[api] Failed login attempt for %s", email)
			c.Set("WWW-Authenticate", "Bearer")
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Detail: "Invalid email or password, or account is locked",
			})
		}
		return m.handleAuthError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(newAuthResponse(user, tokens))
}

// Refresh handles token refresh.
func (m *Module) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.RefreshToken == "" {
		return badRequest(c, "Refresh token is required")
	}

	tokens, err := m.authService.RefreshTokens(c.UserContext(), req.RefreshToken)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Detail: "Invalid or expired refresh token",
		})
	}

	return c.Status(fiber.StatusOK).JSON(TokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
		TokenType:    tokens.TokenType,
	})
}

// VerifyEmail handles email verification.
func (m *Module) VerifyEmail(c *fiber.Ctx) error {
	var req VerifyEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Token == "" {
		return badRequest(c, "Verification token is required")
	}

	if err := m.authService.VerifyEmail(c.UserContext(), req.Token); err != nil {
		return badRequest(c, "Invalid or expired verification token")
	}

	return c.Status(fiber.StatusOK).JSON(MessageResponse{
		Message: "Email verified successfully",
	})
}

// RequestPasswordReset handles password reset requests. It always
// acknowledges to prevent email enumeration.
func (m *Module) RequestPasswordReset(c *fiber.Ctx) error {
	var req PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Email == "" {
		return badRequest(c, "Email is required")
	}

	if err := m.authService.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		log.Printf("[api] Password reset request failed: %v", err)
	}

	return c.Status(fiber.StatusOK).JSON(MessageResponse{
		Message: "If the email exists, a password reset link has been sent",
	})
}

// ConfirmPasswordReset handles password reset confirmation.
func (m *Module) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req PasswordResetConfirm
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Token == "" || req.NewPassword == "" {
		return badRequest(c, "Token and new password are required")
	}

	if err := m.authService.ResetPassword(c.UserContext(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrWeakPassword) || errors.Is(err, auth.ErrPasswordTooLong) {
			return badRequest(c, err.Error())
		}
		return badRequest(c, "Invalid or expired reset token")
	}

	return c.Status(fiber.StatusOK).JSON(MessageResponse{
		Message: "Password reset successfully",
	})
}

// ResendVerification handles verification email re-sends.
func (m *Module) ResendVerification(c *fiber.Ctx) error {
	var req ResendVerificationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Email == "" {
		return badRequest(c, "Email is required")
	}

	if err := m.authService.ResendVerification(c.UserContext(), req.Email); err != nil {
		log.Printf("[api] Resend verification failed: %v", err)
	}

	return c.Status(fiber.StatusOK).JSON(MessageResponse{
		Message: "If the email exists and is unverified, a verification link has been sent",
	})
}

// handleAuthError maps auth service errors to HTTP responses.
func (m *Module) handleAuthError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, auth.ErrUserExists):
		return badRequest(c, "Email already registered")
	case errors.Is(err, auth.ErrInvalidEmail):
		return badRequest(c, "Invalid email format")
	case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrPasswordTooLong):
		return badRequest(c, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.Set("WWW-Authenticate", "Bearer")
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Detail: "Invalid email or password, or account is locked",
		})
	default:
		log.Printf("[api] Internal error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Detail: "An unexpected error occurred. Please try again later.",
		})
	}
}

// badRequest writes a 400 with the detail error shape.
func badRequest(c *fiber.Ctx, detail string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Detail: detail,
	})
}
