// Package email delivers account lifecycle emails over SMTP.
package email

import (
	"context"
	"fmt"
	"log"
	"mime/quotedprintable"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
)

// Config holds SMTP settings.
type Config struct {
	Host        string
	Port        int
	User        string
	Password    string
	FromEmail   string
	FromName    string
	FrontendURL string
}

// DefaultConfig returns defaults matching a local development setup.
func DefaultConfig() Config {
	return Config{
		Host:        "smtp.gmail.com",
		Port:        587,
		FromName:    "Task Management",
		FrontendURL: "http://localhost:5173",
	}
}

// SMTPMailer sends multipart text/HTML emails through an SMTP relay.
type SMTPMailer struct {
	config Config
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer creates a mailer for the given SMTP configuration.
func NewSMTPMailer(config Config) *SMTPMailer {
	return &SMTPMailer{
		config: config,
		send:   smtp.SendMail,
	}
}

// SendVerificationEmail sends the email-verification link.
func (m *SMTPMailer) SendVerificationEmail(ctx context.Context, to, username, token string) error {
	link := m.config.FrontendURL + "/verify-email?token=" + token
	text, html := verificationBody(username, link)
	return m.sendMail(ctx, to, "Verify your email address", text, html)
}

// SendPasswordResetEmail sends the password-reset link.
func (m *SMTPMailer) SendPasswordResetEmail(ctx context.Context, to, username, token string) error {
	link := m.config.FrontendURL + "/reset-password?token=" + token
	text, html := passwordResetBody(username, link)
	return m.sendMail(ctx, to, "Reset your password", text, html)
}

// sendMail assembles a multipart/alternative message and hands it to SMTP.
func (m *SMTPMailer) sendMail(ctx context.Context, to, subject, text, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	boundary := "b-" + uuid.New().String()
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s <%s>\r\n", m.config.FromName, m.config.FromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Message-ID: <%s@%s>\r\n", uuid.New().String(), m.config.Host)
	fmt.Fprintf(&b, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	writePart(&b, boundary, "text/plain", text)
	writePart(&b, boundary, "text/html", html)
	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)
	var auth smtp.Auth
	if m.config.User != "" {
		auth = smtp.PlainAuth("", m.config.User, m.config.Password, m.config.Host)
	}

	if err := m.send(addr, auth, m.config.FromEmail, []string{to}, []byte(b.String())); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func writePart(b *strings.Builder, boundary, contentType, body string) {
	fmt.Fprintf(b, "--%s\r\n", boundary)
	fmt.Fprintf(b, "Content-Type: %s; charset=utf-8\r\n", contentType)
	fmt.Fprintf(b, "Content-Transfer-Encoding: quoted-printable\r\n\r\n")

	w := quotedprintable.NewWriter(b)
	w.Write([]byte(body))
	w.Close()
	fmt.Fprintf(b, "\r\n")
}

// LogMailer logs emails instead of sending them. Used in development when
// no SMTP relay is configured.
type LogMailer struct{}

// SendVerificationEmail logs the verification token.
func (LogMailer) SendVerificationEmail(_ context.Context, to, username, token string) error {
	log.Printf("[email] (dev) verification email for %s <%s>: token=%s", username, to, token)
	return nil
}

// SendPasswordResetEmail logs the reset token.
func (LogMailer) SendPasswordResetEmail(_ context.Context, to, username, token string) error {
	log.Printf("[email] (dev) password reset email for %s <%s>: token=%s", username, to, token)
	return nil
}
