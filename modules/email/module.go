package email

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/Rahim-U/horizon-labs-assessment/modules/auth"
	"github.com/go-monolith/mono"
)

// Module provides the mailer as a mono module.
type Module struct {
	mailer auth.Mailer
	config Config
}

// Compile-time interface check.
var _ mono.Module = (*Module)(nil)

// NewModule creates a new email module configured from the environment.
// Without SMTP credentials the module falls back to logging tokens, which
// keeps local development working end to end.
func NewModule() *Module {
	m := &Module{
		config: loadConfig(),
	}
	if m.config.Host == "" || m.config.FromEmail == "" {
		m.mailer = LogMailer{}
	} else {
		m.mailer = NewSMTPMailer(m.config)
	}
	return m
}

// Name returns the module name.
func (m *Module) Name() string {
	return "email"
}

// Start logs the selected mailer.
func (m *Module) Start(_ context.Context) error {
	if _, ok := m.mailer.(LogMailer); ok {
		log.Println("[email] SMTP not configured, using log mailer")
		return nil
	}
	log.Printf("[email] Module started (relay: %s:%d)", m.config.Host, m.config.Port)
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[email] Module stopped")
	return nil
}

// Mailer returns the configured mailer.
func (m *Module) Mailer() auth.Mailer {
	return m.mailer
}

// loadConfig reads SMTP settings from environment variables.
func loadConfig() Config {
	config := DefaultConfig()

	if v := os.Getenv("SMTP_HOST"); v != "" {
		config.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Port = port
		}
	}
	config.User = os.Getenv("SMTP_USER")
	config.Password = os.Getenv("SMTP_PASSWORD")
	config.FromEmail = os.Getenv("SMTP_FROM_EMAIL")
	if v := os.Getenv("SMTP_FROM_NAME"); v != "" {
		config.FromName = v
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		config.FrontendURL = v
	}

	return config
}
