package mailer

import (
	"testing"

	"civicdesk/pkg/config"
)

func TestDisabledMailerDropsSends(t *testing.T) {
	m := New(config.SMTPConfig{})
	if m.Enabled() {
		t.Fatalf("zero-host mailer must be disabled")
	}
	// disabled sends drop silently instead of failing callers
	if err := m.Send("someone@example.org", "subject", "body"); err != nil {
		t.Fatalf("disabled send: %v", err)
	}
	var nilMailer *Mailer
	if nilMailer.Enabled() {
		t.Fatalf("nil mailer must report disabled")
	}
}

func TestNewReadsPasswordFromEnv(t *testing.T) {
	t.Setenv("TEST_SMTP_PASSWORD", "hunter2")
	m := New(config.SMTPConfig{
		Host:        "smtp.example.org",
		Port:        587,
		From:        "no-reply@example.org",
		PasswordEnv: "TEST_SMTP_PASSWORD",
	})
	if !m.Enabled() {
		t.Fatalf("expected enabled mailer")
	}
	if m.password != "hunter2" {
		t.Fatalf("password not read from env")
	}
	// username defaults to the from address
	if m.username != "no-reply@example.org" {
		t.Fatalf("unexpected username %q", m.username)
	}
}
