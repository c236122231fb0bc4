package mailer

import (
	"fmt"
	"net/smtp"
	"os"
	"strconv"

	"civicdesk/pkg/config"
	"civicdesk/pkg/logger"
	"civicdesk/pkg/telemetry"
)

// Mailer sends outbound notification emails over SMTP. A zero-host
// mailer is disabled and drops sends with a log line instead of failing.
type Mailer struct {
	host     string
	port     int
	from     string
	username string
	password string
}

// New builds a mailer from config. The password comes from the
// environment variable named in cfg.PasswordEnv.
func New(cfg config.SMTPConfig) *Mailer {
	password := ""
	if cfg.PasswordEnv != "" {
		password = os.Getenv(cfg.PasswordEnv)
	}
	username := cfg.Username
	if username == "" {
		username = cfg.From
	}
	return &Mailer{
		host:     cfg.Host,
		port:     cfg.Port,
		from:     cfg.From,
		username: username,
		password: password,
	}
}

// Enabled reports whether the mailer has an SMTP host configured.
func (m *Mailer) Enabled() bool {
	return m != nil && m.host != ""
}

// Send delivers one email synchronously.
func (m *Mailer) Send(to, subject, body string) error {
	if !m.Enabled() {
		logger.Debug("mailer_disabled_drop", "to", to, "subject", subject)
		return nil
	}
	msg := []byte("Subject: " + subject + "\r\n" +
		"From: " + m.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n" +
		body + "\r\n")

	addr := m.host + ":" + strconv.Itoa(m.port)
	var auth smtp.Auth
	if m.password != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, msg); err != nil {
		telemetry.CountEmail("failed")
		return fmt.Errorf("failed to send email: %w", err)
	}
	telemetry.CountEmail("sent")
	return nil
}

// SendAsync fires the send on a goroutine. Failures are logged and
// reported to onError when set; callers never block on SMTP.
func (m *Mailer) SendAsync(to, subject, body string, onError func(error)) {
	go func() {
		if err := m.Send(to, subject, body); err != nil {
			logger.Error("email_send_failed", "to", to, "subject", subject, "error", err)
			if onError != nil {
				onError(err)
			}
		}
	}()
}
