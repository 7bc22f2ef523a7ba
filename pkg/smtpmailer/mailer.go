/**
 * @description
 * Direct SMTP delivery, used as the fallback path when the transactional
 * email provider fails. Upgrades the connection with STARTTLS and
 * authenticates with PLAIN auth.
 */
package smtpmailer

import (
	"crypto/tls"
	"fmt"
	"net/mail"
	"net/smtp"
)

// Mailer sends HTML email over authenticated SMTP.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewMailer creates a new SMTP mailer. Empty credentials leave the mailer
// unconfigured; see Configured.
func NewMailer(host string, port int, username, password, from string) *Mailer {
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Configured reports whether SMTP credentials are present.
func (m *Mailer) Configured() bool {
	return m.host != "" && m.username != "" && m.password != ""
}

// Send delivers one HTML email. The connection starts in plaintext and is
// upgraded via STARTTLS before authentication.
func (m *Mailer) Send(to, subject, html string) error {
	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("smtp dial failed: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return fmt.Errorf("smtp starttls failed: %w", err)
		}
	}

	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth failed: %w", err)
	}

	// The envelope sender must be a bare address even when the From header
	// carries a display name.
	envelopeFrom := m.from
	if parsed, err := mail.ParseAddress(m.from); err == nil {
		envelopeFrom = parsed.Address
	}

	if err := client.Mail(envelopeFrom); err != nil {
		return fmt.Errorf("smtp mail failed: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt failed: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data failed: %w", err)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", m.from, to, subject) +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
		html

	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("smtp write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp message rejected: %w", err)
	}

	return client.Quit()
}
