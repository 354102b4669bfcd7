package notification

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/Bukialo/crm-api/internal/config"
)

// Mailer delivers plain-text email. The SEND_EMAIL automation action and the
// alerting notifier both go through this interface.
type Mailer interface {
	Send(recipients []string, subject, body string) error
}

// SMTPMailer sends email through a plain SMTP server.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPMailer constructs an SMTPMailer from config.
func NewSMTPMailer(cfg config.EmailConfig) (*SMTPMailer, error) {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		return nil, fmt.Errorf("smtp_host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("email from address is required")
	}
	port := cfg.SMTPPort
	if port == 0 {
		port = 587
	}

	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     port,
		username: strings.TrimSpace(cfg.Username),
		password: cfg.Password,
		from:     strings.TrimSpace(cfg.From),
	}, nil
}

// Send dispatches one message to all recipients. Empty recipient entries are
// dropped; sending to zero recipients is a no-op.
func (m *SMTPMailer) Send(recipients []string, subject, body string) error {
	to := sanitizeRecipients(recipients)
	if len(to) == 0 {
		return nil
	}

	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n",
		m.from, strings.Join(to, ","), subject)
	message := []byte(headers + body)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, to, message)
}

func sanitizeRecipients(recipients []string) []string {
	var cleaned []string
	for _, recipient := range recipients {
		if trimmed := strings.TrimSpace(recipient); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
