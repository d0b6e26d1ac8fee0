package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"resort-booking/internal/config"
)

// Sender delivers a single notification message.
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPSender delivers mail through a plain SMTP relay.
type SMTPSender struct {
	host     string
	port     string
	username string
	password string
	from     string
}

func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.From,
	}
}

func (s *SMTPSender) Send(to, subject, body string) error {
	if s.host == "" {
		return fmt.Errorf("smtp host not configured")
	}

	msg := strings.Join([]string{
		"From: " + s.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")

	addr := s.host + ":" + s.port
	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}
