package service

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"github.com/locodavid123/parcial1/pkg/config"
	"github.com/locodavid123/parcial1/pkg/logger"
	"go.uber.org/zap"
)

// Mailer sends plain text emails
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NewMailer returns an SMTP mailer, or a mailer that only logs when no SMTP host is configured
func NewMailer(cfg *config.SMTPConfig) Mailer {
	if cfg.Host == "" {
		return logMailer{}
	}
	return &smtpMailer{cfg: *cfg}
}

type smtpMailer struct {
	cfg config.SMTPConfig
}

func (m *smtpMailer) Send(ctx context.Context, to, subject, body string) error {
	addr := m.cfg.Host + ":" + m.cfg.Port

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	msg := buildMessage(m.cfg.From, to, subject, body)
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	logger.FromContext(ctx).Info("Mail sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// buildMessage renders a plain text mail; non-ASCII subjects are RFC 2047 encoded
func buildMessage(from, to, subject, body string) []byte {
	msg := "From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n" +
		"MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n" +
		strings.ReplaceAll(body, "\n", "\r\n")
	return []byte(msg)
}

type logMailer struct{}

func (logMailer) Send(ctx context.Context, to, subject, body string) error {
	logger.FromContext(ctx).Info("SMTP not configured, mail not sent",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)))
	return nil
}
