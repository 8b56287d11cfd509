// Package mail delivers notification messages.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/oggyb/crush-connector/internal/config"
)

// Message is a plain text mail.
type Message struct {
	Subject string
	Body    string
	From    string
	To      []string
}

// Sender delivers messages. Implementations return an error on any
// transport failure; nothing is retried.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New picks a sender from configuration.
func New(cfg *config.Config, log *slog.Logger) (Sender, error) {
	switch cfg.Mail.Driver {
	case "smtp":
		return NewSMTPSender(cfg), nil
	case "log", "":
		return NewLogSender(log), nil
	default:
		return nil, fmt.Errorf("unsupported mail driver %q", cfg.Mail.Driver)
	}
}

// SMTPSender delivers through a plain SMTP relay.
type SMTPSender struct {
	addr string
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender builds an SMTP sender. Auth is only used when a username is set.
func NewSMTPSender(cfg *config.Config) *SMTPSender {
	s := &SMTPSender{
		addr: net.JoinHostPort(cfg.Mail.Host, cfg.Mail.Port),
		send: smtp.SendMail,
	}
	if cfg.Mail.Username != "" {
		s.auth = smtp.PlainAuth("", cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.Host)
	}
	return s
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("mail: no recipients")
	}
	if err := s.send(s.addr, s.auth, msg.From, msg.To, Render(msg, time.Now())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", s.addr, err)
	}
	return nil
}

// Render produces the RFC 5322 bytes for msg.
func Render(msg Message, date time.Time) []byte {
	var b strings.Builder
	b.WriteString("From: " + msg.From + "\r\n")
	b.WriteString("To: " + strings.Join(msg.To, ", ") + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("Date: " + date.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// LogSender writes messages to the logger instead of delivering them.
// Used in development.
type LogSender struct {
	log *slog.Logger
}

func NewLogSender(log *slog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info("mail (not delivered)", "to", msg.To, "subject", msg.Subject)
	return nil
}
