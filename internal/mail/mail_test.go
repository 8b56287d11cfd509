package mail

import (
	"bytes"
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/crush-connector/internal/config"
	"github.com/oggyb/crush-connector/internal/logger"
)

func TestRender(t *testing.T) {
	date := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	raw := string(Render(Message{
		Subject: "Mutual Crush Found!",
		Body:    "line one\nline two",
		From:    "crush@y.edu",
		To:      []string{"a@y.edu", "b@y.edu"},
	}, date))

	assert.Contains(t, raw, "To: a@y.edu, b@y.edu\r\n")
	assert.Contains(t, raw, "Subject: Mutual Crush Found!\r\n")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\nline one\r\nline two"))
}

func TestSMTPSender_PropagatesFailure(t *testing.T) {
	cfg := config.New()
	cfg.Mail.Host = "mail.y.edu"
	cfg.Mail.Port = "2525"
	s := NewSMTPSender(cfg)

	var gotAddr string
	var gotTo []string
	s.send = func(addr string, _ smtp.Auth, _ string, to []string, _ []byte) error {
		gotAddr, gotTo = addr, to
		return errors.New("connection refused")
	}

	err := s.Send(context.Background(), Message{From: "f@y.edu", To: []string{"t@y.edu"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, "mail.y.edu:2525", gotAddr)
	assert.Equal(t, []string{"t@y.edu"}, gotTo)
}

func TestSMTPSender_NoRecipients(t *testing.T) {
	s := NewSMTPSender(config.New())
	assert.Error(t, s.Send(context.Background(), Message{}))
}

func TestNew_Drivers(t *testing.T) {
	cfg := config.New()

	cfg.Mail.Driver = "smtp"
	s, err := New(cfg, logger.Discard())
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, s)

	cfg.Mail.Driver = "pigeon"
	_, err = New(cfg, logger.Discard())
	assert.Error(t, err)
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(logger.New(logger.Config{Level: "info", Format: logger.FormatText}, &buf))

	require.NoError(t, s.Send(context.Background(), Message{Subject: "hi", To: []string{"a@y.edu"}}))
	assert.Contains(t, buf.String(), "subject=hi")
}
