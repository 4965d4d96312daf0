// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/accountd/internal/email"
)

type recordingSender struct {
	sent []email.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg email.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func mailDeps(sender email.Sender, gotCfg *email.SMTPConfig) *MailDeps {
	return &MailDeps{
		SenderFactory: func(cfg email.SMTPConfig, _ *slog.Logger) (email.Sender, error) {
			if gotCfg != nil {
				*gotCfg = cfg
			}
			return sender, nil
		},
	}
}

func TestMailTest(t *testing.T) {
	t.Run("sends through the configured relay", func(t *testing.T) {
		t.Setenv("ACCOUNTD_SMTP_HOST", "mailpit")
		t.Setenv("ACCOUNTD_SMTP_PORT", "2525")
		sender := &recordingSender{}
		var cfg email.SMTPConfig

		out, err := execute(t, newMailCmdWithDeps(mailDeps(sender, &cfg)),
			"mail", "test", "--to", "a@example.com", "--to", "b@example.com", "--subject", "Oi")
		require.NoError(t, err)

		assert.Equal(t, "mailpit", cfg.Host)
		assert.Equal(t, 2525, cfg.Port)
		assert.Equal(t, "contato@accountd.dev", cfg.DefaultFrom)

		require.Len(t, sender.sent, 1)
		assert.Equal(t, []string{"a@example.com", "b@example.com"}, sender.sent[0].To)
		assert.Equal(t, "Oi", sender.sent[0].Subject)
		assert.NotEmpty(t, sender.sent[0].Text)
		assert.Contains(t, out, "Sent test email to 2 recipient(s)")
	})

	t.Run("recipient is required", func(t *testing.T) {
		_, err := execute(t, newMailCmdWithDeps(mailDeps(&recordingSender{}, nil)), "mail", "test")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "to")
	})

	t.Run("send failure", func(t *testing.T) {
		sender := &recordingSender{err: errors.New("relay refused")}

		_, err := execute(t, newMailCmdWithDeps(mailDeps(sender, nil)), "mail", "test", "--to", "a@example.com")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "relay refused")
	})
}
