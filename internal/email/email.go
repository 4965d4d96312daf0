// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package email sends plain-text mail over SMTP.
package email

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/samber/oops"
)

// Message is a plain-text email. From may carry a display name
// ("Accountd <contato@accountd.dev>").
type Message struct {
	From    string
	To      []string
	Subject string
	Text    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig describes the SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// DefaultFrom is used when a message has no From.
	DefaultFrom string
}

// SMTPSender implements Sender with net/smtp.
type SMTPSender struct {
	cfg    SMTPConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewSMTPSender creates an SMTPSender. A nil logger means slog.Default().
func NewSMTPSender(cfg SMTPConfig, logger *slog.Logger) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, oops.Code("EMAIL_INVALID_CONFIG").Errorf("smtp host is required")
	}
	if cfg.Port <= 0 {
		return nil, oops.Code("EMAIL_INVALID_CONFIG").With("port", cfg.Port).Errorf("smtp port must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPSender{cfg: cfg, logger: logger, now: time.Now}, nil
}

// Send delivers msg. Dialing honours ctx; the SMTP exchange is bounded by
// the ctx deadline when one is set.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = s.cfg.DefaultFrom
	}
	from, err := mail.ParseAddress(msg.From)
	if err != nil {
		return oops.Code("EMAIL_INVALID_SENDER").With("from", msg.From).Wrap(err)
	}
	if len(msg.To) == 0 {
		return oops.Code("EMAIL_NO_RECIPIENTS").Errorf("message has no recipients")
	}
	recipients := make([]*mail.Address, 0, len(msg.To))
	for _, to := range msg.To {
		addr, err := mail.ParseAddress(to)
		if err != nil {
			return oops.Code("EMAIL_INVALID_RECIPIENT").With("to", to).Wrap(err)
		}
		recipients = append(recipients, addr)
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return oops.Code("EMAIL_DIAL_FAILED").With("addr", addr).Wrap(err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline) //nolint:errcheck // best effort on a fresh conn
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close() //nolint:errcheck // handshake error takes precedence
		return oops.Code("EMAIL_SEND_FAILED").With("operation", "handshake").With("addr", addr).Wrap(err)
	}
	defer client.Close() //nolint:errcheck // Quit already closed on success

	if err := s.deliver(client, from, recipients, msg); err != nil {
		return oops.Code("EMAIL_SEND_FAILED").With("addr", addr).With("subject", msg.Subject).Wrap(err)
	}

	s.logger.InfoContext(ctx, "email sent", "to_count", len(recipients), "subject", msg.Subject)
	return nil
}

func (s *SMTPSender) deliver(client *smtp.Client, from *mail.Address, to []*mail.Address, msg Message) error {
	if s.cfg.Username != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
			if err := client.Auth(auth); err != nil {
				return oops.With("operation", "auth").Wrap(err)
			}
		}
	}
	if err := client.Mail(from.Address); err != nil {
		return oops.With("operation", "mail from").Wrap(err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt.Address); err != nil {
			return oops.With("operation", "rcpt to").With("to", rcpt.Address).Wrap(err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return oops.With("operation", "data").Wrap(err)
	}
	if _, err := w.Write(compose(from, to, msg, s.now())); err != nil {
		_ = w.Close() //nolint:errcheck // write error takes precedence
		return oops.With("operation", "write body").Wrap(err)
	}
	if err := w.Close(); err != nil {
		return oops.With("operation", "end data").Wrap(err)
	}
	if err := client.Quit(); err != nil {
		return oops.With("operation", "quit").Wrap(err)
	}
	return nil
}

// compose renders RFC 5322 headers and a CRLF-normalized body.
func compose(from *mail.Address, to []*mail.Address, msg Message, now time.Time) []byte {
	var b bytes.Buffer
	rcpts := make([]string, len(to))
	for i, a := range to {
		rcpts[i] = a.String()
	}
	fmt.Fprintf(&b, "From: %s\r\n", from.String())
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(rcpts, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")

	body := strings.ReplaceAll(msg.Text, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\n", "\r\n")
	b.WriteString(body)
	if !strings.HasSuffix(body, "\r\n") {
		b.WriteString("\r\n")
	}
	return b.Bytes()
}
