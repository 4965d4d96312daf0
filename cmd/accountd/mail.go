// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/accountd/internal/email"
)

// mailTestConfig holds configuration for the mail test command.
type mailTestConfig struct {
	to      []string
	subject string
	text    string
}

func newMailCmd() *cobra.Command {
	return newMailCmdWithDeps(nil)
}

func newMailCmdWithDeps(deps *MailDeps) *cobra.Command {
	deps = deps.withDefaults()

	cmd := &cobra.Command{
		Use:   "mail",
		Short: "Email delivery tools",
	}

	cfg := &mailTestConfig{}
	test := &cobra.Command{
		Use:   "test",
		Short: "Send a test email through the configured SMTP server",
		Long: `Send a plain-text message through the configured SMTP server. In
development this is a capture server such as MailCatcher or Mailpit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMailTest(cmd, cfg, deps)
		},
	}
	test.Flags().StringSliceVar(&cfg.to, "to", nil, "recipient address (repeatable)")
	test.Flags().StringVar(&cfg.subject, "subject", "accountd test email", "message subject")
	test.Flags().StringVar(&cfg.text, "text", "This is a test email sent by accountd.", "message body")
	_ = test.MarkFlagRequired("to") //nolint:errcheck // flag registered above
	cmd.AddCommand(test)

	return cmd
}

func runMailTest(cmd *cobra.Command, cfg *mailTestConfig, deps *MailDeps) error {
	appCfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := cliLogger(appCfg)
	if err != nil {
		return err
	}

	sender, err := deps.SenderFactory(email.SMTPConfig{
		Host:        appCfg.SMTP.Host,
		Port:        appCfg.SMTP.Port,
		Username:    appCfg.SMTP.Username,
		Password:    appCfg.SMTP.Password,
		DefaultFrom: appCfg.SMTP.From,
	}, logger)
	if err != nil {
		return oops.With("operation", "create mail sender").Wrap(err)
	}

	if err := sender.Send(contextOf(cmd), email.Message{
		To:      cfg.to,
		Subject: cfg.subject,
		Text:    cfg.text,
	}); err != nil {
		return err
	}

	cmd.Printf("Sent test email to %d recipient(s)\n", len(cfg.to))
	return nil
}
