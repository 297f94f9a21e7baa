package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/halyard-group/halyard-web/internal/config"
	"github.com/halyard-group/halyard-web/pkg/logger"
)

// MailgunSender sends emails via the Mailgun API.
type MailgunSender struct {
	client  *mailgun.MailgunImpl
	from    string
	timeout time.Duration
}

// NewMailgunSender creates a Mailgun sender from cfg.
func NewMailgunSender(cfg config.EmailConfig) (*MailgunSender, error) {
	if err := validateMailgun(cfg); err != nil {
		return nil, err
	}

	client := mailgun.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey)
	if cfg.MailgunEU {
		client.SetAPIBase(mailgun.APIBaseEU)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}

	return &MailgunSender{
		client:  client,
		from:    formatFrom(cfg.FromName, cfg.FromEmail),
		timeout: timeout,
	}, nil
}

// Name identifies the provider in logs.
func (s *MailgunSender) Name() string {
	return "mailgun"
}

// Send sends msg and returns the Mailgun message ID.
func (s *MailgunSender) Send(ctx context.Context, msg Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}

	message := s.client.NewMessage(s.from, msg.Subject, msg.Text, msg.To...)
	if msg.HTML != "" {
		message.SetHtml(msg.HTML)
	}
	if msg.ReplyTo != "" {
		message.SetReplyTo(msg.ReplyTo)
	}

	logger.Debug("Sending email via mailgun to %v: %s", msg.To, msg.Subject)

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, id, err := s.client.Send(sendCtx, message)
	if err != nil {
		return "", fmt.Errorf("mailgun send failed: %w", err)
	}
	return id, nil
}

// validateMailgun checks that the configuration is valid
func validateMailgun(cfg config.EmailConfig) error {
	switch {
	case cfg.MailgunDomain == "":
		return errors.New("HALYARD_MAILGUN_DOMAIN is required")
	case cfg.MailgunAPIKey == "":
		return errors.New("HALYARD_MAILGUN_API_KEY is required")
	case cfg.FromEmail == "":
		return errors.New("HALYARD_EMAIL_FROM_ADDRESS is required")
	}
	return nil
}
