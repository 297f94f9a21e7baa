// Package mailer delivers transactional email through a configured provider.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/halyard-group/halyard-web/internal/config"
)

const defaultSendTimeout = 30 * time.Second

// ErrNoRecipients is returned when a message has no To address.
var ErrNoRecipients = errors.New("message has no recipients")

// Sender dispatches one email and returns the provider's message ID.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
	// Name identifies the provider in logs.
	Name() string
}

// Message is a provider-neutral email.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
	ReplyTo string
}

// Validate checks the fields every provider requires.
func (m Message) Validate() error {
	if len(m.To) == 0 {
		return ErrNoRecipients
	}
	if strings.TrimSpace(m.Subject) == "" {
		return errors.New("message subject is required")
	}
	if m.HTML == "" && m.Text == "" {
		return errors.New("message body is required")
	}
	return nil
}

// New builds the Sender selected by cfg.
func New(cfg config.EmailConfig) (Sender, error) {
	if !cfg.Enabled {
		return NewNoopSender(), nil
	}

	switch cfg.Provider {
	case config.EmailProviderMailgun:
		return NewMailgunSender(cfg)
	case config.EmailProviderResend:
		return NewResendSender(cfg)
	case config.EmailProviderNone:
		return NewNoopSender(), nil
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", cfg.Provider)
	}
}

// formatFrom renders the sender as "Name <address>".
func formatFrom(name, address string) string {
	if name == "" {
		return address
	}
	return fmt.Sprintf("%s <%s>", name, address)
}
