package mailer

import (
	"context"

	"github.com/google/uuid"

	"github.com/halyard-group/halyard-web/pkg/logger"
)

// NoopSender logs messages instead of sending them. Used in development and
// whenever email is disabled.
type NoopSender struct{}

// NewNoopSender creates a sender that never contacts a provider.
func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

// Name identifies the provider in logs.
func (s *NoopSender) Name() string {
	return "noop"
}

// Send logs msg and returns a locally generated ID.
func (s *NoopSender) Send(_ context.Context, msg Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}
	id := "noop-" + uuid.NewString()
	logger.Info("Email delivery disabled, dropping %q to %v (id %s)", msg.Subject, msg.To, id)
	return id, nil
}
