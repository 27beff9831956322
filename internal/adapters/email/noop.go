package email

import (
	"context"
	"log/slog"
)

// NoopTransport is a no-op transport for development and testing.
// It logs deliveries but does not actually send anything.
type NoopTransport struct{}

// NewNoopTransport creates a new NoopTransport.
func NewNoopTransport() *NoopTransport {
	return &NoopTransport{}
}

// MaxConcurrency is unbounded for the no-op transport.
func (s *NoopTransport) MaxConcurrency() int {
	return 0
}

// Deliver logs the message but does not deliver it.
// PRE: msg is a valid Message
// POST: Returns nil without actual delivery
func (s *NoopTransport) Deliver(_ context.Context, msg Message) error {
	slog.Info("noop_email_send", "to", msg.To, "subject", msg.Subject)
	return nil
}
