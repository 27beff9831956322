package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// DefaultResendConcurrency keeps parallel API calls under Resend's default rate limit.
const DefaultResendConcurrency = 2

// ResendTransport delivers messages via the Resend API.
type ResendTransport struct {
	client   *resend.Client
	from     string
	maxConns int
}

// NewResendTransport creates a ResendTransport with the given API key and default from address.
// PRE: apiKey is a valid Resend API key; from is a valid sender address
// POST: Returns a ready-to-use transport
func NewResendTransport(apiKey, from string, maxConns int) (*ResendTransport, error) {
	if apiKey == "" {
		return nil, errors.New("resend api key is required")
	}
	if from == "" {
		return nil, errors.New("resend from address is required")
	}
	if maxConns <= 0 {
		maxConns = DefaultResendConcurrency
	}
	return &ResendTransport{
		client:   resend.NewClient(apiKey),
		from:     from,
		maxConns: maxConns,
	}, nil
}

// MaxConcurrency returns the number of parallel API calls allowed.
func (s *ResendTransport) MaxConcurrency() int {
	return s.maxConns
}

// Deliver sends a single email via Resend.
// PRE: msg has a recipient and a subject
// POST: Email is queued for delivery by Resend
func (s *ResendTransport) Deliver(ctx context.Context, msg Message) error {
	from := msg.From
	if from == "" {
		from = s.from
	}

	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		slog.Error("resend_send_failed", "error", err, "to", msg.To, "subject", msg.Subject)
		return fmt.Errorf("resend send failed: %w", err)
	}

	slog.Info("resend_sent", "message_id", sent.Id, "to", msg.To, "subject", msg.Subject)
	return nil
}
