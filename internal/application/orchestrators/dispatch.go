package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"bulkmail/internal/adapters/email"
	"bulkmail/internal/domain/mail"
)

// TransportSource yields the process-wide mail transport.
type TransportSource interface {
	Get() (email.Transport, error)
}

// DeliveryObserver receives one observation per delivery attempt.
type DeliveryObserver interface {
	ObserveDelivery(ok bool, d time.Duration)
}

// Dispatcher fans one message out to many recipients.
type Dispatcher struct {
	Transport TransportSource
	From      string
	Observer  DeliveryObserver
}

// Dispatch delivers subject and body to every recipient concurrently and waits
// for all attempts to settle. Outcomes are returned in recipient order.
// Per-recipient failures (including panics in the transport) become failed
// outcomes; only an empty recipient list or an unbuildable transport fail the call.
// Cancellation of ctx does not abort in-flight deliveries.
// PRE: recipients are validated addresses
// POST: len(outcomes) == len(recipients)
func (d *Dispatcher) Dispatch(ctx context.Context, subject, body string, recipients []string) ([]mail.Outcome, error) {
	if len(recipients) == 0 {
		return nil, mail.ValidationError("no recipients")
	}
	transport, err := d.Transport.Get()
	if err != nil {
		slog.Error("mail_event", "event", "transport_unavailable", "error", err)
		return nil, mail.TransportConstructionError(err)
	}

	ctx = context.WithoutCancel(ctx)
	html := mail.RenderHTML(body)
	outcomes := make([]mail.Outcome, len(recipients))

	var g errgroup.Group
	if limit := transport.MaxConcurrency(); limit > 0 {
		g.SetLimit(limit)
	}
	for i, to := range recipients {
		g.Go(func() error {
			msg := email.Message{From: d.From, To: to, Subject: subject, HTML: html, Text: body}
			outcomes[i] = d.deliverOne(ctx, transport, msg)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes, nil
}

func (d *Dispatcher) deliverOne(ctx context.Context, transport email.Transport, msg email.Message) (out mail.Outcome) {
	out.Recipient = msg.To
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("mail_event", "event", "delivery_panic", "recipient", msg.To, "panic", r)
			out.OK = false
			out.ErrorMessage = fmt.Sprintf("delivery panicked: %v", r)
		}
		if d.Observer != nil {
			d.Observer.ObserveDelivery(out.OK, time.Since(start))
		}
	}()

	if err := transport.Deliver(ctx, msg); err != nil {
		out.ErrorMessage = err.Error()
		return out
	}
	out.OK = true
	return out
}
