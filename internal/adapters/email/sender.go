package email

import (
	"context"
	"errors"
	"sync"
)

// Message is a single outbound email addressed to one recipient.
type Message struct {
	From    string // Sender address (e.g. "Bulk Mail <noreply@example.com>")
	To      string
	Subject string
	HTML    string // HTML body
	Text    string // Plain-text alternative
}

// Transport delivers messages to an external mail relay or API.
// Implementations enforce their own per-message timeouts and must be safe for concurrent use.
type Transport interface {
	Deliver(ctx context.Context, msg Message) error
	// MaxConcurrency caps simultaneous deliveries; <= 0 means no cap.
	MaxConcurrency() int
}

// Factory builds a Transport. It is called at most once per successful build.
type Factory func() (Transport, error)

// ErrNoFactory is returned by a TransportHandle created without a factory.
var ErrNoFactory = errors.New("no transport factory configured")

// TransportHandle owns the process-wide transport.
// The transport is built on first use, reused afterwards, and never published half-built:
// a failed build leaves the handle empty so the next caller retries.
type TransportHandle struct {
	mu        sync.Mutex
	factory   Factory
	transport Transport
}

// NewTransportHandle creates a handle that builds its transport lazily with factory.
func NewTransportHandle(factory Factory) *TransportHandle {
	return &TransportHandle{factory: factory}
}

// StaticHandle wraps an already-built transport.
func StaticHandle(t Transport) *TransportHandle {
	return &TransportHandle{transport: t}
}

// Get returns the shared transport, building it if needed.
// PRE: none
// POST: Returns a usable transport, or the construction error with the handle left empty
func (h *TransportHandle) Get() (Transport, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.transport != nil {
		return h.transport, nil
	}
	if h.factory == nil {
		return nil, ErrNoFactory
	}
	t, err := h.factory()
	if err != nil {
		return nil, err
	}
	h.transport = t
	return t, nil
}
