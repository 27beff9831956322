package orchestrators

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bulkmail/internal/adapters/email"
	"bulkmail/internal/domain/mail"
)

// --- Mock transport ---

type mockTransport struct {
	mu       sync.Mutex
	sent     []email.Message
	fail     map[string]error
	panicOn  string
	limit    int
	delay    time.Duration
	inFlight int32
	peak     int32
}

func newMockTransport() *mockTransport {
	return &mockTransport{fail: make(map[string]error)}
}

func (m *mockTransport) Deliver(ctx context.Context, msg email.Message) error {
	n := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		p := atomic.LoadInt32(&m.peak)
		if n <= p || atomic.CompareAndSwapInt32(&m.peak, p, n) {
			break
		}
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if msg.To == m.panicOn {
		panic("relay exploded")
	}
	if err, ok := m.fail[msg.To]; ok {
		return err
	}
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return nil
}

func (m *mockTransport) MaxConcurrency() int { return m.limit }

type countingObserver struct {
	ok, failed int32
}

func (o *countingObserver) ObserveDelivery(ok bool, _ time.Duration) {
	if ok {
		atomic.AddInt32(&o.ok, 1)
	} else {
		atomic.AddInt32(&o.failed, 1)
	}
}

func TestDispatch_OutcomesInRecipientOrder(t *testing.T) {
	tr := newMockTransport()
	tr.fail["c@d.org"] = errors.New("550 mailbox unavailable")
	obs := &countingObserver{}
	d := &Dispatcher{Transport: email.StaticHandle(tr), From: "noreply@bulkmail.com", Observer: obs}

	recipients := []string{"a@b.com", "c@d.org", "e@f.net"}
	outcomes, err := d.Dispatch(context.Background(), "Hello", "line1\nline2", recipients)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("len = %d, want 3", len(outcomes))
	}
	for i, o := range outcomes {
		if o.Recipient != recipients[i] {
			t.Errorf("outcome[%d].Recipient = %s, want %s", i, o.Recipient, recipients[i])
		}
	}
	if !outcomes[0].OK || outcomes[1].OK || !outcomes[2].OK {
		t.Errorf("outcomes = %+v", outcomes)
	}
	if outcomes[1].ErrorMessage != "550 mailbox unavailable" {
		t.Errorf("error message = %q", outcomes[1].ErrorMessage)
	}
	if obs.ok != 2 || obs.failed != 1 {
		t.Errorf("observer ok=%d failed=%d", obs.ok, obs.failed)
	}

	msg := tr.sent[0]
	if msg.From != "noreply@bulkmail.com" || msg.Subject != "Hello" {
		t.Errorf("message = %+v", msg)
	}
	if msg.Text != "line1\nline2" || !strings.Contains(msg.HTML, "line1<br>line2") {
		t.Errorf("bodies: text=%q html=%q", msg.Text, msg.HTML)
	}
}

func TestDispatch_RecoversPanic(t *testing.T) {
	tr := newMockTransport()
	tr.panicOn = "boom@x.com"
	d := &Dispatcher{Transport: email.StaticHandle(tr)}

	outcomes, err := d.Dispatch(context.Background(), "s", "b", []string{"ok@x.com", "boom@x.com"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !outcomes[0].OK {
		t.Error("healthy recipient should succeed")
	}
	if outcomes[1].OK || !strings.Contains(outcomes[1].ErrorMessage, "relay exploded") {
		t.Errorf("panicking recipient outcome = %+v", outcomes[1])
	}
}

func TestDispatch_RespectsConcurrencyLimit(t *testing.T) {
	tr := newMockTransport()
	tr.limit = 2
	tr.delay = 20 * time.Millisecond
	d := &Dispatcher{Transport: email.StaticHandle(tr)}

	recipients := []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com", "e@x.com", "f@x.com"}
	if _, err := d.Dispatch(context.Background(), "s", "b", recipients); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if peak := atomic.LoadInt32(&tr.peak); peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
	if len(tr.sent) != len(recipients) {
		t.Errorf("sent = %d, want %d", len(tr.sent), len(recipients))
	}
}

func TestDispatch_RunsConcurrentlyWhenUnbounded(t *testing.T) {
	tr := newMockTransport()
	tr.delay = 50 * time.Millisecond
	d := &Dispatcher{Transport: email.StaticHandle(tr)}

	if _, err := d.Dispatch(context.Background(), "s", "b", []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com"}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if peak := atomic.LoadInt32(&tr.peak); peak < 2 {
		t.Errorf("peak concurrency = %d, want > 1", peak)
	}
}

func TestDispatch_IgnoresRequestCancellation(t *testing.T) {
	tr := newMockTransport()
	d := &Dispatcher{Transport: email.StaticHandle(tr)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := d.Dispatch(ctx, "s", "b", []string{"a@x.com"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !outcomes[0].OK {
		t.Errorf("outcome = %+v, want delivered", outcomes[0])
	}
}

func TestDispatch_TerminalErrors(t *testing.T) {
	d := &Dispatcher{Transport: email.StaticHandle(newMockTransport())}
	if _, err := d.Dispatch(context.Background(), "s", "b", nil); mail.KindOf(err) != mail.KindValidation {
		t.Errorf("empty recipients kind = %q, want validation", mail.KindOf(err))
	}

	broken := &Dispatcher{Transport: email.NewTransportHandle(func() (email.Transport, error) {
		return nil, errors.New("auth rejected")
	})}
	_, err := broken.Dispatch(context.Background(), "s", "b", []string{"a@x.com"})
	if mail.KindOf(err) != mail.KindTransportConstruction {
		t.Errorf("construction failure kind = %q, want transport_construction", mail.KindOf(err))
	}
}
