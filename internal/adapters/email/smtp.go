package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// DefaultSMTPTimeout bounds connect, greeting and socket operations per message.
const DefaultSMTPTimeout = 10 * time.Second

// TLS policy names accepted in SMTPConfig.TLS.
const (
	TLSMandatory     = "mandatory"
	TLSOpportunistic = "opportunistic"
	TLSNone          = "none"
	TLSImplicit      = "implicit"
)

// SMTPConfig configures an SMTPTransport.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	TLS      string
	Timeout  time.Duration
	MaxConns int
}

// SMTPTransport delivers messages through an SMTP relay.
// Each delivery opens its own connection so concurrent deliveries never share a session.
type SMTPTransport struct {
	cfg  SMTPConfig
	opts []gomail.Option
}

// NewSMTPTransport validates cfg and prepares the client options.
// PRE: cfg.Host and cfg.From are set
// POST: Returns a transport whose options were accepted by the SMTP client
func NewSMTPTransport(cfg SMTPConfig) (*SMTPTransport, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("smtp from address is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSMTPTimeout
	}

	opts := []gomail.Option{gomail.WithTimeout(cfg.Timeout)}
	if cfg.Port > 0 {
		opts = append(opts, gomail.WithPort(cfg.Port))
	}
	switch cfg.TLS {
	case TLSNone:
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	case TLSOpportunistic:
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	case TLSImplicit:
		opts = append(opts, gomail.WithSSL())
	case "", TLSMandatory:
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	default:
		return nil, fmt.Errorf("unknown smtp tls policy %q", cfg.TLS)
	}
	if cfg.Username != "" {
		if cfg.Password == "" {
			return nil, errors.New("smtp password is required when a username is set")
		}
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	// Build once so option errors surface at construction rather than per recipient.
	if _, err := gomail.NewClient(cfg.Host, opts...); err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &SMTPTransport{cfg: cfg, opts: opts}, nil
}

// MaxConcurrency returns the configured connection cap.
func (t *SMTPTransport) MaxConcurrency() int {
	return t.cfg.MaxConns
}

// Deliver sends one message over a fresh SMTP session.
// PRE: msg.To is a single address
// POST: Message accepted by the relay, or the relay's error is returned
func (t *SMTPTransport) Deliver(ctx context.Context, msg Message) error {
	from := msg.From
	if from == "" {
		from = t.cfg.From
	}

	m := gomail.NewMsg()
	if err := m.From(from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	if msg.Text != "" {
		m.AddAlternativeString(gomail.TypeTextPlain, msg.Text)
	}

	client, err := gomail.NewClient(t.cfg.Host, t.opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		slog.Error("smtp_deliver_failed", "error", err, "to", msg.To, "subject", msg.Subject)
		return err
	}

	slog.Info("smtp_delivered", "to", msg.To, "subject", msg.Subject)
	return nil
}
