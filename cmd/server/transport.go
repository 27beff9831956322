package main

import (
	"log/slog"

	"bulkmail/internal/adapters/email"
	"bulkmail/internal/adapters/metrics"
	"bulkmail/internal/config"
)

// mailFrom returns mail.from, falling back to the SMTP username.
func mailFrom(cfg config.Config) string {
	if cfg.Mail.From != "" {
		return cfg.Mail.From
	}
	return cfg.SMTP.Username
}

// buildTransport constructs the transport named by mail.transport.
func buildTransport(cfg config.Config) (email.Transport, error) {
	switch cfg.Mail.Transport {
	case config.TransportResend:
		t, err := email.NewResendTransport(cfg.Resend.APIKey, mailFrom(cfg), cfg.Resend.MaxConns)
		if err != nil {
			return nil, err
		}
		return t, nil
	case config.TransportNoop:
		return email.NewNoopTransport(), nil
	default:
		t, err := email.NewSMTPTransport(email.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     mailFrom(cfg),
			TLS:      cfg.SMTP.TLS,
			Timeout:  cfg.SMTP.Timeout,
			MaxConns: cfg.SMTP.MaxConns,
		})
		if err != nil {
			return nil, err
		}
		return t, nil
	}
}

// transportFactory builds the transport on first use and reports its state to m.
func transportFactory(cfg config.Config, m *metrics.Metrics) email.Factory {
	return func() (email.Transport, error) {
		t, err := buildTransport(cfg)
		m.SetTransportUp(err == nil)
		if err != nil {
			slog.Error("mail_event", "event", "transport_build_failed", "transport", cfg.Mail.Transport, "error", err)
			return nil, err
		}
		slog.Info("mail_event", "event", "transport_ready", "transport", cfg.Mail.Transport)
		return t, nil
	}
}
