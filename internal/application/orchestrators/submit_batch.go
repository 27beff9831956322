package orchestrators

import (
	"context"
	"log/slog"
	"strings"

	"bulkmail/internal/domain/mail"
)

// BatchDispatcher delivers one message to each recipient.
type BatchDispatcher interface {
	Dispatch(ctx context.Context, subject, body string, recipients []string) ([]mail.Outcome, error)
}

// MailStoreForSubmit defines the store interface needed by SubmitBatch.
type MailStoreForSubmit interface {
	Create(ctx context.Context, r mail.Record) (mail.Record, error)
}

// BatchObserver is told the final status of every recorded batch.
type BatchObserver interface {
	ObserveBatch(status string)
}

// SubmitBatchInput carries input for the submit-batch orchestrator.
type SubmitBatchInput struct {
	Subject    string
	Body       string
	Recipients string // comma-separated, as typed by the operator
	SenderID   string
}

// SubmitBatchDeps holds dependencies for SubmitBatch.
type SubmitBatchDeps struct {
	Dispatcher BatchDispatcher
	MailStore  MailStoreForSubmit
	Observer   BatchObserver
}

// SubmitBatchResult is the outcome of a recorded batch.
type SubmitBatchResult struct {
	Record  mail.Record
	Summary mail.Summary
}

// ExecuteSubmitBatch validates a batch, fans it out, aggregates the outcomes
// and records them. Validation failures stop before any delivery; a storage
// failure after delivery is reported as a storage *mail.Error.
// PRE: caller is authenticated
// POST: On success exactly one Record exists for the batch
// INVARIANT: Summary.SuccessCount + Summary.FailedCount == len(Record.Recipients)
func ExecuteSubmitBatch(ctx context.Context, input SubmitBatchInput, deps SubmitBatchDeps) (SubmitBatchResult, error) {
	if strings.TrimSpace(input.Subject) == "" ||
		strings.TrimSpace(input.Body) == "" ||
		strings.TrimSpace(input.Recipients) == "" {
		return SubmitBatchResult{}, mail.ValidationError("subject, body, and recipients are required")
	}

	recipients, err := mail.ParseRecipients(input.Recipients)
	if err != nil {
		slog.Info("mail_event", "event", "batch_rejected", "sender_id", input.SenderID, "reason", err.Error())
		return SubmitBatchResult{}, err
	}

	// Once delivery starts the record must be written, even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	subject := strings.TrimSpace(input.Subject)
	outcomes, err := deps.Dispatcher.Dispatch(ctx, subject, input.Body, recipients)
	if err != nil {
		return SubmitBatchResult{}, err
	}

	summary := mail.Aggregate(outcomes)
	record := mail.NewRecord(subject, input.Body, recipients, summary)
	record.SenderID = input.SenderID
	if err := record.Validate(); err != nil {
		return SubmitBatchResult{}, mail.StorageError(err)
	}

	saved, err := deps.MailStore.Create(ctx, record)
	if err != nil {
		slog.Error("mail_event", "event", "record_failed",
			"sender_id", input.SenderID,
			"status", summary.Status,
			"success_count", summary.SuccessCount,
			"failed_count", summary.FailedCount,
			"error", err,
		)
		return SubmitBatchResult{}, mail.StorageError(err)
	}

	if deps.Observer != nil {
		deps.Observer.ObserveBatch(summary.Status)
	}
	slog.Info("mail_event", "event", "batch_sent",
		"record_id", saved.ID,
		"sender_id", input.SenderID,
		"status", summary.Status,
		"recipients", len(recipients),
		"success_count", summary.SuccessCount,
		"failed_count", summary.FailedCount,
	)
	return SubmitBatchResult{Record: saved, Summary: summary}, nil
}
