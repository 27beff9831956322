package mail

import (
	"errors"
	"strings"
	"time"
)

// Status constants for a completed batch.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// DefaultFailureMessage is recorded when a transport rejects without a reason.
const DefaultFailureMessage = "failed to send"

// Domain errors
var (
	ErrEmptySubject  = errors.New("subject is required")
	ErrEmptyBody     = errors.New("body is required")
	ErrCountMismatch = errors.New("success and failed counts must add up to the recipient count")
	ErrInvalidStatus = errors.New("status must be one of: success, partial, failed")
)

// Outcome is the result of one delivery attempt.
type Outcome struct {
	Recipient    string
	OK           bool
	ErrorMessage string
}

// FailedEmail pairs a recipient with the reason its delivery failed.
type FailedEmail struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

// Summary is the aggregate of a batch's outcomes.
type Summary struct {
	SuccessCount int
	FailedCount  int
	FailedEmails []FailedEmail
	Status       string
}

// Record is the persisted, immutable audit entry for one batch.
type Record struct {
	ID           string        `json:"id"`
	Subject      string        `json:"subject"`
	Body         string        `json:"body"`
	Recipients   []string      `json:"recipients"`
	Status       string        `json:"status"`
	SuccessCount int           `json:"successCount"`
	FailedCount  int           `json:"failedCount"`
	FailedEmails []FailedEmail `json:"failedEmails"`
	SenderID     string        `json:"senderId,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// Aggregate reduces per-recipient outcomes into a Summary.
// PRE: none
// POST: SuccessCount + FailedCount == len(outcomes); FailedEmails keeps input order
func Aggregate(outcomes []Outcome) Summary {
	s := Summary{FailedEmails: []FailedEmail{}}
	for _, o := range outcomes {
		if o.OK {
			s.SuccessCount++
			continue
		}
		s.FailedCount++
		msg := o.ErrorMessage
		if strings.TrimSpace(msg) == "" {
			msg = DefaultFailureMessage
		}
		s.FailedEmails = append(s.FailedEmails, FailedEmail{Email: o.Recipient, Error: msg})
	}
	s.Status = statusFor(s.SuccessCount, s.FailedCount)
	return s
}

func statusFor(successCount, failedCount int) string {
	switch {
	case failedCount == 0:
		return StatusSuccess
	case successCount == 0:
		return StatusFailed
	default:
		return StatusPartial
	}
}

// NewRecord composes a Record from the batch inputs and its summary.
// ID and CreatedAt are left for the store to assign.
func NewRecord(subject, body string, recipients []string, s Summary) Record {
	return Record{
		Subject:      strings.TrimSpace(subject),
		Body:         body,
		Recipients:   recipients,
		Status:       s.Status,
		SuccessCount: s.SuccessCount,
		FailedCount:  s.FailedCount,
		FailedEmails: s.FailedEmails,
	}
}

// Validate checks the Record's invariants before it is persisted.
// PRE: Record struct is populated
// POST: Returns nil if valid, error otherwise
func (r *Record) Validate() error {
	if strings.TrimSpace(r.Subject) == "" {
		return ErrEmptySubject
	}
	if strings.TrimSpace(r.Body) == "" {
		return ErrEmptyBody
	}
	if r.Status != StatusSuccess && r.Status != StatusPartial && r.Status != StatusFailed {
		return ErrInvalidStatus
	}
	if r.SuccessCount < 0 || r.FailedCount < 0 ||
		r.SuccessCount+r.FailedCount != len(r.Recipients) ||
		len(r.FailedEmails) != r.FailedCount {
		return ErrCountMismatch
	}
	return nil
}
