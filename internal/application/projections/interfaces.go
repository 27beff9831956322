package projections

import (
	"context"

	domainMail "bulkmail/internal/domain/mail"
)

// MailStore interface for mail history queries.
type MailStore interface {
	GetByID(ctx context.Context, id string) (domainMail.Record, error)
	List(ctx context.Context, offset, limit int) ([]domainMail.Record, error)
	Count(ctx context.Context) (int, error)
}
