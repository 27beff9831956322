package mail

import (
	"context"
	"errors"

	domain "bulkmail/internal/domain/mail"
)

// ErrNotFound is returned when no record matches the requested id.
var ErrNotFound = errors.New("mail record not found")

// Store persists Mail Records. Records are append-only.
type Store interface {
	Create(ctx context.Context, r domain.Record) (domain.Record, error)
	GetByID(ctx context.Context, id string) (domain.Record, error)
	List(ctx context.Context, offset, limit int) ([]domain.Record, error)
	Count(ctx context.Context) (int, error)
}
