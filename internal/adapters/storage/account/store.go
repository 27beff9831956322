package account

import (
	"context"

	domain "bulkmail/internal/domain/account"
)

// Store persists Account state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	Save(ctx context.Context, value domain.Account) error
	DeleteByEmail(ctx context.Context, email string) error
	Count(ctx context.Context) (int, error)
}
