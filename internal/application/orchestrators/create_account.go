package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bulkmail/internal/domain/account"
)

// AccountStoreForCreate defines the store interface needed by CreateAccount.
type AccountStoreForCreate interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// AccountStoreForSeed adds deletion for the seed-admin command.
type AccountStoreForSeed interface {
	AccountStoreForCreate
	DeleteByEmail(ctx context.Context, email string) error
}

// CreateAccountInput carries input for the orchestrator.
type CreateAccountInput struct {
	Email    string
	Password string
	Role     string
}

// CreateAccountDeps holds dependencies for CreateAccount.
type CreateAccountDeps struct {
	AccountStore AccountStoreForCreate
}

// SeedAdminDeps holds dependencies for SeedAdmin.
type SeedAdminDeps struct {
	AccountStore AccountStoreForSeed
}

var ErrEmailAlreadyExists = errors.New("an account with this email already exists")

// ExecuteCreateAccount coordinates account creation.
// PRE: Valid email, password >= account.MinPasswordLength, valid role
// POST: Account created with hashed password and normalized email
// INVARIANT: Email must be unique
func ExecuteCreateAccount(ctx context.Context, input CreateAccountInput, deps CreateAccountDeps) (account.Account, error) {
	acct := account.Account{
		ID:        uuid.NewString(),
		Email:     account.NormalizeEmail(input.Email),
		Role:      input.Role,
		CreatedAt: time.Now().UTC(),
	}
	if err := acct.Validate(); err != nil {
		return account.Account{}, err
	}

	_, err := deps.AccountStore.GetByEmail(ctx, acct.Email)
	if err == nil {
		return account.Account{}, ErrEmailAlreadyExists
	}
	if !errors.Is(err, account.ErrNotFound) {
		return account.Account{}, fmt.Errorf("check existing account: %w", err)
	}

	if err := acct.SetPassword(input.Password); err != nil {
		return account.Account{}, err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return account.Account{}, err
	}

	slog.Info("auth_event", "event", "account_created", "email", acct.Email, "role", acct.Role)
	return acct, nil
}

// ExecuteSeedAdmin recreates the admin account: any account with the given
// email is removed and a fresh admin with the given password is created.
// PRE: Database is initialized
// POST: Exactly one account with email exists, role admin, unlocked
func ExecuteSeedAdmin(ctx context.Context, email, password string, deps SeedAdminDeps) (account.Account, error) {
	if password == "" {
		return account.Account{}, account.ErrEmptyPassword
	}
	// Checked before the delete so a bad password leaves the old admin in place.
	if len(password) < account.MinPasswordLength {
		return account.Account{}, account.ErrPasswordTooShort
	}

	if err := deps.AccountStore.DeleteByEmail(ctx, email); err != nil {
		return account.Account{}, fmt.Errorf("remove existing admin: %w", err)
	}
	acct, err := ExecuteCreateAccount(ctx, CreateAccountInput{
		Email:    email,
		Password: password,
		Role:     account.RoleAdmin,
	}, CreateAccountDeps{AccountStore: deps.AccountStore})
	if err != nil {
		return account.Account{}, err
	}

	slog.Info("auth_event", "event", "admin_seeded", "email", acct.Email)
	return acct, nil
}
