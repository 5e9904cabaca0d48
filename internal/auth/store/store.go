package store

import (
	"context"
	"errors"
	"time"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	ErrNestedTx      = errors.New("store: nested transactions are not supported")
)

// Store is the root data access interface implemented by the sqlite and
// postgres drivers. Repositories hang off it so a Tx-scoped Store exposes the
// same surface as the root one.
type Store interface {
	Accounts() Accounts

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn inside a transaction, committing when fn returns nil and
	// rolling back otherwise. Inside fn only tx may be used.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	FindByID(ctx context.Context, id string) (domain.Account, error)

	// FindByEmail matches any method; email is unique across methods.
	FindByEmail(ctx context.Context, email string) (domain.Account, error)

	// FindLocalByEmail only returns accounts with MethodLocal.
	FindLocalByEmail(ctx context.Context, email string) (domain.Account, error)

	FindByProviderIdentity(ctx context.Context, provider, providerID string) (domain.Account, error)

	// Create inserts a; ErrAlreadyExists on an email or provider identity clash.
	Create(ctx context.Context, a domain.Account) error

	// Update writes every mutable column of a and bumps updated_at.
	Update(ctx context.Context, a domain.Account) error

	Delete(ctx context.Context, id string) error

	// List returns accounts matching f, newest first.
	List(ctx context.Context, f AccountFilter, offset, limit int) ([]domain.Account, error)

	Count(ctx context.Context, f AccountFilter) (int, error)
	CountByMethod(ctx context.Context) (map[domain.AuthMethod]int, error)

	// RecordLoginFailure applies p to the stored counters in a single
	// statement and returns the updated row.
	RecordLoginFailure(ctx context.Context, id string, p domain.LockoutPolicy, now time.Time) (domain.Account, error)

	// ResetLoginState zeroes the failure counter, clears any lock and stamps
	// last_login.
	ResetLoginState(ctx context.Context, id string, now time.Time) error

	// ReleaseExpiredLocks clears locks that elapsed at or before now and
	// returns how many rows changed.
	ReleaseExpiredLocks(ctx context.Context, now time.Time) (int64, error)
}

// AccountFilter narrows List and Count. Zero fields are ignored.
type AccountFilter struct {
	Search       string // case-insensitive substring over name and email
	Role         domain.Role
	Method       domain.AuthMethod
	Active       *bool
	Verified     *bool
	LockedAt     *time.Time // only accounts locked at this instant
	CreatedSince *time.Time
}
