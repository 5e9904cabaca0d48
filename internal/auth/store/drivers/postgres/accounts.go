package postgres

import (
	"context"
	"strconv"
	"time"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/domain"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/store"
	"github.com/jackc/pgx/v5"
)

const accountColumns = `id, email, name, password_hash, role, auth_method, provider, provider_id,
	avatar, email_verified, is_active, last_login, login_attempts, lock_until, created_at, updated_at`

type accountsRepo struct {
	q querier
}

func (r *accountsRepo) findOne(ctx context.Context, where string, args ...any) (domain.Account, error) {
	row := r.q.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE `+where+` LIMIT 1`, args...)
	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) FindByID(ctx context.Context, id string) (domain.Account, error) {
	return r.findOne(ctx, `id = $1`, id)
}

func (r *accountsRepo) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	return r.findOne(ctx, `email = $1`, email)
}

func (r *accountsRepo) FindLocalByEmail(ctx context.Context, email string) (domain.Account, error) {
	return r.findOne(ctx, `email = $1 AND auth_method = 'local'`, email)
}

func (r *accountsRepo) FindByProviderIdentity(ctx context.Context, provider, providerID string) (domain.Account, error) {
	return r.findOne(ctx, `provider = $1 AND provider_id = $2`, provider, providerID)
}

func (r *accountsRepo) Create(ctx context.Context, a domain.Account) error {
	_, err := r.q.Exec(ctx, `INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		a.ID, a.Email, a.Name, optString(a.PasswordHash), string(a.Role), string(a.Method),
		optString(a.Provider), optString(a.ProviderID), a.Avatar, a.EmailVerified, a.IsActive,
		optMillis(a.LastLogin), a.LoginAttempts, optMillis(a.LockUntil),
		a.CreatedAt.UnixMilli(), a.UpdatedAt.UnixMilli(),
	)
	return mapConstraint(err)
}

func (r *accountsRepo) Update(ctx context.Context, a domain.Account) error {
	tag, err := r.q.Exec(ctx, `UPDATE accounts SET
		email = $1, name = $2, password_hash = $3, role = $4, auth_method = $5, provider = $6,
		provider_id = $7, avatar = $8, email_verified = $9, is_active = $10, last_login = $11,
		login_attempts = $12, lock_until = $13, updated_at = $14
		WHERE id = $15`,
		a.Email, a.Name, optString(a.PasswordHash), string(a.Role), string(a.Method),
		optString(a.Provider), optString(a.ProviderID), a.Avatar, a.EmailVerified, a.IsActive,
		optMillis(a.LastLogin), a.LoginAttempts, optMillis(a.LockUntil),
		a.UpdatedAt.UnixMilli(), a.ID,
	)
	if err != nil {
		return mapConstraint(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *accountsRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *accountsRepo) List(ctx context.Context, f store.AccountFilter, offset, limit int) ([]domain.Account, error) {
	bind := dollar()
	where, args := f.Where(bind)
	limitArg, offsetArg := bind(), bind()
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE `+where+`
		ORDER BY created_at DESC, id DESC LIMIT `+limitArg+` OFFSET `+offsetArg, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *accountsRepo) Count(ctx context.Context, f store.AccountFilter) (int, error) {
	where, args := f.Where(dollar())

	var n int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM accounts WHERE `+where, args...).Scan(&n)
	return n, err
}

func (r *accountsRepo) CountByMethod(ctx context.Context) (map[domain.AuthMethod]int, error) {
	rows, err := r.q.Query(ctx, `SELECT auth_method, COUNT(*) FROM accounts GROUP BY auth_method`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[domain.AuthMethod]int)
	for rows.Next() {
		var (
			method string
			n      int
		)
		if err := rows.Scan(&method, &n); err != nil {
			return nil, err
		}
		out[domain.AuthMethod(method)] = n
	}
	return out, rows.Err()
}

func (r *accountsRepo) RecordLoginFailure(ctx context.Context, id string, p domain.LockoutPolicy, now time.Time) (domain.Account, error) {
	row := r.q.QueryRow(ctx, `UPDATE accounts SET
		login_attempts = CASE
			WHEN lock_until IS NOT NULL AND lock_until <= $1 THEN 1
			ELSE login_attempts + 1
		END,
		lock_until = CASE
			WHEN lock_until IS NOT NULL AND lock_until <= $1 THEN NULL
			WHEN lock_until IS NULL AND login_attempts + 1 >= $2 THEN $1 + $3
			ELSE lock_until
		END,
		updated_at = $1
		WHERE id = $4
		RETURNING `+accountColumns,
		now.UnixMilli(), p.MaxAttempts, p.LockFor.Milliseconds(), id,
	)
	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) ResetLoginState(ctx context.Context, id string, now time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE accounts
		SET login_attempts = 0, lock_until = NULL, last_login = $1, updated_at = $1
		WHERE id = $2`, now.UnixMilli(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *accountsRepo) ReleaseExpiredLocks(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, `UPDATE accounts
		SET login_attempts = 0, lock_until = NULL, updated_at = $1
		WHERE lock_until IS NOT NULL AND lock_until <= $1`, now.UnixMilli())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanAccount(row pgx.Row) (domain.Account, error) {
	var (
		a                          domain.Account
		role, method               string
		hash, provider, providerID *string
		lastLogin, lockUntil       *int64
		createdAt, updatedAt       int64
	)
	err := row.Scan(&a.ID, &a.Email, &a.Name, &hash, &role, &method, &provider, &providerID,
		&a.Avatar, &a.EmailVerified, &a.IsActive, &lastLogin, &a.LoginAttempts, &lockUntil,
		&createdAt, &updatedAt)
	if err != nil {
		return domain.Account{}, err
	}

	a.Role = domain.Role(role)
	a.Method = domain.AuthMethod(method)
	a.PasswordHash = deref(hash)
	a.Provider = deref(provider)
	a.ProviderID = deref(providerID)
	a.LastLogin = millisPtr(lastLogin)
	a.LockUntil = millisPtr(lockUntil)
	a.CreatedAt = time.UnixMilli(createdAt).UTC()
	a.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return a, nil
}

// dollar returns a bind func producing $1, $2, ...
func dollar() func() string {
	n := 0
	return func() string {
		n++
		return "$" + strconv.Itoa(n)
	}
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optMillis(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func millisPtr(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms).UTC()
	return &t
}
