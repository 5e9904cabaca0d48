package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/gitsumitsinghpw/auth-app/internal/auth/domain"
	"github.com/gitsumitsinghpw/auth-app/internal/auth/store"
)

const accountColumns = `id, email, name, password_hash, role, auth_method, provider, provider_id,
	avatar, email_verified, is_active, last_login, login_attempts, lock_until, created_at, updated_at`

type accountsRepo struct {
	q querier
}

func (r *accountsRepo) findOne(ctx context.Context, where string, args ...any) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE `+where+` LIMIT 1`, args...)
	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) FindByID(ctx context.Context, id string) (domain.Account, error) {
	return r.findOne(ctx, `id = ?`, id)
}

func (r *accountsRepo) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	return r.findOne(ctx, `email = ?`, email)
}

func (r *accountsRepo) FindLocalByEmail(ctx context.Context, email string) (domain.Account, error) {
	return r.findOne(ctx, `email = ? AND auth_method = 'local'`, email)
}

func (r *accountsRepo) FindByProviderIdentity(ctx context.Context, provider, providerID string) (domain.Account, error) {
	return r.findOne(ctx, `provider = ? AND provider_id = ?`, provider, providerID)
}

func (r *accountsRepo) Create(ctx context.Context, a domain.Account) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Email, a.Name, nullString(a.PasswordHash), string(a.Role), string(a.Method),
		nullString(a.Provider), nullString(a.ProviderID), a.Avatar, a.EmailVerified, a.IsActive,
		nullMillis(a.LastLogin), a.LoginAttempts, nullMillis(a.LockUntil),
		a.CreatedAt.UnixMilli(), a.UpdatedAt.UnixMilli(),
	)
	return mapConstraint(err)
}

func (r *accountsRepo) Update(ctx context.Context, a domain.Account) error {
	res, err := r.q.ExecContext(ctx, `UPDATE accounts SET
		email = ?, name = ?, password_hash = ?, role = ?, auth_method = ?, provider = ?, provider_id = ?,
		avatar = ?, email_verified = ?, is_active = ?, last_login = ?, login_attempts = ?, lock_until = ?,
		updated_at = ?
		WHERE id = ?`,
		a.Email, a.Name, nullString(a.PasswordHash), string(a.Role), string(a.Method),
		nullString(a.Provider), nullString(a.ProviderID), a.Avatar, a.EmailVerified, a.IsActive,
		nullMillis(a.LastLogin), a.LoginAttempts, nullMillis(a.LockUntil),
		a.UpdatedAt.UnixMilli(), a.ID,
	)
	if err != nil {
		return mapConstraint(err)
	}
	return requireRow(res)
}

func (r *accountsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *accountsRepo) List(ctx context.Context, f store.AccountFilter, offset, limit int) ([]domain.Account, error) {
	where, args := f.Where(bindQ)
	args = append(args, limit, offset)

	rows, err := r.q.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE `+where+`
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, args...)
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
	where, args := f.Where(bindQ)

	var n int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE `+where, args...).Scan(&n)
	return n, err
}

func (r *accountsRepo) CountByMethod(ctx context.Context) (map[domain.AuthMethod]int, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT auth_method, COUNT(*) FROM accounts GROUP BY auth_method`)
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
	// Every right-hand side reads the pre-update row.
	row := r.q.QueryRowContext(ctx, `UPDATE accounts SET
		login_attempts = CASE
			WHEN lock_until IS NOT NULL AND lock_until <= ?1 THEN 1
			ELSE login_attempts + 1
		END,
		lock_until = CASE
			WHEN lock_until IS NOT NULL AND lock_until <= ?1 THEN NULL
			WHEN lock_until IS NULL AND login_attempts + 1 >= ?2 THEN ?1 + ?3
			ELSE lock_until
		END,
		updated_at = ?1
		WHERE id = ?4
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
	res, err := r.q.ExecContext(ctx, `UPDATE accounts
		SET login_attempts = 0, lock_until = NULL, last_login = ?1, updated_at = ?1
		WHERE id = ?2`, now.UnixMilli(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *accountsRepo) ReleaseExpiredLocks(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, `UPDATE accounts
		SET login_attempts = 0, lock_until = NULL, updated_at = ?1
		WHERE lock_until IS NOT NULL AND lock_until <= ?1`, now.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (domain.Account, error) {
	var (
		a                          domain.Account
		role, method               string
		hash, provider, providerID sql.NullString
		lastLogin, lockUntil       sql.NullInt64
		createdAt, updatedAt       int64
	)
	err := s.Scan(&a.ID, &a.Email, &a.Name, &hash, &role, &method, &provider, &providerID,
		&a.Avatar, &a.EmailVerified, &a.IsActive, &lastLogin, &a.LoginAttempts, &lockUntil,
		&createdAt, &updatedAt)
	if err != nil {
		return domain.Account{}, err
	}

	a.Role = domain.Role(role)
	a.Method = domain.AuthMethod(method)
	a.PasswordHash = hash.String
	a.Provider = provider.String
	a.ProviderID = providerID.String
	a.LastLogin = millisPtr(lastLogin)
	a.LockUntil = millisPtr(lockUntil)
	a.CreatedAt = time.UnixMilli(createdAt).UTC()
	a.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return a, nil
}

func bindQ() string { return "?" }

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func millisPtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.UnixMilli(n.Int64).UTC()
	return &t
}

