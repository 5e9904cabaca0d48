package store

import (
	"strings"
)

// Where renders f as a SQL predicate. bind returns the placeholder for the
// next argument so each driver can use its own parameter syntax. Timestamps
// are compared as unix milliseconds.
func (f AccountFilter) Where(bind func() string) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, vals ...any) {
		conds = append(conds, cond)
		args = append(args, vals...)
	}

	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + escapeLike(strings.ToLower(s)) + "%"
		add("(lower(name) LIKE "+bind()+" ESCAPE '\\' OR lower(email) LIKE "+bind()+" ESCAPE '\\')", pattern, pattern)
	}
	if f.Role != "" {
		add("role = "+bind(), string(f.Role))
	}
	if f.Method != "" {
		add("auth_method = "+bind(), string(f.Method))
	}
	if f.Active != nil {
		add("is_active = "+bind(), *f.Active)
	}
	if f.Verified != nil {
		add("email_verified = "+bind(), *f.Verified)
	}
	if f.LockedAt != nil {
		add("lock_until > "+bind(), f.LockedAt.UnixMilli())
	}
	if f.CreatedSince != nil {
		add("created_at >= "+bind(), f.CreatedSince.UnixMilli())
	}

	if len(conds) == 0 {
		return "1=1", nil
	}
	return strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
