package ratelimit

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"
)

// Result is the outcome of a Check or Info call.
type Result struct {
	Action        Action
	Allowed       bool
	Limit         int
	Remaining     int
	TotalAttempts int
	ResetAt       time.Time
	RetryAfter    time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds, at least 1.
func (r Result) RetryAfterSeconds() int {
	return max(int(math.Ceil(r.RetryAfter.Seconds())), 1)
}

// SetHeaders writes the X-RateLimit-* headers, plus Retry-After when the
// request was denied.
func (r Result) SetHeaders(h http.Header) {
	h.Set("X-RateLimit-Limit", strconv.Itoa(r.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(r.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(int64(math.Ceil(float64(r.ResetAt.UnixMilli())/1000)), 10))
	if !r.Allowed {
		h.Set("Retry-After", strconv.Itoa(r.RetryAfterSeconds()))
	}
}

// Limiter applies Policies on top of a Store. Store failures never reject a
// request: the limiter logs and allows.
type Limiter struct {
	store    Store
	policies Policies
	logger   *slog.Logger

	// SweepChance is the probability that a Check also sweeps expired
	// entries.
	SweepChance float64

	now  func() time.Time
	rand func() float64
}

type Option func(*Limiter)

func WithClock(now func() time.Time) Option { return func(l *Limiter) { l.now = now } }
func WithLogger(log *slog.Logger) Option    { return func(l *Limiter) { l.logger = log } }

// WithRand replaces the sweep dice; tests use it to force or suppress sweeps.
func WithRand(f func() float64) Option { return func(l *Limiter) { l.rand = f } }

func New(store Store, policies Policies, opts ...Option) *Limiter {
	l := &Limiter{
		store:       store,
		policies:    policies,
		logger:      slog.Default(),
		SweepChance: 0.01,
		now:         time.Now,
		rand:        rand.Float64,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Limiter) Policy(a Action) Policy { return l.policies.For(a) }

// Check counts one attempt for action by fp.
func (l *Limiter) Check(ctx context.Context, action Action, fp Fingerprint) Result {
	pol := l.policies.For(action)
	now := l.now()

	if l.rand() < l.SweepChance {
		if n, err := l.store.Sweep(ctx, now); err != nil {
			l.logger.WarnContext(ctx, "rate limit sweep failed", slog.Any("err", err))
		} else if n > 0 {
			l.logger.DebugContext(ctx, "rate limit sweep", slog.Int("removed", n))
		}
	}

	e, err := l.store.Hit(ctx, Key(action, fp), pol.Window, now)
	if err != nil {
		l.logger.ErrorContext(ctx, "rate limit store unavailable, allowing request",
			slog.String("action", string(action)),
			slog.Any("err", err),
		)
		return l.openResult(action, pol, now)
	}

	return Result{
		Action:        action,
		Allowed:       e.Count <= pol.MaxAttempts,
		Limit:         pol.MaxAttempts,
		Remaining:     max(0, pol.MaxAttempts-e.Count),
		TotalAttempts: e.Count,
		ResetAt:       e.ResetAt,
		RetryAfter:    e.ResetAt.Sub(now),
	}
}

// Update refunds the attempt counted by Check when the policy skips
// requests with this outcome.
func (l *Limiter) Update(ctx context.Context, action Action, fp Fingerprint, success bool) {
	pol := l.policies.For(action)
	if !(success && pol.SkipSuccessful) && !(!success && pol.SkipFailed) {
		return
	}
	if err := l.store.Decrement(ctx, Key(action, fp)); err != nil {
		l.logger.WarnContext(ctx, "rate limit refund failed",
			slog.String("action", string(action)),
			slog.Any("err", err),
		)
	}
}

// Info reports the current window without counting an attempt.
func (l *Limiter) Info(ctx context.Context, action Action, fp Fingerprint) Result {
	pol := l.policies.For(action)
	now := l.now()

	e, ok, err := l.store.Peek(ctx, Key(action, fp))
	if err != nil {
		l.logger.WarnContext(ctx, "rate limit peek failed", slog.Any("err", err))
		return l.openResult(action, pol, now)
	}
	if !ok || e.Expired(now) {
		return l.openResult(action, pol, now)
	}

	return Result{
		Action:        action,
		Allowed:       e.Count < pol.MaxAttempts,
		Limit:         pol.MaxAttempts,
		Remaining:     max(0, pol.MaxAttempts-e.Count),
		TotalAttempts: e.Count,
		ResetAt:       e.ResetAt,
		RetryAfter:    e.ResetAt.Sub(now),
	}
}

// Reset forgets the window for action and fp.
func (l *Limiter) Reset(ctx context.Context, action Action, fp Fingerprint) error {
	return l.store.Delete(ctx, Key(action, fp))
}

// ResetAll forgets every action's window for fp.
func (l *Limiter) ResetAll(ctx context.Context, fp Fingerprint) error {
	for a := range l.policies {
		if err := l.Reset(ctx, a, fp); err != nil {
			return err
		}
	}
	return nil
}

func (l *Limiter) Clear(ctx context.Context) error { return l.store.Clear(ctx) }

func (l *Limiter) Sweep(ctx context.Context) (int, error) { return l.store.Sweep(ctx, l.now()) }

func (l *Limiter) Ping(ctx context.Context) error { return l.store.Ping(ctx) }

func (l *Limiter) openResult(action Action, pol Policy, now time.Time) Result {
	return Result{
		Action:     action,
		Allowed:    true,
		Limit:      pol.MaxAttempts,
		Remaining:  pol.MaxAttempts,
		ResetAt:    now.Add(pol.Window),
		RetryAfter: pol.Window,
	}
}
