package httpx

import (
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gitsumitsinghpw/auth-app/pkg/slogx"
	"golang.org/x/time/rate"
)

// BucketConfig describes a token bucket: RequestsPerWindow refill over
// Window with up to Burst requests at once.
type BucketConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

// SystemLimit guards operational endpoints (health, metrics, docs).
// Override with RATELIMIT_SYSTEM_REQUESTS, RATELIMIT_SYSTEM_WINDOW_SEC and
// RATELIMIT_SYSTEM_BURST.
var SystemLimit = BucketConfig{
	RequestsPerWindow: 100,
	Window:            time.Minute,
	Burst:             100,
}

// BucketFromEnv overlays RATELIMIT_<prefix>_{REQUESTS,WINDOW_SEC,BURST} on
// def. Invalid or non-positive values are ignored.
func BucketFromEnv(prefix string, def BucketConfig) BucketConfig {
	cfg := def
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_REQUESTS"); ok {
		cfg.RequestsPerWindow = n
	}
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_WINDOW_SEC"); ok {
		cfg.Window = time.Duration(n) * time.Second
	}
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_BURST"); ok {
		cfg.Burst = n
	}
	return cfg
}

func positiveEnv(key string) (int, bool) {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// KeyExtractor groups requests for limiting.
type KeyExtractor func(*http.Request) string

type buckets struct {
	limiters sync.Map // key -> *rate.Limiter
	rate     rate.Limit
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

func (b *buckets) get(key string) *rate.Limiter {
	if l, ok := b.limiters.Load(key); ok {
		return l.(*rate.Limiter)
	}
	actual, _ := b.limiters.LoadOrStore(key, rate.NewLimiter(b.rate, b.burst))
	b.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops idle limiters (full buckets) at most every 5 minutes.
func (b *buckets) maybeCleanup() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if time.Since(b.lastCleanup) < 5*time.Minute {
		return
	}
	b.lastCleanup = time.Now()

	b.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(b.burst) {
			b.limiters.Delete(key)
		}
		return true
	})
}

// TokenBucket limits requests per key with golang.org/x/time/rate. Requests
// whose key is empty pass through.
func TokenBucket(cfg BucketConfig, key KeyExtractor) Middleware {
	b := &buckets{
		rate:        rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		burst:       cfg.Burst,
		lastCleanup: time.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			limiter := b.get(k)
			if limiter.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			res := limiter.Reserve()
			retryAfter := max(int(res.Delay().Seconds()), 1)
			res.Cancel()

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerWindow))

			slogx.FromContext(r.Context()).Warn("token bucket exhausted",
				"key", k,
				"retry_after", retryAfter,
			)

			WriteJSON(w, http.StatusTooManyRequests, map[string]any{
				"success":    false,
				"message":    "Too many requests. Please try again later.",
				"retryAfter": retryAfter,
			})
		})
	}
}
