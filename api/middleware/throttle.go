package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/angelmondragon/invoicedesk-backend/api/responses"
	pkgerrors "github.com/angelmondragon/invoicedesk-backend/pkg/errors"
	"github.com/angelmondragon/invoicedesk-backend/pkg/logger"
)

// peekLimit caps how much of a sign-in body is read to find the email.
const peekLimit = 64 << 10

// AttemptCounter counts hits per key in a fixed window. The redis client satisfies it.
type AttemptCounter interface {
	IncrWithTTL(ctx context.Context, key string, window time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// ThrottlePolicy bounds sign-in attempts per client address and per email inside
// Window. A zero limit disables that dimension.
type ThrottlePolicy struct {
	Name     string
	Window   time.Duration
	PerIP    int
	PerEmail int
}

func (p ThrottlePolicy) active() bool {
	return p.Window > 0 && (p.PerIP > 0 || p.PerEmail > 0)
}

func (p ThrottlePolicy) scope(dimension, value string) string {
	name := p.Name
	if name == "" {
		name = "auth"
	}
	return dimension + ":" + name + ":" + value
}

// Throttle rejects sign-in attempts over the policy with 429 and a Retry-After of one
// window. Emails are hashed before they become keys or log fields.
func Throttle(policy ThrottlePolicy, counter AttemptCounter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.active() || counter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			type check struct {
				dimension, value string
				limit            int
			}
			var checks []check
			if policy.PerIP > 0 {
				if ip := remoteHost(r); ip != "" {
					checks = append(checks, check{"ip", ip, policy.PerIP})
				}
			}
			if policy.PerEmail > 0 {
				email, err := peekEmail(r)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "could not read request body"))
					return
				}
				if email != "" {
					checks = append(checks, check{"email", digestHex(email), policy.PerEmail})
				}
			}

			for _, c := range checks {
				n, err := counter.IncrWithTTL(ctx, counter.RateLimitKey(policy.scope(c.dimension, c.value)), policy.Window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if n <= int64(c.limit) {
					continue
				}
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"policy":    policy.Name,
						"dimension": c.dimension,
						"key":       c.value,
						"attempts":  n,
						"limit":     c.limit,
					}), "sign-in throttled")
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(policy.Window.Seconds())))
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "Too many sign-in attempts. Try again later."))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// peekEmail reads the email field of a JSON body and restores the body for the handler.
func peekEmail(r *http.Request) (string, error) {
	if r.Body == nil {
		return "", nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, peekLimit))
	if err != nil {
		return "", err
	}
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))

	var payload struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return "", nil
	}
	return strings.ToLower(strings.TrimSpace(payload.Email)), nil
}

// remoteHost is the client address after chi's RealIP has resolved proxy headers.
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func digestHex(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// LocalCounter stands in for redis when none is configured. Each key gets a token
// bucket refilled at limit per window, so it reports either 1 or limit+1 rather than an
// exact attempt count. Limits only hold per process.
type LocalCounter struct {
	mu        sync.Mutex
	limits    map[string]int
	buckets   map[string]*bucket
	now       func() time.Time
	lastSweep time.Time
}

type bucket struct {
	limiter *rate.Limiter
	seen    time.Time
	window  time.Duration
}

func NewLocalCounter(policy ThrottlePolicy) *LocalCounter {
	return &LocalCounter{
		limits: map[string]int{
			policy.scope("ip", ""):    policy.PerIP,
			policy.scope("email", ""): policy.PerEmail,
		},
		buckets: map[string]*bucket{},
		now:     time.Now,
	}
}

func (c *LocalCounter) RateLimitKey(scope string) string { return scope }

func (c *LocalCounter) IncrWithTTL(_ context.Context, key string, window time.Duration) (int64, error) {
	limit := c.limitFor(key)
	if limit <= 0 || window <= 0 {
		return 0, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweep(now)
	b, ok := c.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit), window: window}
		c.buckets[key] = b
	}
	b.seen = now
	if b.limiter.AllowN(now, 1) {
		return 1, nil
	}
	return int64(limit) + 1, nil
}

func (c *LocalCounter) limitFor(key string) int {
	for prefix, limit := range c.limits {
		if strings.HasPrefix(key, prefix) {
			return limit
		}
	}
	return 0
}

// sweep drops buckets idle for a full window; a refilled bucket equals a new one.
func (c *LocalCounter) sweep(now time.Time) {
	if now.Sub(c.lastSweep) < time.Minute {
		return
	}
	c.lastSweep = now
	for key, b := range c.buckets {
		if now.Sub(b.seen) > b.window {
			delete(c.buckets, key)
		}
	}
}
